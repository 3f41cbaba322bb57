package poller

import (
	"os"
	"testing"
	"time"
)

func TestAddAndWaitObservesReadable(t *testing.T) {
	p, err := New()
	if err == ErrUnsupported {
		t.Skip("poller unsupported on this platform")
	}
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if err := p.Add(int(r.Fd()), Readable); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	events := make([]Event, 8)
	n, err := p.Wait(events, 2000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 1 {
		t.Fatalf("Wait returned %d events, want 1", n)
	}
	if events[0].FD != int(r.Fd()) {
		t.Fatalf("got fd %d, want %d", events[0].FD, r.Fd())
	}
	if events[0].Events&Readable == 0 {
		t.Fatalf("expected Readable bit set, got %v", events[0].Events)
	}
}

func TestWaitTimesOutWithNoEvents(t *testing.T) {
	p, err := New()
	if err == ErrUnsupported {
		t.Skip("poller unsupported on this platform")
	}
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if err := p.Add(int(r.Fd()), Readable); err != nil {
		t.Fatalf("Add: %v", err)
	}

	start := time.Now()
	events := make([]Event, 4)
	n, err := p.Wait(events, 50)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d events, want 0", n)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatalf("Wait returned suspiciously fast: %v", time.Since(start))
	}
}

func TestRemoveStopsFurtherNotifications(t *testing.T) {
	p, err := New()
	if err == ErrUnsupported {
		t.Skip("poller unsupported on this platform")
	}
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if err := p.Add(int(r.Fd()), Readable); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Remove(int(r.Fd())); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	events := make([]Event, 4)
	n, err := p.Wait(events, 50)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d events after Remove, want 0", n)
	}
}
