package buffer

import (
	"os"
	"testing"
)

func TestNewBufferInitialState(t *testing.T) {
	b := New()
	defer b.Release()
	if b.Readable() != 0 {
		t.Fatalf("Readable() = %d, want 0", b.Readable())
	}
	if b.Prependable() != cheapPrepend {
		t.Fatalf("Prependable() = %d, want %d", b.Prependable(), cheapPrepend)
	}
	if b.Writable() < initialSize {
		t.Fatalf("Writable() = %d, want >= %d", b.Writable(), initialSize)
	}
}

func TestAppendRetrieveRoundTrip(t *testing.T) {
	b := New()
	defer b.Release()

	b.Append([]byte("hello"))
	if b.Readable() != 5 {
		t.Fatalf("Readable() = %d, want 5", b.Readable())
	}
	if got := string(b.Peek()); got != "hello" {
		t.Fatalf("Peek() = %q, want %q", got, "hello")
	}
	if got := b.RetrieveAsString(5); got != "hello" {
		t.Fatalf("RetrieveAsString = %q, want %q", got, "hello")
	}
	if b.Readable() != 0 {
		t.Fatalf("Readable() = %d after full retrieve, want 0", b.Readable())
	}
}

func TestRetrieveAllAsString(t *testing.T) {
	b := New()
	defer b.Release()

	b.Append([]byte("abc"))
	b.Append([]byte("def"))
	if got := b.RetrieveAllAsString(); got != "abcdef" {
		t.Fatalf("got %q, want %q", got, "abcdef")
	}
	if b.Readable() != 0 {
		t.Fatalf("expected empty after RetrieveAllAsString")
	}
}

func TestAppendGrowsWhenNoRoom(t *testing.T) {
	b := NewSize(8)
	defer b.Release()

	big := make([]byte, 1<<20)
	for i := range big {
		big[i] = byte(i)
	}
	b.Append(big)
	if b.Readable() != len(big) {
		t.Fatalf("Readable() = %d, want %d", b.Readable(), len(big))
	}
	got := b.Peek()
	for i := range big {
		if got[i] != big[i] {
			t.Fatalf("byte %d mismatch after growth", i)
		}
	}
}

func TestAppendCompactsInPlace(t *testing.T) {
	b := NewSize(32)
	defer b.Release()

	b.Append(make([]byte, 20))
	b.Retrieve(10)

	bufBefore := &b.buf[0]
	tail := []byte("0123456789abcdefghij")
	b.Append(tail)
	bufAfter := &b.buf[0]
	if bufBefore != bufAfter {
		t.Fatalf("expected Append to compact in place rather than reallocate")
	}
	if b.Readable() != 30 {
		t.Fatalf("Readable() = %d, want 30", b.Readable())
	}
	if got := b.Peek()[10:]; string(got) != string(tail) {
		t.Fatalf("got %q, want %q", got, tail)
	}
}

func TestRetrieveClampsToReadable(t *testing.T) {
	b := New()
	defer b.Release()

	b.Append([]byte("xy"))
	b.Retrieve(100)
	if b.Readable() != 0 {
		t.Fatalf("Retrieve(100) on a 2-byte buffer should empty it, got Readable()=%d", b.Readable())
	}
}

func TestReadFDWriteFDRoundTrip(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	payload := []byte("the quick brown fox")
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b := New()
	defer b.Release()

	n, err := b.ReadFD(int(r.Fd()))
	if err != nil {
		t.Fatalf("ReadFD: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("ReadFD read %d bytes, want %d", n, len(payload))
	}

	out, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer out.Close()
	defer outW.Close()

	written, err := b.WriteFD(int(outW.Fd()))
	if err != nil {
		t.Fatalf("WriteFD: %v", err)
	}
	if written != len(payload) {
		t.Fatalf("WriteFD wrote %d bytes, want %d", written, len(payload))
	}

	readBack := make([]byte, len(payload))
	if _, err := out.Read(readBack); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(readBack) != string(payload) {
		t.Fatalf("got %q, want %q", readBack, payload)
	}
}

func TestReadFDSpillTriggersGrowth(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	payload := make([]byte, 100*1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	done := make(chan error, 1)
	go func() {
		_, err := w.Write(payload)
		done <- err
	}()

	b := NewSize(4096)
	defer b.Release()

	total := 0
	for total < len(payload) {
		n, err := b.ReadFD(int(r.Fd()))
		if err != nil {
			t.Fatalf("ReadFD: %v", err)
		}
		total += n
	}
	if err := <-done; err != nil {
		t.Fatalf("writer: %v", err)
	}
	if b.Readable() != len(payload) {
		t.Fatalf("Readable() = %d, want %d", b.Readable(), len(payload))
	}
}
