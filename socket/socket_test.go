package socket

import (
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/corortime/internal/poller"
	"github.com/momentics/corortime/reactor"
	"github.com/momentics/corortime/task"
)

// inlineExecutor runs submitted work on its own goroutine immediately;
// good enough to drive AwaitFD's resumption in these tests without
// pulling in the full sched.Executor.
type inlineExecutor struct{}

func (inlineExecutor) Submit(w func()) error {
	go w()
	return nil
}

func newTestReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	p, err := poller.New()
	if err == poller.ErrUnsupported {
		t.Skip("poller unsupported on this platform")
	}
	if err != nil {
		t.Fatalf("poller.New: %v", err)
	}
	r := reactor.New(p, inlineExecutor{})
	r.Run()
	t.Cleanup(r.Stop)
	return r
}

// localAddr reads back the ephemeral port the kernel assigned to a
// listener bound to 127.0.0.1:0, so Dial has something concrete to
// connect to.
func localAddr(fd int) (string, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", err
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", fmt.Errorf("socket: unexpected sockaddr type %T", sa)
	}
	ip := net.IPv4(in4.Addr[0], in4.Addr[1], in4.Addr[2], in4.Addr[3])
	return fmt.Sprintf("%s:%d", ip.String(), in4.Port), nil
}

func TestListenAcceptDialEcho(t *testing.T) {
	r := newTestReactor(t)

	ln, err := Listen(r, "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	addr, err := localAddr(ln.FD())
	if err != nil {
		t.Fatalf("localAddr: %v", err)
	}

	serverRT := task.NewRuntime(inlineExecutor{})
	clientRT := task.NewRuntime(inlineExecutor{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept(serverRT)
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, err := conn.Read(serverRT, buf)
		if err != nil {
			t.Errorf("server Read: %v", err)
			return
		}
		if _, err := conn.Write(serverRT, buf[:n]); err != nil {
			t.Errorf("server Write: %v", err)
		}
	}()

	client, err := Dial(clientRT, r, addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write(clientRT, []byte("ping")); err != nil {
		t.Fatalf("client Write: %v", err)
	}
	out := make([]byte, 64)
	n, err := client.Read(clientRT, out)
	if err != nil {
		t.Fatalf("client Read: %v", err)
	}
	if string(out[:n]) != "ping" {
		t.Fatalf("got %q, want %q", out[:n], "ping")
	}

	wg.Wait()
}

func TestReadReturnsEOFOnPeerClose(t *testing.T) {
	r := newTestReactor(t)
	ln, err := Listen(r, "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	addr, err := localAddr(ln.FD())
	if err != nil {
		t.Fatalf("localAddr: %v", err)
	}

	serverRT := task.NewRuntime(inlineExecutor{})
	clientRT := task.NewRuntime(inlineExecutor{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept(serverRT)
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		time.Sleep(20 * time.Millisecond)
		conn.Close()
	}()

	client, err := Dial(clientRT, r, addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	buf := make([]byte, 16)
	_, err = client.Read(clientRT, buf)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	wg.Wait()
}
