package netsvc

import (
	"net"
	"testing"
	"time"
)

func dial(t *testing.T, addr net.Addr) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	return conn
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestAcceptAddsClient(t *testing.T) {
	l, err := New("TEST", 0, func(c *ClientConn) error { return nil }, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()
	go l.Run()

	conn := dial(t, l.Addr())
	defer conn.Close()

	waitFor(t, time.Second, func() bool { return l.Len() == 1 })
}

func TestClientStepErrorRemovesClient(t *testing.T) {
	fail := make(chan struct{})
	l, err := New("TEST", 0, func(c *ClientConn) error {
		select {
		case <-fail:
			return net.ErrClosed
		default:
			return nil
		}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()
	go l.Run()

	conn := dial(t, l.Addr())
	defer conn.Close()
	waitFor(t, time.Second, func() bool { return l.Len() == 1 })

	close(fail)
	waitFor(t, time.Second, func() bool { return l.Len() == 0 })
}

func TestTickStepRunsEveryTick(t *testing.T) {
	ticks := make(chan struct{}, 100)
	l, err := New("TEST", 0, nil, func(l *Listener) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()
	go l.Run()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected at least one tick")
	}
}
