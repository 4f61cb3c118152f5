// Package netsvc implements a single listener engine: one
// accept/service-tick skeleton shared by both the printer role (a
// per-client parsing step) and the camera role (a per-tick
// timed-emission step), parameterized by the two capabilities instead
// of duplicated per role.
package netsvc

import (
	"errors"
	"net"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dm-line/lineemu/pkg/metrics"
)

const tickInterval = time.Millisecond

// ClientConn is one accepted connection plus whatever per-client state
// the role attaches to it (e.g. a printer's print buffer).
type ClientConn struct {
	Conn  net.Conn
	State interface{}
}

// ClientStep runs once per connected client per tick. Returning a
// non-nil error removes the client from the set unless the error
// classifies as a benign mid-read abort, in which case it is silently
// skipped for this tick only.
type ClientStep func(c *ClientConn) error

// TickStep runs once per full pass over the connection set, after
// every ClientStep call for this tick has returned.
type TickStep func(l *Listener)

// Listener owns one bound TCP socket, a role name, and the dynamic set
// of accepted clients. The set is never exposed beyond Clients/Remove,
// both of which are only safe to call from the Listener's own Run
// goroutine: a listener's connection set is owned exclusively by its
// own service thread.
type Listener struct {
	Role string
	Port int

	tcp      *net.TCPListener
	clients  []*ClientConn
	onClient ClientStep
	onTick   TickStep
}

// New binds role's listener to 0.0.0.0:port. Either step may be nil.
func New(role string, port int, onClient ClientStep, onTick TickStep) (*Listener, error) {
	addr := &net.TCPAddr{Port: port}
	tcp, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{
		Role:     role,
		Port:     port,
		tcp:      tcp,
		onClient: onClient,
		onTick:   onTick,
	}, nil
}

// Run services accept, the per-client step, and the per-tick step
// forever, roughly once per millisecond. It never returns; callers
// start it in its own goroutine.
func (l *Listener) Run() {
	for {
		l.acceptOnce()
		if l.onClient != nil {
			l.serviceClients()
		}
		if l.onTick != nil {
			l.onTick(l)
		}
		time.Sleep(tickInterval)
	}
}

// acceptOnce performs one non-blocking accept attempt: a short
// deadline on the listening socket turns a would-block accept into an
// immediate timeout, so the accept loop never stalls forward progress
// of already-connected clients.
func (l *Listener) acceptOnce() {
	_ = l.tcp.SetDeadline(time.Now().Add(tickInterval))
	conn, err := l.tcp.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return
		}
		log.WithField("role", l.Role).Warnf("accept error: %v", err)
		return
	}
	log.WithField("role", l.Role).Infof("client connected: %s", conn.RemoteAddr())
	l.clients = append(l.clients, &ClientConn{Conn: conn})
	metrics.ConnectedClients.WithLabelValues(l.Role).Set(float64(len(l.clients)))
}

func (l *Listener) serviceClients() {
	live := l.clients[:0]
	for _, c := range l.clients {
		err := l.onClient(c)
		switch {
		case err == nil:
			live = append(live, c)
		case isPeerAbortedMidRead(err):
			// Skipped for this tick only, client stays connected.
			live = append(live, c)
		default:
			log.WithField("role", l.Role).Infof("client removed: %v", err)
			c.Conn.Close()
		}
	}
	l.clients = live
	metrics.ConnectedClients.WithLabelValues(l.Role).Set(float64(len(l.clients)))
}

// Clients returns the current connection set. Valid only from the
// Listener's own goroutine (see the type doc comment).
func (l *Listener) Clients() []*ClientConn {
	return l.clients
}

// Len reports the current connection-set size.
func (l *Listener) Len() int {
	return len(l.clients)
}

// Addr returns the bound socket address, useful for tests that bind
// to port 0 and need to discover the assigned port.
func (l *Listener) Addr() net.Addr {
	return l.tcp.Addr()
}

// Close releases the bound socket and every accepted connection.
// Run must not be called again afterward.
func (l *Listener) Close() error {
	for _, c := range l.clients {
		c.Conn.Close()
	}
	l.clients = nil
	return l.tcp.Close()
}

// Remove closes c's connection and drops it from the set. Used by a
// TickStep (the camera role) when a send to c fails.
func (l *Listener) Remove(c *ClientConn) {
	for i, existing := range l.clients {
		if existing == c {
			c.Conn.Close()
			l.clients = append(l.clients[:i], l.clients[i+1:]...)
			metrics.ConnectedClients.WithLabelValues(l.Role).Set(float64(len(l.clients)))
			return
		}
	}
}

// isPeerAbortedMidRead reports whether err is a "peer aborted
// mid-read" condition that should be handled silently without
// removing the client, approximated here by ECONNRESET — the common
// reset-while-reading signal on this platform's socket layer.
func isPeerAbortedMidRead(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}
