// Package emitter implements the camera-role timed emitter state
// machine: drain the shared queue on a fixed cadence, optionally
// inject errors/duplicates/quality tags/drops, batch into the stack
// pool, transmit to every connected client, and fan the original codes
// out round-robin across N aggregation sub-queues.
package emitter

import (
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dm-line/lineemu/internal/netsvc"
	"github.com/dm-line/lineemu/internal/queue"
	"github.com/dm-line/lineemu/pkg/metrics"
)

var goodQuality = []byte{'A', 'B'}
var badQuality = []byte{'C', 'D', 'E', 'F'}

// Config configures one Emitter. Zero values disable the optional
// fault-injection and fan-out behaviors.
type Config struct {
	Role     string
	In       *queue.CodeQueue
	Interval time.Duration
	Stack    int

	GenErrors    bool
	ErrorPercent int

	DropPercent int

	AddQuality bool
	BadPercent int

	FanOut []*queue.CodeQueue
}

// poolEntry is one stack-pool slot: the outgoing message plus the
// original code it was derived from, if any (the error branch has
// none). Fan-out deposits one entry per pool slot that carries an
// original, in order, when the pool flushes.
type poolEntry struct {
	message     string
	original    string
	hasOriginal bool
}

// Emitter is a single Config instance's running state. Not safe for
// concurrent use: it is driven exclusively by its Listener's own
// goroutine via OnTick.
type Emitter struct {
	cfg    Config
	pool   []poolEntry
	cursor int
	rng    *rand.Rand
}

// New builds an Emitter from cfg. Stack defaults to 1 if unset.
func New(cfg Config) *Emitter {
	if cfg.Stack <= 0 {
		cfg.Stack = 1
	}
	return &Emitter{
		cfg: cfg,
		// Seeded independently per emitter so concurrent emitters (e.g.
		// N aggregation streams) don't share a PRNG state.
		rng: rand.New(rand.NewSource(time.Now().UnixNano() + int64(len(cfg.Role)))),
	}
}

// OnTick is the netsvc.TickStep driving this Emitter's state machine.
func (e *Emitter) OnTick(l *netsvc.Listener) {
	if l.Len() == 0 {
		return
	}
	time.Sleep(e.cfg.Interval)

	code, ok := e.cfg.In.Pop()
	if !ok {
		return
	}

	entry := e.buildEntry(code)
	e.pool = append(e.pool, entry)
	if len(e.pool) < e.cfg.Stack {
		return
	}

	entries := e.pool
	e.pool = nil
	frame := joinMessages(entries)

	if e.cfg.DropPercent > 0 && e.rollPercent(e.cfg.DropPercent) {
		log.Debugf("<%s> DROPPED: %s", e.cfg.Role, frame)
		metrics.CodesDropped.WithLabelValues(e.cfg.Role).Inc()
		return
	}

	e.transmit(l, frame)
	e.fanOut(entries)
}

func (e *Emitter) buildEntry(code string) poolEntry {
	entry := poolEntry{message: code, original: code, hasOriginal: true}

	if e.cfg.GenErrors && e.rollPercent(e.cfg.ErrorPercent) {
		if e.rng.Intn(2) == 0 {
			entry.message = "error"
			entry.hasOriginal = false
		} else {
			entry.message = code + "\n\r" + code
		}
	}

	if e.cfg.AddQuality && entry.hasOriginal {
		entry.message = appendQualityTag(entry.message, e.cfg.BadPercent, e.rng)
	}

	return entry
}

func appendQualityTag(message string, badPercent int, rng *rand.Rand) string {
	var pool []byte
	if rollPercent(rng, badPercent) {
		pool = badQuality
	} else {
		pool = goodQuality
	}
	q := pool[rng.Intn(len(pool))]
	return message + "@" + string(q)
}

func joinMessages(entries []poolEntry) string {
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.message
	}
	return strings.Join(msgs, "\n\r")
}

func (e *Emitter) transmit(l *netsvc.Listener, frame string) {
	payload := []byte(frame + "\n\r")
	var failed []*netsvc.ClientConn
	for _, c := range l.Clients() {
		if _, err := c.Conn.Write(payload); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		l.Remove(c)
	}
	metrics.CodesTransmitted.WithLabelValues(e.cfg.Role).Inc()
	log.Debugf("<%s> SENT: %s", e.cfg.Role, frame)
}

// fanOut deposits, in order, the original code of every entry that has
// one into the round-robin aggregation sub-queues. Entries from the
// "error" branch (hasOriginal=false) never reach an aggregation
// sub-queue, so a corrupted frame can never cross-talk into another
// stream.
func (e *Emitter) fanOut(entries []poolEntry) {
	if len(e.cfg.FanOut) == 0 {
		return
	}
	for _, entry := range entries {
		if !entry.hasOriginal {
			continue
		}
		e.cfg.FanOut[e.cursor].Push(entry.original)
		metrics.FanOutDeposits.WithLabelValues(e.cfg.Role).Inc()
		e.cursor = (e.cursor + 1) % len(e.cfg.FanOut)
	}
}

func (e *Emitter) rollPercent(percent int) bool {
	return rollPercent(e.rng, percent)
}

func rollPercent(rng *rand.Rand, percent int) bool {
	if percent <= 0 {
		return false
	}
	return rng.Intn(100) < percent
}
