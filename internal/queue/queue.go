// Package queue implements the code queue shared between exactly one
// producer role and one consumer role: an unbounded FIFO guarded by a
// mutex. Every queue in this system is single-producer single-consumer
// by construction, but the lock keeps the implementation honest under
// -race and costs nothing measurable at this line's rate.
package queue

import (
	"sync"

	"github.com/dm-line/lineemu/pkg/metrics"
)

// CodeQueue is an unbounded FIFO of codes. Producers Push at the tail,
// the single consumer Pop-s from the head.
type CodeQueue struct {
	name string
	mu   sync.Mutex
	buf  []string
	head int
}

// New creates an empty queue. name labels its depth gauge on the admin
// server's /metrics endpoint.
func New(name string) *CodeQueue {
	return &CodeQueue{name: name}
}

// Push appends code to the tail.
func (q *CodeQueue) Push(code string) {
	q.mu.Lock()
	q.buf = append(q.buf, code)
	depth := len(q.buf) - q.head
	q.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))
}

// Pop removes and returns the head code, or ("", false) if empty.
func (q *CodeQueue) Pop() (string, bool) {
	q.mu.Lock()
	if q.head >= len(q.buf) {
		q.mu.Unlock()
		return "", false
	}
	code := q.buf[q.head]
	q.buf[q.head] = ""
	q.head++
	// Reclaim the backing array once it's all consumed rather than
	// growing it forever under sustained throughput.
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}
	depth := len(q.buf) - q.head
	q.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))
	return code, true
}

// Len reports the current queue depth.
func (q *CodeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf) - q.head
}

// Name returns the queue's metrics label.
func (q *CodeQueue) Name() string {
	return q.name
}
