package progress

import "sync"

// Queue is an unbounded FIFO of events with a single producer and a single
// consumer. Emit never blocks and Drain never waits.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	ready   chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Emit appends ev.
func (q *Queue) Emit(ev Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain returns every pending event in emission order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

// Ready is signalled after Emit. Consumers that prefer not to poll can wait
// on it and then Drain.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
