package engine

import "sync"

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeCommand is a player command waiting for a reply.
	EventTypeCommand EventType = iota + 1
	// EventTypeTimer is a scheduler callback moved onto the loop.
	EventTypeTimer
)

// Event is one unit of work for the loop.
type Event struct {
	Type    EventType
	Command Command
	reply   chan<- reply
	timer   *loopTimer
	fire    func()
}

type reply struct {
	result Result
	err    error
}

// eventQueue is an unbounded FIFO shared by command producers (CLI, HTTP
// handlers) and timer goroutines. Only the loop dequeues.
//
// signal has a buffer of one so repeated enqueues coalesce into a single
// wakeup.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	// Release the closure and reply channel held by the slot.
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that signals when events may be available.
// It is closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further enqueues and wakes the loop.
// Events already queued are left for the caller to drain.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
