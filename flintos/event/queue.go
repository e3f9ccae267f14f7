// Package event defines kernel notifications and the bounded queue that
// carries them from interrupt handlers to the main loop.
package event

// Capacity is the number of events the kernel queue holds.
const Capacity = 32

// Queue is a fixed-capacity FIFO ring. It never allocates, blocks or
// overwrites.
//
// Queue does no locking of its own: mainline callers must hold an
// irq.Guard, interrupt handlers already run masked.
type Queue struct {
	buf   [Capacity]Event
	read  int
	write int
	count int
}

// Push appends e. When the queue is full it returns e unchanged and false.
func (q *Queue) Push(e Event) (rejected Event, ok bool) {
	if q.count == Capacity {
		return e, false
	}
	q.buf[q.write] = e
	q.write = (q.write + 1) % Capacity
	q.count++
	return Event{}, true
}

// Pop removes the oldest event, returning false when the queue is empty.
func (q *Queue) Pop() (Event, bool) {
	if q.count == 0 {
		return Event{}, false
	}
	e := q.buf[q.read]
	q.buf[q.read] = Event{}
	q.read = (q.read + 1) % Capacity
	q.count--
	return e, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return q.count }

func (q *Queue) IsEmpty() bool { return q.count == 0 }
func (q *Queue) IsFull() bool  { return q.count == Capacity }
