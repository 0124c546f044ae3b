// Package event models the input boundary: timestamped events delivered to
// the scheduler in per-tick batches and fanned out to subscribed leaves by
// group name.
package event

import (
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Kind names the shape of an event payload.
type Kind string

const (
	// Key is a key press; the payload is the key name as a string.
	Key Kind = "key"
	// PointerDown is a pointer button press; the payload is an object with
	// x, y and button attributes.
	PointerDown Kind = "pointer_down"
	// PointerMove is a pointer motion sample with x and y attributes.
	PointerMove Kind = "pointer_move"
	// Trigger is a bare marker with no payload, used by external sources to
	// poke until/merge style consumers.
	Trigger Kind = "trigger"
)

// Event is one input occurrence: when it happened (run-relative), which named
// channel it belongs to, what shape it has, and its payload.
type Event struct {
	Time    time.Duration
	Group   string
	Kind    Kind
	Payload cty.Value
}

// KeyEvent builds a key press event.
func KeyEvent(t time.Duration, group, key string) Event {
	return Event{Time: t, Group: group, Kind: Key, Payload: cty.StringVal(key)}
}

// TriggerEvent builds a bare marker event.
func TriggerEvent(t time.Duration, group string) Event {
	return Event{Time: t, Group: group, Kind: Trigger, Payload: cty.NilVal}
}

// PointerEvent builds a pointer press event at the given coordinates.
func PointerEvent(t time.Duration, group string, x, y float64) Event {
	return Event{Time: t, Group: group, Kind: PointerDown, Payload: cty.ObjectVal(map[string]cty.Value{
		"x": cty.NumberFloatVal(x),
		"y": cty.NumberFloatVal(y),
	})}
}

// Queue collects events between ticks. Producers (input sources, remote
// feeds) push from their own goroutines; the tick driver drains the batch at
// the top of each tick. This is the only concurrency boundary around the
// engine: nothing past Drain touches a lock.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue creates an empty inter-tick event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event. Safe from any goroutine.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
}

// Drain returns all queued events in arrival order and empties the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	evs := q.events
	q.events = nil
	return evs
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
