// Package action implements the polymorphic unit of behavior: stimulus
// leaves, input leaves, data leaves, and the structural combinators that
// compose them into a tree.
//
// Execution is cooperative and tick-synchronous. A node either finishes its
// per-tick work inside Tick or stays Active until the next tick; nothing
// suspends mid-tick. Combinators recurse into their active children in
// declaration order, which fixes the evaluation order among siblings and with
// it the outcome of same-tick writes to shared store lines.
package action

import (
	"log/slog"
	"time"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/zclconf/go-cty/cty"
)

// State is the lifecycle of one node instance. Done is terminal: a node is
// never revived without being re-instantiated by an enclosing repeat.
type State uint8

const (
	Idle State = iota
	Active
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Done:
		return "done"
	default:
		return "invalid"
	}
}

// Tick is one discrete scheduling step: a time advance plus the batch of
// input events queued since the previous tick. Now is the run-relative time
// at the end of the tick.
type Tick struct {
	Now    time.Duration
	Delta  time.Duration
	Events []event.Event
}

// Outcome is what a node reports back from one tick.
//
// Rem is the unconsumed tail of Delta when the node finished partway through
// the tick. Parents forward Rem (with the same event batch) into children
// they start in the same tick, so a seq of deterministic children lasts
// exactly the sum of its child durations regardless of tick size.
type Outcome struct {
	Done   bool
	Redraw bool
	Rem    time.Duration
}

// Runtime bundles the per-run collaborators a node may touch during its
// lifecycle calls.
type Runtime struct {
	Store    *store.Store
	Sink     sink.Sink
	Renderer render.Renderer
	Log      *slog.Logger

	// WallClock stamps log records; nil means time.Now.
	WallClock func() time.Time

	// Now is the run-relative time of the tick in flight, maintained by the
	// scheduler so Start and Stop can timestamp their side effects.
	Now time.Duration
}

func (rt *Runtime) wallNow() time.Time {
	if rt.WallClock != nil {
		return rt.WallClock()
	}
	return time.Now()
}

func (rt *Runtime) appendRecord(at time.Duration, group, key string, v cty.Value) error {
	return rt.Sink.Append(sink.Record{
		Time:  at,
		Wall:  rt.wallNow(),
		Group: group,
		Key:   key,
		Value: v,
	})
}

// Action is the capability every tree node exposes.
//
// Stop is forced termination from an ancestor (timeout, until, par-any). It
// must be idempotent: racing ancestors may stop a shared subtree more than
// once within the same tick, and the second call must have no side effects.
type Action interface {
	// Path is the node's position in the tree, for diagnostics and frames.
	Path() string
	State() State
	Start(rt *Runtime) error
	Tick(t Tick, rt *Runtime) (Outcome, error)
	Stop(rt *Runtime) error
}

// Factory builds a fresh instance of a subtree. repeat uses it to
// re-instantiate its body each iteration and switch uses it to instantiate
// only the selected branch.
type Factory func() (Action, error)

// base carries the fields shared by every node implementation.
type base struct {
	path  string
	state State
}

func (b *base) Path() string { return b.path }

func (b *base) State() State { return b.state }

// subTick derives the tick a parent hands to a child it starts mid-tick: the
// child sees only the remaining time slice but the full event batch, so a
// response arriving in the same frame as a stimulus swap is not lost.
func subTick(t Tick, rem time.Duration) Tick {
	return Tick{Now: t.Now, Delta: rem, Events: t.Events}
}

// stopIfLive forces a node to Done unless it already is. Used by cancelling
// combinators so that children that completed naturally are not stopped
// again.
func stopIfLive(a Action, rt *Runtime) error {
	if a == nil || a.State() == Done {
		return nil
	}
	return a.Stop(rt)
}
