// Package scheduler drives one action tree tick by tick.
//
// Scheduling is single-threaded and cooperative: an external driver supplies
// discrete ticks (a time delta plus the input events queued since the last
// tick), and the scheduler walks the active subset of the tree depth-first in
// declaration order, exactly once per tick. Completion aggregates up the call
// stack; cancellation propagates down synchronously before the tick returns.
package scheduler

import (
	"time"

	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/event"
)

// Scheduler owns the root of one tree instance during a Run.
type Scheduler struct {
	root    action.Action
	rt      *action.Runtime
	now     time.Duration
	started bool
	done    bool
	failed  bool
}

// New creates a scheduler for the tree rooted at root.
func New(root action.Action, rt *action.Runtime) *Scheduler {
	return &Scheduler{root: root, rt: rt}
}

// Start starts the root and performs a zero-delta tick so nodes that are done
// at entry (nil, once-functions, instantly selected switches) settle before
// real time advances. It reports whether the tree is already complete.
func (s *Scheduler) Start() (bool, error) {
	if s.started {
		return s.done, nil
	}
	s.started = true
	s.rt.Now = 0
	if err := s.root.Start(s.rt); err != nil {
		s.failed = true
		return false, err
	}
	return s.step(0, nil)
}

// Advance runs one tick: dt of elapsed time plus the batch of events queued
// since the previous tick. It reports whether the whole tree completed.
func (s *Scheduler) Advance(dt time.Duration, events []event.Event) (bool, error) {
	if !s.started || s.done || s.failed {
		return s.done, nil
	}
	return s.step(dt, events)
}

func (s *Scheduler) step(dt time.Duration, events []event.Event) (bool, error) {
	s.now += dt
	s.rt.Now = s.now
	t := action.Tick{Now: s.now, Delta: dt, Events: events}

	out, err := s.root.Tick(t, s.rt)
	// Dirty flags last exactly one tick, success or not.
	s.rt.Store.ClearTick()
	if err != nil {
		s.failed = true
		return false, err
	}
	if out.Done {
		s.done = true
	}
	return s.done, nil
}

// Abort stops the whole tree synchronously. Safe to call after completion or
// failure; stop is idempotent all the way down.
func (s *Scheduler) Abort() error {
	if !s.started {
		return nil
	}
	return s.root.Stop(s.rt)
}

// Now returns the run-relative time reached so far.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Done reports whether the tree has completed naturally.
func (s *Scheduler) Done() bool {
	return s.done
}
