package action

import (
	"time"

	"github.com/stimweave/stimweave/internal/taskerr"
)

// Timeout completes when its child does, or when the deadline elapses,
// whichever comes first. On the deadline the still-running child is stopped
// forcibly, exactly once, within the same tick.
type Timeout struct {
	base
	deadline time.Duration
	elapsed  time.Duration
	child    Action
}

// NewTimeout creates a timeout node. The deadline must be positive.
func NewTimeout(path string, deadline time.Duration, child Action) (*Timeout, error) {
	if deadline <= 0 {
		return nil, taskerr.New(taskerr.Timing, path, "timeout deadline must be positive, got %v", deadline)
	}
	return &Timeout{base: base{path: path}, deadline: deadline, child: child}, nil
}

func (to *Timeout) Start(rt *Runtime) error {
	to.state = Active
	return to.child.Start(rt)
}

func (to *Timeout) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if to.state != Active {
		return Outcome{Done: to.state == Done, Rem: t.Delta}, nil
	}
	to.elapsed += t.Delta

	if to.elapsed < to.deadline {
		out, err := to.child.Tick(t, rt)
		if err != nil {
			return Outcome{}, err
		}
		if out.Done {
			to.state = Done
			return Outcome{Done: true, Redraw: out.Redraw, Rem: out.Rem}, nil
		}
		return Outcome{Redraw: out.Redraw}, nil
	}

	// Deadline lands inside this tick: the child sees only the slice up to
	// the deadline, then loses the race.
	over := to.elapsed - to.deadline
	within := t.Delta - over
	if within < 0 {
		within = 0
	}
	out, err := to.child.Tick(subTick(t, within), rt)
	if err != nil {
		return Outcome{}, err
	}
	to.state = Done
	if out.Done {
		// The child beat the deadline inside its slice; its leftover
		// belongs to the caller on top of the overshoot.
		return Outcome{Done: true, Redraw: out.Redraw, Rem: over + out.Rem}, nil
	}
	if err := to.child.Stop(rt); err != nil {
		return Outcome{}, err
	}
	return Outcome{Done: true, Redraw: true, Rem: over}, nil
}

func (to *Timeout) Stop(rt *Runtime) error {
	if to.state == Done {
		return nil
	}
	to.state = Done
	return stopIfLive(to.child, rt)
}
