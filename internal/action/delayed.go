package action

import (
	"time"

	"github.com/stimweave/stimweave/internal/taskerr"
)

// Delayed holds its child back: the child is not started until the delay has
// elapsed after the wrapper starts, then the wrapper completes when the child
// does.
type Delayed struct {
	base
	delay   time.Duration
	elapsed time.Duration
	child   Action
	started bool
}

// NewDelayed creates a delayed node. The delay must be positive.
func NewDelayed(path string, delay time.Duration, child Action) (*Delayed, error) {
	if delay <= 0 {
		return nil, taskerr.New(taskerr.Timing, path, "delay must be positive, got %v", delay)
	}
	return &Delayed{base: base{path: path}, delay: delay, child: child}, nil
}

func (d *Delayed) Start(rt *Runtime) error {
	d.state = Active
	return nil
}

func (d *Delayed) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if d.state != Active {
		return Outcome{Done: d.state == Done, Rem: t.Delta}, nil
	}

	slice := t.Delta
	if !d.started {
		d.elapsed += t.Delta
		if d.elapsed < d.delay {
			return Outcome{}, nil
		}
		if err := d.child.Start(rt); err != nil {
			return Outcome{}, err
		}
		d.started = true
		slice = d.elapsed - d.delay
	}

	out, err := d.child.Tick(subTick(t, slice), rt)
	if err != nil {
		return Outcome{}, err
	}
	if out.Done {
		d.state = Done
		return Outcome{Done: true, Redraw: out.Redraw, Rem: out.Rem}, nil
	}
	return Outcome{Redraw: out.Redraw}, nil
}

func (d *Delayed) Stop(rt *Runtime) error {
	if d.state == Done {
		return nil
	}
	d.state = Done
	if d.started {
		return stopIfLive(d.child, rt)
	}
	return nil
}
