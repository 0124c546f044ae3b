package action

import (
	"time"

	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Clock writes an incrementing tic counter to its output line every step. It
// never completes on its own; an enclosing timeout or until terminates it.
type Clock struct {
	base
	step    time.Duration
	onStart bool
	out     store.Line

	elapsed time.Duration
	next    time.Duration
	tic     int64
}

// NewClock creates a clock node. step must be positive. When onStart is set,
// the first tic fires immediately at start with value 0.
func NewClock(path string, step time.Duration, onStart bool, out store.Line) (*Clock, error) {
	if step <= 0 {
		return nil, taskerr.New(taskerr.Timing, path, "clock step must be positive, got %v", step)
	}
	return &Clock{base: base{path: path}, step: step, onStart: onStart, out: out, next: step}, nil
}

func (c *Clock) Start(rt *Runtime) error {
	c.state = Active
	if c.onStart {
		return c.fire(rt)
	}
	return nil
}

func (c *Clock) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if c.state != Active {
		return Outcome{Done: c.state == Done, Rem: t.Delta}, nil
	}
	c.elapsed += t.Delta
	for c.elapsed >= c.next {
		if err := c.fire(rt); err != nil {
			return Outcome{}, err
		}
		c.next += c.step
	}
	return Outcome{}, nil
}

func (c *Clock) Stop(rt *Runtime) error {
	c.state = Done
	return nil
}

func (c *Clock) fire(rt *Runtime) error {
	if err := rt.Store.Write(c.out, cty.NumberIntVal(c.tic)); err != nil {
		return taskerr.Wrap(taskerr.Variable, c.path, err, "write tic")
	}
	c.tic++
	return nil
}
