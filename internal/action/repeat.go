package action

import "github.com/stimweave/stimweave/internal/taskerr"

// Repeat re-instantiates its body from a factory every time the body reaches
// done. The wrapper itself never completes on its own; termination is
// delegated to an enclosing until, timeout, or external cancellation.
//
// Bound output lines live in the run-wide store and therefore persist across
// iterations; only the body's node state is reset.
type Repeat struct {
	base
	make  Factory
	inner Action
}

// NewRepeat creates a repeat node around the body factory.
func NewRepeat(path string, make Factory) (*Repeat, error) {
	if make == nil {
		return nil, taskerr.New(taskerr.Config, path, "repeat requires a body")
	}
	return &Repeat{base: base{path: path}, make: make}, nil
}

func (r *Repeat) Start(rt *Runtime) error {
	r.state = Active
	inner, err := r.make()
	if err != nil {
		return err
	}
	r.inner = inner
	return r.inner.Start(rt)
}

func (r *Repeat) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if r.state != Active {
		return Outcome{Done: r.state == Done, Rem: t.Delta}, nil
	}
	redraw := false
	rem := t.Delta
	for {
		out, err := r.inner.Tick(subTick(t, rem), rt)
		if err != nil {
			return Outcome{}, err
		}
		redraw = redraw || out.Redraw
		if !out.Done {
			return Outcome{Redraw: redraw}, nil
		}

		inner, err := r.make()
		if err != nil {
			return Outcome{}, err
		}
		r.inner = inner
		if err := r.inner.Start(rt); err != nil {
			return Outcome{}, err
		}
		redraw = true

		// A body that consumed no time this iteration gets its first tick
		// next time around; spinning zero-duration iterations forever would
		// never yield the tick.
		if out.Rem == rem {
			return Outcome{Redraw: redraw}, nil
		}
		rem = out.Rem
	}
}

func (r *Repeat) Stop(rt *Runtime) error {
	if r.state == Done {
		return nil
	}
	r.state = Done
	return stopIfLive(r.inner, rt)
}
