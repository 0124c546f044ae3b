package action

import (
	"time"

	"github.com/stimweave/stimweave/internal/taskerr"
)

// Wait holds the current background for a fixed duration, then completes.
type Wait struct {
	base
	dur     time.Duration
	elapsed time.Duration
}

// NewWait creates a wait node. The duration must be positive.
func NewWait(path string, d time.Duration) (*Wait, error) {
	if d <= 0 {
		return nil, taskerr.New(taskerr.Timing, path, "wait duration must be positive, got %v", d)
	}
	return &Wait{base: base{path: path}, dur: d}, nil
}

func (w *Wait) Start(rt *Runtime) error {
	w.state = Active
	return nil
}

func (w *Wait) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if w.state != Active {
		return Outcome{Done: w.state == Done, Rem: t.Delta}, nil
	}
	w.elapsed += t.Delta
	if w.elapsed < w.dur {
		return Outcome{}, nil
	}
	w.state = Done
	return Outcome{Done: true, Rem: w.elapsed - w.dur}, nil
}

func (w *Wait) Stop(rt *Runtime) error {
	w.state = Done
	return nil
}
