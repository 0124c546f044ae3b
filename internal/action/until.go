package action

import (
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
)

// Until races its body against a trigger: a matching input-group event or a
// write to a watched line. On trigger it stops the body and completes within
// the same tick, regardless of the body's progress. If the body completes
// naturally first, the wrapper completes with it.
type Until struct {
	base
	group   string
	line    store.Line
	useLine bool
	inner   Action
}

// NewUntilEvent creates an until node triggered by any event in group.
func NewUntilEvent(path, group string, inner Action) (*Until, error) {
	if group == "" {
		return nil, taskerr.New(taskerr.Config, path, "until event group cannot be empty")
	}
	return &Until{base: base{path: path}, group: group, inner: inner}, nil
}

// NewUntilLine creates an until node triggered by a write to line.
func NewUntilLine(path string, line store.Line, inner Action) *Until {
	return &Until{base: base{path: path}, line: line, useLine: true, inner: inner}
}

func (u *Until) Start(rt *Runtime) error {
	u.state = Active
	return u.inner.Start(rt)
}

func (u *Until) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if u.state != Active {
		return Outcome{Done: u.state == Done, Rem: t.Delta}, nil
	}

	// Event triggers are checked before the body runs so the stop lands in
	// the same tick the event arrives.
	if u.group != "" {
		for _, ev := range t.Events {
			if ev.Group == u.group {
				return u.fire(rt)
			}
		}
	}

	out, err := u.inner.Tick(t, rt)
	if err != nil {
		return Outcome{}, err
	}
	if out.Done {
		u.state = Done
		return Outcome{Done: true, Redraw: out.Redraw, Rem: out.Rem}, nil
	}

	// Line triggers are checked after the body so writes made anywhere in
	// this tick count, whether from the body's own subtree or earlier siblings.
	if u.useLine && rt.Store.Dirty(u.line) {
		o, err := u.fire(rt)
		o.Redraw = o.Redraw || out.Redraw
		return o, err
	}

	return Outcome{Redraw: out.Redraw}, nil
}

func (u *Until) Stop(rt *Runtime) error {
	if u.state == Done {
		return nil
	}
	u.state = Done
	return stopIfLive(u.inner, rt)
}

func (u *Until) fire(rt *Runtime) (Outcome, error) {
	if err := stopIfLive(u.inner, rt); err != nil {
		return Outcome{}, err
	}
	u.state = Done
	return Outcome{Done: true, Redraw: true}, nil
}
