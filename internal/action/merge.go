package action

import (
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
)

// Merge fans several lines into one: on any tick where at least one
// subscribed line is dirty, it republishes that line's value to the output.
//
// Simultaneous dirtiness resolves by fixed subscription order: the
// first-listed dirty line wins. This is a documented design choice, not
// user-configurable; reorder the subscription list to change priority.
type Merge struct {
	base
	in  []store.Line
	out store.Line
}

// NewMerge creates a merge node subscribed to in, in priority order.
func NewMerge(path string, in []store.Line, out store.Line) (*Merge, error) {
	if len(in) == 0 {
		return nil, taskerr.New(taskerr.Config, path, "merge requires at least one input line")
	}
	return &Merge{base: base{path: path}, in: in, out: out}, nil
}

func (m *Merge) Start(rt *Runtime) error {
	m.state = Active
	return nil
}

func (m *Merge) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if m.state != Active {
		return Outcome{Done: m.state == Done, Rem: t.Delta}, nil
	}
	for _, l := range m.in {
		if !rt.Store.Dirty(l) {
			continue
		}
		v, ok := rt.Store.Read(l)
		if !ok {
			return Outcome{}, taskerr.New(taskerr.Variable, m.path,
				"line %d is dirty but unbound", l)
		}
		if err := rt.Store.Write(m.out, v); err != nil {
			return Outcome{}, taskerr.Wrap(taskerr.Variable, m.path, err, "republish")
		}
		break
	}
	return Outcome{}, nil
}

func (m *Merge) Stop(rt *Runtime) error {
	m.state = Done
	return nil
}
