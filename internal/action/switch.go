package action

import (
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Switch reads its control line exactly once at entry and instantiates
// exactly one branch. Branches are factories, so the non-selected branch is
// never constructed, let alone started. A missing branch behaves as nil.
type Switch struct {
	base
	control store.Line
	ifTrue  Factory
	ifFalse Factory
	chosen  Action
}

// NewSwitch creates a switch node. Either branch factory may be nil.
func NewSwitch(path string, control store.Line, ifTrue, ifFalse Factory) *Switch {
	return &Switch{base: base{path: path}, control: control, ifTrue: ifTrue, ifFalse: ifFalse}
}

func (s *Switch) Start(rt *Runtime) error {
	s.state = Active

	v, ok := rt.Store.Read(s.control)
	if !ok {
		return taskerr.New(taskerr.Variable, s.path, "control line %d is unbound", s.control)
	}
	cond, err := truthy(v)
	if err != nil {
		return taskerr.Wrap(taskerr.Expression, s.path, err, "control line %d", s.control)
	}

	branch := s.ifFalse
	if cond {
		branch = s.ifTrue
	}
	if branch == nil {
		s.chosen = NewNil(s.path + "/nil")
	} else {
		chosen, err := branch()
		if err != nil {
			return err
		}
		s.chosen = chosen
	}
	return s.chosen.Start(rt)
}

func (s *Switch) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if s.state != Active {
		return Outcome{Done: s.state == Done, Rem: t.Delta}, nil
	}
	out, err := s.chosen.Tick(t, rt)
	if err != nil {
		return Outcome{}, err
	}
	if out.Done {
		s.state = Done
	}
	return out, nil
}

func (s *Switch) Stop(rt *Runtime) error {
	if s.state == Done {
		return nil
	}
	s.state = Done
	return stopIfLive(s.chosen, rt)
}

// truthy coerces a control value: booleans as themselves, numbers as
// non-zero. Anything else is a type mismatch.
func truthy(v cty.Value) (bool, error) {
	switch v.Type() {
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		return v.AsBigFloat().Sign() != 0, nil
	default:
		return false, taskerr.New(taskerr.Expression, "", "value of type %s is not a condition", v.Type().FriendlyName())
	}
}
