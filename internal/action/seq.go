package action

import "github.com/stimweave/stimweave/internal/taskerr"

// Seq runs its children one after another. Child i+1 starts only after child
// i reports done, within the same tick when time remains, so the wrapper's
// total duration is exactly the sum of deterministic child durations.
type Seq struct {
	base
	children []Action
	idx      int
}

// NewSeq creates a sequence node.
func NewSeq(path string, children []Action) (*Seq, error) {
	if len(children) == 0 {
		return nil, taskerr.New(taskerr.Config, path, "seq requires at least one child")
	}
	return &Seq{base: base{path: path}, children: children}, nil
}

func (s *Seq) Start(rt *Runtime) error {
	s.state = Active
	return s.children[0].Start(rt)
}

func (s *Seq) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if s.state != Active {
		return Outcome{Done: s.state == Done, Rem: t.Delta}, nil
	}
	redraw := false
	rem := t.Delta
	for {
		out, err := s.children[s.idx].Tick(subTick(t, rem), rt)
		if err != nil {
			return Outcome{}, err
		}
		redraw = redraw || out.Redraw
		if !out.Done {
			return Outcome{Redraw: redraw}, nil
		}
		rem = out.Rem
		s.idx++
		if s.idx == len(s.children) {
			s.state = Done
			return Outcome{Done: true, Redraw: redraw, Rem: rem}, nil
		}
		if err := s.children[s.idx].Start(rt); err != nil {
			return Outcome{}, err
		}
		redraw = true
	}
}

func (s *Seq) Stop(rt *Runtime) error {
	if s.state == Done {
		return nil
	}
	s.state = Done
	if s.idx < len(s.children) {
		return stopIfLive(s.children[s.idx], rt)
	}
	return nil
}
