package action

import "github.com/stimweave/stimweave/internal/taskerr"

// Policy selects how a parallel node aggregates child completion.
type Policy uint8

const (
	// All completes the wrapper once every child is done.
	All Policy = iota
	// Any completes the wrapper at the first child done; the remaining live
	// children are stopped synchronously, each exactly once, before the tick
	// returns.
	Any
)

func (p Policy) String() string {
	if p == Any {
		return "any"
	}
	return "all"
}

// Par runs all children concurrently in tick-lockstep. Children are ticked in
// declaration order, which fixes the tie-break when several would complete in
// the same tick under the any policy: the first-listed wins.
type Par struct {
	base
	policy   Policy
	children []Action
}

// NewPar creates a parallel node.
func NewPar(path string, policy Policy, children []Action) (*Par, error) {
	if len(children) == 0 {
		return nil, taskerr.New(taskerr.Config, path, "par requires at least one child")
	}
	return &Par{base: base{path: path}, policy: policy, children: children}, nil
}

func (p *Par) Start(rt *Runtime) error {
	p.state = Active
	for _, c := range p.children {
		if err := c.Start(rt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Par) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if p.state != Active {
		return Outcome{Done: p.state == Done, Rem: t.Delta}, nil
	}
	redraw := false
	allDone := true
	minRem := t.Delta

	for _, c := range p.children {
		if c.State() == Done {
			continue
		}
		out, err := c.Tick(t, rt)
		if err != nil {
			return Outcome{}, err
		}
		redraw = redraw || out.Redraw
		if !out.Done {
			allDone = false
			continue
		}
		if p.policy == Any {
			if err := p.stopSiblings(rt); err != nil {
				return Outcome{}, err
			}
			p.state = Done
			return Outcome{Done: true, Redraw: true, Rem: out.Rem}, nil
		}
		if out.Rem < minRem {
			minRem = out.Rem
		}
	}

	if p.policy == All && allDone {
		p.state = Done
		return Outcome{Done: true, Redraw: redraw, Rem: minRem}, nil
	}
	return Outcome{Redraw: redraw}, nil
}

func (p *Par) Stop(rt *Runtime) error {
	if p.state == Done {
		return nil
	}
	p.state = Done
	return p.stopSiblings(rt)
}

// stopSiblings stops every child that has not already completed naturally.
// Children already Done are never stopped again.
func (p *Par) stopSiblings(rt *Runtime) error {
	for _, c := range p.children {
		if err := stopIfLive(c, rt); err != nil {
			return err
		}
	}
	return nil
}
