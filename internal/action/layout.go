package action

import (
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/taskerr"
)

// Layout presents its children in a spatial arrangement, horizontal or
// vertical, with relative sizing weights. Lifecycle follows par-all
// semantics: all children start at entry and the wrapper completes when every
// child has.
type Layout struct {
	base
	vertical bool
	weights  []float64
	children []Action
}

// NewLayout creates a horizontal or vertical layout node. weights may be nil
// for equal sizing; otherwise it must match the child count with positive
// entries.
func NewLayout(path string, vertical bool, weights []float64, children []Action) (*Layout, error) {
	if len(children) == 0 {
		return nil, taskerr.New(taskerr.Config, path, "layout requires at least one child")
	}
	if weights != nil {
		if len(weights) != len(children) {
			return nil, taskerr.New(taskerr.Config, path,
				"layout has %d children but %d weights", len(children), len(weights))
		}
		for i, w := range weights {
			if w <= 0 {
				return nil, taskerr.New(taskerr.Config, path, "layout weight %d must be positive, got %g", i, w)
			}
		}
	}
	return &Layout{base: base{path: path}, vertical: vertical, weights: weights, children: children}, nil
}

func (l *Layout) Start(rt *Runtime) error {
	l.state = Active

	kind := "horizontal"
	if l.vertical {
		kind = "vertical"
	}
	slots := make([]render.Frame, len(l.children))
	for i, c := range l.children {
		slots[i] = render.Frame{Node: c.Path()}
	}
	err := rt.Renderer.Render(render.Frame{
		Node: l.path, Kind: kind,
		Children: slots, Weights: l.weights, Vertical: l.vertical,
	})
	if err != nil {
		return taskerr.Wrap(taskerr.IO, l.path, err, "present layout")
	}

	for _, c := range l.children {
		if err := c.Start(rt); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layout) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if l.state != Active {
		return Outcome{Done: l.state == Done, Rem: t.Delta}, nil
	}
	redraw := false
	allDone := true
	minRem := t.Delta
	for _, c := range l.children {
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
		if out.Rem < minRem {
			minRem = out.Rem
		}
	}
	if !allDone {
		return Outcome{Redraw: redraw}, nil
	}
	l.state = Done
	if err := rt.Renderer.Clear(l.path); err != nil {
		return Outcome{}, taskerr.Wrap(taskerr.IO, l.path, err, "clear layout")
	}
	return Outcome{Done: true, Redraw: true, Rem: minRem}, nil
}

func (l *Layout) Stop(rt *Runtime) error {
	if l.state == Done {
		return nil
	}
	l.state = Done
	for _, c := range l.children {
		if err := stopIfLive(c, rt); err != nil {
			return err
		}
	}
	return rt.Renderer.Clear(l.path)
}
