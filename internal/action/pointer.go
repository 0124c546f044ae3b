package action

import (
	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Pointer termination modes.
const (
	PointerUntilClick = "click" // any button press in the group
	PointerUntilHit   = "hit"   // button press inside the target bounds
	PointerUntilMove  = "move"  // any motion sample in the group
	PointerUntilNone  = ""      // never completes on its own
)

// Pointer presents a target surface and consumes pointer events from its
// group, optionally writing coordinates to output lines and completing per
// its until mode.
type Pointer struct {
	base
	group  string
	until  string
	width  float64
	height float64
	outX   store.Line
	outY   store.Line
}

// NewPointer creates a pointer node. Bounds are required for hit mode only.
func NewPointer(path, group, until string, width, height float64, outX, outY store.Line) (*Pointer, error) {
	if group == "" {
		group = "pointer"
	}
	switch until {
	case PointerUntilClick, PointerUntilHit, PointerUntilMove, PointerUntilNone:
	default:
		return nil, taskerr.New(taskerr.Config, path, "unknown pointer until mode %q", until)
	}
	if until == PointerUntilHit && (width <= 0 || height <= 0) {
		return nil, taskerr.New(taskerr.Config, path, "pointer hit mode requires positive bounds, got %gx%g", width, height)
	}
	return &Pointer{
		base:  base{path: path},
		group: group, until: until,
		width: width, height: height,
		outX: outX, outY: outY,
	}, nil
}

func (p *Pointer) Start(rt *Runtime) error {
	p.state = Active
	err := rt.Renderer.Render(render.Frame{
		Node: p.path, Kind: "pointer",
		Width: p.width, Height: p.height,
	})
	if err != nil {
		return taskerr.Wrap(taskerr.IO, p.path, err, "present target")
	}
	return nil
}

func (p *Pointer) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if p.state != Active {
		return Outcome{Done: p.state == Done, Rem: t.Delta}, nil
	}
	for _, ev := range t.Events {
		if ev.Group != p.group {
			continue
		}
		x, y, ok := pointerCoords(ev)
		if !ok {
			continue
		}
		if err := p.writeCoords(rt, x, y); err != nil {
			return Outcome{}, err
		}
		if p.triggered(ev, x, y) {
			p.state = Done
			if err := rt.Renderer.Clear(p.path); err != nil {
				return Outcome{}, taskerr.Wrap(taskerr.IO, p.path, err, "clear target")
			}
			return Outcome{Done: true, Redraw: true}, nil
		}
	}
	return Outcome{}, nil
}

func (p *Pointer) Stop(rt *Runtime) error {
	if p.state == Done {
		return nil
	}
	p.state = Done
	return rt.Renderer.Clear(p.path)
}

func (p *Pointer) triggered(ev event.Event, x, y float64) bool {
	switch p.until {
	case PointerUntilClick:
		return ev.Kind == event.PointerDown
	case PointerUntilHit:
		return ev.Kind == event.PointerDown &&
			x >= 0 && x <= p.width && y >= 0 && y <= p.height
	case PointerUntilMove:
		return ev.Kind == event.PointerMove
	default:
		return false
	}
}

func (p *Pointer) writeCoords(rt *Runtime, x, y float64) error {
	coords := []struct {
		line store.Line
		val  float64
	}{{p.outX, x}, {p.outY, y}}
	for _, c := range coords {
		if c.line == 0 {
			continue
		}
		if err := rt.Store.Write(c.line, cty.NumberFloatVal(c.val)); err != nil {
			return taskerr.Wrap(taskerr.Variable, p.path, err, "write coordinate")
		}
	}
	return nil
}

func pointerCoords(ev event.Event) (float64, float64, bool) {
	if ev.Kind != event.PointerDown && ev.Kind != event.PointerMove {
		return 0, 0, false
	}
	pl := ev.Payload
	if pl == cty.NilVal || !pl.Type().IsObjectType() || !pl.Type().HasAttribute("x") || !pl.Type().HasAttribute("y") {
		return 0, 0, false
	}
	x, _ := pl.GetAttr("x").AsBigFloat().Float64()
	y, _ := pl.GetAttr("y").AsBigFloat().Float64()
	return x, y, true
}
