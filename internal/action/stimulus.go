package action

import (
	"os"
	"time"

	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/taskerr"
)

// stimulus is the shared body of presenting leaves: show a frame at start,
// optionally complete after a fixed duration, clear the frame on the way out.
// A zero duration means "until stopped by an ancestor".
type stimulus struct {
	base
	frame   render.Frame
	dur     time.Duration
	elapsed time.Duration
}

func (s *stimulus) Start(rt *Runtime) error {
	s.state = Active
	if err := rt.Renderer.Render(s.frame); err != nil {
		return taskerr.Wrap(taskerr.IO, s.path, err, "present frame")
	}
	return nil
}

func (s *stimulus) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if s.state != Active {
		return Outcome{Done: s.state == Done, Rem: t.Delta}, nil
	}
	if s.dur == 0 {
		return Outcome{}, nil
	}
	s.elapsed += t.Delta
	if s.elapsed < s.dur {
		return Outcome{}, nil
	}
	s.state = Done
	if err := rt.Renderer.Clear(s.path); err != nil {
		return Outcome{}, taskerr.Wrap(taskerr.IO, s.path, err, "clear frame")
	}
	return Outcome{Done: true, Redraw: true, Rem: s.elapsed - s.dur}, nil
}

func (s *stimulus) Stop(rt *Runtime) error {
	if s.state == Done {
		return nil
	}
	s.state = Done
	return rt.Renderer.Clear(s.path)
}

// Instruction presents a text page, optionally for a fixed duration.
type Instruction struct {
	stimulus
}

// NewInstruction creates an instruction node. dur of zero holds the text
// until an ancestor terminates the node.
func NewInstruction(path, text string, dur time.Duration) (*Instruction, error) {
	if dur < 0 {
		return nil, taskerr.New(taskerr.Timing, path, "instruction duration cannot be negative, got %v", dur)
	}
	if text == "" {
		return nil, taskerr.New(taskerr.Config, path, "instruction text cannot be empty")
	}
	return &Instruction{stimulus{
		base:  base{path: path},
		frame: render.Frame{Node: path, Kind: "instruction", Text: text, Hold: dur},
		dur:   dur,
	}}, nil
}

// Fixation presents a central fixation cross.
type Fixation struct {
	stimulus
}

// NewFixation creates a fixation node.
func NewFixation(path string, dur time.Duration) (*Fixation, error) {
	if dur < 0 {
		return nil, taskerr.New(taskerr.Timing, path, "fixation duration cannot be negative, got %v", dur)
	}
	return &Fixation{stimulus{
		base:  base{path: path},
		frame: render.Frame{Node: path, Kind: "fixation", Text: "+", Hold: dur},
		dur:   dur,
	}}, nil
}

// Rect presents a filled rectangle.
type Rect struct {
	stimulus
}

// NewRect creates a rect node.
func NewRect(path string, width, height float64, color string, dur time.Duration) (*Rect, error) {
	if width <= 0 || height <= 0 {
		return nil, taskerr.New(taskerr.Config, path, "rect dimensions must be positive, got %gx%g", width, height)
	}
	if dur < 0 {
		return nil, taskerr.New(taskerr.Timing, path, "rect duration cannot be negative, got %v", dur)
	}
	return &Rect{stimulus{
		base: base{path: path},
		frame: render.Frame{
			Node: path, Kind: "rect",
			Color: color, Width: width, Height: height, Hold: dur,
		},
		dur: dur,
	}}, nil
}

// Image presents an image asset. The asset's existence is checked at first
// use, not at build time, matching the external-asset contract.
type Image struct {
	stimulus
	src string
}

// NewImage creates an image node for the asset at src.
func NewImage(path, src string, width float64, dur time.Duration) (*Image, error) {
	if src == "" {
		return nil, taskerr.New(taskerr.Config, path, "image src cannot be empty")
	}
	if dur < 0 {
		return nil, taskerr.New(taskerr.Timing, path, "image duration cannot be negative, got %v", dur)
	}
	return &Image{
		stimulus: stimulus{
			base:  base{path: path},
			frame: render.Frame{Node: path, Kind: "image", Asset: src, Width: width, Hold: dur},
			dur:   dur,
		},
		src: src,
	}, nil
}

func (i *Image) Start(rt *Runtime) error {
	if _, err := os.Stat(i.src); err != nil {
		return taskerr.Wrap(taskerr.IO, i.path, err, "image asset %q", i.src)
	}
	return i.stimulus.Start(rt)
}
