package build

import (
	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
)

func init() {
	Register("instruction", buildInstruction)
	Register("fixation", buildFixation)
	Register("rect", buildRect)
	Register("image", buildImage)
	Register("pointer", buildPointer)
	Register("horizontal", buildHorizontal)
	Register("vertical", buildVertical)
}

func buildInstruction(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	text := a.str("text", "")
	d := a.dur("duration", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, taskerr.New(taskerr.Config, path, "missing required field %q", "text")
	}
	return action.NewInstruction(path, text, d)
}

func buildFixation(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	d := a.dur("duration", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewFixation(path, d)
}

func buildRect(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	width := a.num("width", 0)
	height := a.num("height", 0)
	color := a.str("color", "")
	d := a.dur("duration", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewRect(path, width, height, color, d)
}

func buildImage(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	src := a.str("src", "")
	width := a.num("width", 0)
	d := a.dur("duration", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	if src == "" {
		return nil, taskerr.New(taskerr.Config, path, "missing required field %q", "src")
	}
	return action.NewImage(path, src, width, d)
}

func buildPointer(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	group := a.str("group", "")
	until := a.str("until", "")
	width := a.num("width", 0)
	height := a.num("height", 0)
	outX := a.line(b, "out_x", false)
	outY := a.line(b, "out_y", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewPointer(path, group, until, width, height, outX, outY)
}

func buildHorizontal(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	return buildLayout(b, n, path, false)
}

func buildVertical(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	return buildLayout(b, n, path, true)
}

func buildLayout(b *Builder, n *taskdef.Node, path string, vertical bool) (action.Action, error) {
	a := newAttrs(n, path)
	weights := a.numList("weights")
	if err := a.finish(); err != nil {
		return nil, err
	}
	children, err := b.children(n, path)
	if err != nil {
		return nil, err
	}
	return action.NewLayout(path, vertical, weights, children)
}
