package build

import (
	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
)

func init() {
	Register("nil", buildNil)
	Register("wait", buildWait)
	Register("seq", buildSeq)
	Register("par", buildPar)
	Register("repeat", buildRepeat)
	Register("until", buildUntil)
	Register("switch", buildSwitch)
	Register("timeout", buildTimeout)
	Register("delayed", buildDelayed)
}

// oneChild enforces the single-child shape shared by the wrapper kinds.
func oneChild(n *taskdef.Node, path string) (*taskdef.Node, error) {
	if len(n.Children) != 1 {
		return nil, taskerr.New(taskerr.Config, path,
			"%s takes exactly one child, found %d", n.Kind, len(n.Children))
	}
	return n.Children[0], nil
}

func buildNil(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	if err := newAttrs(n, path).finish(); err != nil {
		return nil, err
	}
	if len(n.Children) > 0 {
		return nil, taskerr.New(taskerr.Config, path, "nil takes no children")
	}
	return action.NewNil(path), nil
}

func buildWait(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	d := a.dur("duration", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewWait(path, d)
}

func buildSeq(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	if err := newAttrs(n, path).finish(); err != nil {
		return nil, err
	}
	children, err := b.children(n, path)
	if err != nil {
		return nil, err
	}
	return action.NewSeq(path, children)
}

func buildPar(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	policy := a.str("policy", "all")
	if err := a.finish(); err != nil {
		return nil, err
	}
	var p action.Policy
	switch policy {
	case "all":
		p = action.All
	case "any":
		p = action.Any
	default:
		return nil, taskerr.New(taskerr.Config, path, "unknown par policy %q", policy)
	}
	children, err := b.children(n, path)
	if err != nil {
		return nil, err
	}
	return action.NewPar(path, p, children)
}

func buildRepeat(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	if err := newAttrs(n, path).finish(); err != nil {
		return nil, err
	}
	inner, err := oneChild(n, path)
	if err != nil {
		return nil, err
	}
	fac, err := b.factory(inner, childPath(path, inner.Kind, 0))
	if err != nil {
		return nil, err
	}
	return action.NewRepeat(path, fac)
}

func buildUntil(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	group := a.str("event", "")
	line := a.line(b, "line", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	if (group == "") == (line == 0) {
		return nil, taskerr.New(taskerr.Config, path,
			"until requires exactly one of \"event\" or \"line\"")
	}
	node, err := oneChild(n, path)
	if err != nil {
		return nil, err
	}
	inner, err := b.build(node, childPath(path, node.Kind, 0))
	if err != nil {
		return nil, err
	}
	if group != "" {
		return action.NewUntilEvent(path, group, inner)
	}
	return action.NewUntilLine(path, line, inner), nil
}

// buildSwitch reads the two branches from nested if_true / if_false blocks,
// each holding one node. Either branch may be omitted.
func buildSwitch(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	control := a.line(b, "control", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	var ifTrue, ifFalse action.Factory
	for _, branch := range n.Children {
		switch branch.Kind {
		case "if_true", "if_false":
		default:
			return nil, taskerr.New(taskerr.Config, path,
				"switch children must be if_true or if_false blocks, found %q", branch.Kind)
		}
		if len(branch.Attrs) > 0 {
			return nil, taskerr.New(taskerr.Config, path,
				"%s branch takes no attributes", branch.Kind)
		}
		node, err := oneChild(branch, path+"/"+branch.Kind)
		if err != nil {
			return nil, err
		}
		fac, err := b.factory(node, childPath(path+"/"+branch.Kind, node.Kind, 0))
		if err != nil {
			return nil, err
		}
		if branch.Kind == "if_true" {
			if ifTrue != nil {
				return nil, taskerr.New(taskerr.Config, path, "duplicate if_true branch")
			}
			ifTrue = fac
		} else {
			if ifFalse != nil {
				return nil, taskerr.New(taskerr.Config, path, "duplicate if_false branch")
			}
			ifFalse = fac
		}
	}
	return action.NewSwitch(path, control, ifTrue, ifFalse), nil
}

func buildTimeout(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	d := a.dur("duration", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	node, err := oneChild(n, path)
	if err != nil {
		return nil, err
	}
	child, err := b.build(node, childPath(path, node.Kind, 0))
	if err != nil {
		return nil, err
	}
	return action.NewTimeout(path, d, child)
}

func buildDelayed(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	d := a.dur("duration", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	node, err := oneChild(n, path)
	if err != nil {
		return nil, err
	}
	child, err := b.build(node, childPath(path, node.Kind, 0))
	if err != nil {
		return nil, err
	}
	return action.NewDelayed(path, d, child)
}
