package build

import (
	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/expr"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
)

func init() {
	Register("clock", buildClock)
	Register("function", buildFunction)
	Register("merge", buildMerge)
	Register("logger", buildLogger)
	Register("key_logger", buildKeyLogger)
	Register("event_logger", buildEventLogger)
	Register("reaction", buildReaction)
}

func buildClock(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	step := a.dur("step", true)
	onStart := a.boolean("on_start", false)
	out := a.line(b, "out", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewClock(path, step, onStart, out)
}

func buildFunction(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	src := a.str("formula", "")
	once := a.boolean("once", false)
	in := a.mapping(b, "in")
	out := a.line(b, "out", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	if src == "" {
		return nil, taskerr.New(taskerr.Config, path, "missing required field %q", "formula")
	}
	formula, err := expr.Parse(src, path)
	if err != nil {
		return nil, err
	}
	for _, v := range formula.Vars() {
		if _, bound := in[v]; !bound {
			return nil, taskerr.New(taskerr.Expression, path,
				"formula references %q, which is not in the binding table", v)
		}
	}
	return action.NewFunction(path, formula, once, in, out), nil
}

func buildMerge(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	in := a.lineList(b, "in", true)
	out := a.line(b, "out", true)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewMerge(path, in, out)
}

func buildLogger(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	group := a.str("group", "")
	in := a.mapping(b, "in")
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewLogger(path, group, in)
}

func buildKeyLogger(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	group := a.str("group", "")
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewKeyLogger(path, group), nil
}

func buildEventLogger(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	group := a.str("group", "")
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewEventLogger(path, group)
}

func buildReaction(b *Builder, n *taskdef.Node, path string) (action.Action, error) {
	a := newAttrs(n, path)
	times := a.durList("times", true)
	tol := a.dur("tolerance", true)
	group := a.str("group", "")
	outAccuracy := a.line(b, "out_accuracy", false)
	outRecall := a.line(b, "out_recall", false)
	outMeanRT := a.line(b, "out_mean_rt", false)
	if err := a.finish(); err != nil {
		return nil, err
	}
	return action.NewReaction(path, times, tol, group, outAccuracy, outRecall, outMeanRT)
}
