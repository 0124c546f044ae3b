// Package build turns raw tree definitions into live action trees. Each node
// kind registers a build function in a package-level registry; the builder
// dispatches on kind, decodes attributes against the node's evaluation scope,
// and records every variable line it sees so the store can be sized before
// the run starts.
package build

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
)

// BuildFunc constructs the action for one node. path is the node's own
// diagnostic path.
type BuildFunc func(b *Builder, n *taskdef.Node, path string) (action.Action, error)

var kinds = map[string]BuildFunc{}

// Register adds a node kind to the registry. Called from init; a duplicate
// kind is a programming error.
func Register(kind string, fn BuildFunc) {
	if _, exists := kinds[kind]; exists {
		panic(fmt.Sprintf("build: node kind %q registered twice", kind))
	}
	kinds[kind] = fn
}

// Kinds returns the registered node kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builder builds one tree. It is not reusable across runs because it
// accumulates the line set of the tree it built.
type Builder struct {
	log   *slog.Logger
	lines map[store.Line]bool
}

func New(log *slog.Logger) *Builder {
	return &Builder{log: log, lines: make(map[store.Line]bool)}
}

// Build constructs the action tree rooted at n. The root's path is /<kind>.
func (b *Builder) Build(n *taskdef.Node) (action.Action, error) {
	return b.build(n, "/"+n.Kind)
}

func (b *Builder) build(n *taskdef.Node, path string) (action.Action, error) {
	fn, ok := kinds[n.Kind]
	if !ok {
		return nil, taskerr.New(taskerr.Config, path, "unknown node kind %q", n.Kind)
	}
	a, err := fn(b, n, path)
	if err != nil {
		return nil, err
	}
	b.log.Debug("built node", "path", path)
	return a, nil
}

// children builds every child of n in declaration order.
func (b *Builder) children(n *taskdef.Node, path string) ([]action.Action, error) {
	out := make([]action.Action, 0, len(n.Children))
	for i, child := range n.Children {
		a, err := b.build(child, childPath(path, child.Kind, i))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// factory wraps a child subtree as a lazy constructor. The subtree is built
// once eagerly so configuration errors and line declarations surface before
// the run starts; the probe instance is discarded.
func (b *Builder) factory(n *taskdef.Node, path string) (action.Factory, error) {
	if _, err := b.build(n, path); err != nil {
		return nil, err
	}
	return func() (action.Action, error) {
		return b.build(n, path)
	}, nil
}

// Lines returns every variable line referenced by the built tree, sorted.
func (b *Builder) Lines() []store.Line {
	out := make([]store.Line, 0, len(b.lines))
	for l := range b.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *Builder) recordLine(l store.Line) {
	if l != 0 {
		b.lines[l] = true
	}
}

func childPath(parent, kind string, idx int) string {
	return fmt.Sprintf("%s/%s[%d]", parent, kind, idx)
}
