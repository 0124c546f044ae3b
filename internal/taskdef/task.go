package taskdef

import (
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Task is one complete definition: metadata plus the blocks an operator can
// run, in declaration order.
type Task struct {
	Name        string
	Version     string
	Description string
	Blocks      []*Block
	Templates   map[string]*Template
}

// Block is an immutable tree definition plus an optional initial variable
// snapshot. Each Run instantiates it afresh.
type Block struct {
	Name    string
	Init    map[store.Line]cty.Value
	InitSrc string
	Tree    *Node
}

// Template is a reusable parameterized subtree, spliced in by use nodes
// before any Run exists.
type Template struct {
	Name   string
	Params []string
	Body   *Node
}

// Title combines task name and version the way the operator sees it.
func (t *Task) Title() string {
	return t.Name + " (" + t.Version + ")"
}

// Block returns the named block.
func (t *Task) Block(name string) (*Block, bool) {
	for _, b := range t.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// validate checks task-level constraints: required metadata and unique block
// names within the task.
func (t *Task) validate() error {
	if t.Name == "" {
		return taskerr.New(taskerr.Config, "", "task name is required")
	}
	if t.Version == "" {
		return taskerr.New(taskerr.Config, "", "task version is required")
	}
	if len(t.Blocks) == 0 {
		return taskerr.New(taskerr.Config, t.Name, "task defines no blocks")
	}
	seen := make(map[string]bool, len(t.Blocks))
	for _, b := range t.Blocks {
		if b.Name == "" {
			return taskerr.New(taskerr.Config, t.Name, "block name is required")
		}
		if seen[b.Name] {
			return taskerr.New(taskerr.Config, t.Name,
				"block names have to be unique within a task: %q is repeated", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}
