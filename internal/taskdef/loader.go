package taskdef

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stimweave/stimweave/internal/fsutil"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Load parses every .hcl file under path (a single file or a directory),
// merges the pieces into one Task, expands templates, and validates. The
// returned task is ready for the builder.
func Load(path string) (*Task, error) {
	files, err := findTaskFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, taskerr.New(taskerr.Config, path, "no .hcl task files found")
	}

	task := &Task{Templates: make(map[string]*Template)}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, taskerr.Wrap(taskerr.IO, file, err, "read task file")
		}
		if err := parseInto(task, file, src); err != nil {
			return nil, err
		}
	}
	return finish(task)
}

// LoadBytes parses a single in-memory definition. Tests and the round-trip
// path use it.
func LoadBytes(filename string, src []byte) (*Task, error) {
	task := &Task{Templates: make(map[string]*Template)}
	if err := parseInto(task, filename, src); err != nil {
		return nil, err
	}
	return finish(task)
}

func finish(task *Task) (*Task, error) {
	if err := task.expandTemplates(); err != nil {
		return nil, err
	}
	if err := task.validate(); err != nil {
		return nil, err
	}
	return task, nil
}

func findTaskFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, taskerr.Wrap(taskerr.IO, path, err, "access task path")
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, taskerr.Wrap(taskerr.IO, path, err, "walk task directory")
	}
	return files, nil
}

func parseInto(task *Task, filename string, src []byte) error {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return taskerr.Wrap(taskerr.Config, filename, diags, "parse task file")
	}
	body := file.Body.(*hclsyntax.Body)

	if len(body.Attributes) > 0 {
		for name := range body.Attributes {
			return taskerr.New(taskerr.Config, filename, "unexpected top-level attribute %q", name)
		}
	}

	for _, block := range body.Blocks {
		switch block.Type {
		case "task":
			if err := parseTaskMeta(task, block, src); err != nil {
				return err
			}
		case "template":
			tpl, err := parseTemplate(block, src)
			if err != nil {
				return err
			}
			if _, exists := task.Templates[tpl.Name]; exists {
				return taskerr.New(taskerr.Config, filename, "template %q defined twice", tpl.Name)
			}
			task.Templates[tpl.Name] = tpl
		case "block":
			b, err := parseBlockDef(block, src)
			if err != nil {
				return err
			}
			task.Blocks = append(task.Blocks, b)
		default:
			return taskerr.New(taskerr.Config, filename, "unknown top-level block %q", block.Type)
		}
	}
	return nil
}

func parseTaskMeta(task *Task, block *hclsyntax.Block, src []byte) error {
	for name, attr := range block.Body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return taskerr.Wrap(taskerr.Config, "task", diags, "evaluate %q", name)
		}
		if val.Type() != cty.String {
			return taskerr.New(taskerr.Config, "task", "%q must be a string", name)
		}
		switch name {
		case "name":
			task.Name = val.AsString()
		case "version":
			task.Version = val.AsString()
		case "description":
			task.Description = val.AsString()
		default:
			return taskerr.New(taskerr.Config, "task", "unknown field %q", name)
		}
	}
	if len(block.Body.Blocks) > 0 {
		return taskerr.New(taskerr.Config, "task", "task block takes no nested blocks")
	}
	return nil
}

func parseTemplate(block *hclsyntax.Block, src []byte) (*Template, error) {
	if len(block.Labels) != 1 || block.Labels[0] == "" {
		return nil, taskerr.New(taskerr.Config, "template", "template requires a name label")
	}
	tpl := &Template{Name: block.Labels[0]}

	for name, attr := range block.Body.Attributes {
		if name != "params" {
			return nil, taskerr.New(taskerr.Config, tpl.Name, "unknown template field %q", name)
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, taskerr.Wrap(taskerr.Config, tpl.Name, diags, "evaluate params")
		}
		if !val.CanIterateElements() {
			return nil, taskerr.New(taskerr.Config, tpl.Name, "params must be a list of names")
		}
		for it := val.ElementIterator(); it.Next(); {
			_, p := it.Element()
			if p.Type() != cty.String {
				return nil, taskerr.New(taskerr.Config, tpl.Name, "params must be strings")
			}
			tpl.Params = append(tpl.Params, p.AsString())
		}
	}

	body, err := singleTree(block.Body, src, "template "+tpl.Name)
	if err != nil {
		return nil, err
	}
	tpl.Body = body
	return tpl, nil
}

func parseBlockDef(block *hclsyntax.Block, src []byte) (*Block, error) {
	if len(block.Labels) != 1 || block.Labels[0] == "" {
		return nil, taskerr.New(taskerr.Config, "block", "block requires a name label")
	}
	b := &Block{Name: block.Labels[0]}

	for name, attr := range block.Body.Attributes {
		if name != "init" {
			return nil, taskerr.New(taskerr.Config, b.Name, "unknown block field %q", name)
		}
		init, err := parseInit(attr.Expr, b.Name)
		if err != nil {
			return nil, err
		}
		b.Init = init
		b.InitSrc = exprSource(attr.Expr, src)
	}

	tree, err := singleTree(block.Body, src, "block "+b.Name)
	if err != nil {
		return nil, err
	}
	b.Tree = tree
	return b, nil
}

// parseInit evaluates the initial variable snapshot: an object whose keys are
// line identifiers.
func parseInit(expr hcl.Expression, blockName string) (map[store.Line]cty.Value, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, taskerr.Wrap(taskerr.Config, blockName, diags, "evaluate init")
	}
	if !val.CanIterateElements() {
		return nil, taskerr.New(taskerr.Config, blockName, "init must map line ids to values")
	}
	init := make(map[store.Line]cty.Value)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if k.Type() != cty.String {
			return nil, taskerr.New(taskerr.Config, blockName, "init keys must be line ids")
		}
		id, err := strconv.ParseUint(k.AsString(), 10, 16)
		if err != nil || id == 0 {
			return nil, taskerr.New(taskerr.Config, blockName, "init key %q is not a valid line id", k.AsString())
		}
		init[store.Line(id)] = v
	}
	return init, nil
}

// singleTree finds the mandatory `tree { ... }` wrapper holding exactly one
// root node.
func singleTree(body *hclsyntax.Body, src []byte, owner string) (*Node, error) {
	var tree *hclsyntax.Block
	for _, blk := range body.Blocks {
		if blk.Type != "tree" {
			return nil, taskerr.New(taskerr.Config, owner, "unexpected nested block %q", blk.Type)
		}
		if tree != nil {
			return nil, taskerr.New(taskerr.Config, owner, "more than one tree block")
		}
		tree = blk
	}
	if tree == nil {
		return nil, taskerr.New(taskerr.Config, owner, "missing tree block")
	}
	if len(tree.Body.Attributes) > 0 {
		return nil, taskerr.New(taskerr.Config, owner, "tree block takes no attributes")
	}
	if len(tree.Body.Blocks) != 1 {
		return nil, taskerr.New(taskerr.Config, owner,
			"tree block must hold exactly one root node, found %d", len(tree.Body.Blocks))
	}
	return parseNode(tree.Body.Blocks[0], src), nil
}

// parseNode converts an HCL block into a raw node, recursively. Attribute
// expressions stay unevaluated so template parameters can bind later.
func parseNode(block *hclsyntax.Block, src []byte) *Node {
	n := &Node{
		Kind:  block.Type,
		Attrs: make(map[string]*Attr, len(block.Body.Attributes)),
		Range: block.DefRange(),
	}
	if len(block.Labels) > 0 {
		n.Label = block.Labels[0]
	}
	for name, attr := range block.Body.Attributes {
		n.Attrs[name] = &Attr{Expr: attr.Expr, Src: exprSource(attr.Expr, src)}
	}
	for _, child := range block.Body.Blocks {
		n.Children = append(n.Children, parseNode(child, src))
	}
	return n
}

func exprSource(expr hcl.Expression, src []byte) string {
	rng := expr.Range()
	if rng.Start.Byte < 0 || rng.End.Byte > len(src) {
		return fmt.Sprintf("<%s>", rng)
	}
	return string(src[rng.Start.Byte:rng.End.Byte])
}
