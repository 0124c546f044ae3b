// Package taskdef loads task definitions from HCL: task metadata, reusable
// templates, and per-block action trees. The tree grammar is nested HCL
// blocks: one block type per node kind, children in declaration order, and
// configuration as attributes. Template expansion happens here, as a
// preprocessing pass over the raw tree, before any Run exists.
package taskdef

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Node is one raw tree node as parsed: its kind, optional label, attribute
// expressions (kept unevaluated so template parameters can bind late), and
// ordered children.
type Node struct {
	Kind     string
	Label    string
	Attrs    map[string]*Attr
	Children []*Node

	// Ctx is the evaluation scope attached during template expansion; nil
	// outside templates. Attribute expressions are evaluated against it.
	Ctx *hcl.EvalContext

	// Range is where the node was declared, for error reporting.
	Range hcl.Range
}

// Attr is one attribute: the parsed expression plus its source text, which
// serialization writes back verbatim.
type Attr struct {
	Expr hcl.Expression
	Src  string
}

// AttrNames returns the node's attribute names in sorted order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the node structure. Attribute expressions are shared;
// they are immutable after parse.
func (n *Node) Clone() *Node {
	c := &Node{
		Kind:  n.Kind,
		Label: n.Label,
		Attrs: make(map[string]*Attr, len(n.Attrs)),
		Ctx:   n.Ctx,
		Range: n.Range,
	}
	for name, a := range n.Attrs {
		c.Attrs[name] = a
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Dump renders the node as a canonical indented text form: sorted attributes,
// children in order. Two trees are structurally identical exactly when their
// dumps are equal, which is what the round-trip tests compare.
func (n *Node) Dump() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString(n.Kind)
	if n.Label != "" {
		fmt.Fprintf(b, " %q", n.Label)
	}
	b.WriteString(" {\n")
	for _, name := range n.AttrNames() {
		fmt.Fprintf(b, "%s  %s = %s\n", indent, name, strings.Join(strings.Fields(n.Attrs[name].Src), " "))
	}
	for _, child := range n.Children {
		child.dump(b, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("}\n")
}

// Equal reports structural identity with another node.
func (n *Node) Equal(other *Node) bool {
	return n.Dump() == other.Dump()
}
