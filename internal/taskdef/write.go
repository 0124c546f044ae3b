package taskdef

import (
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Write renders the task back to HCL. Templates are already spliced by the
// time a task exists, so the output holds expanded trees only; loading it
// again yields a structurally identical task.
func Write(t *Task) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	meta := root.AppendNewBlock("task", nil).Body()
	meta.SetAttributeValue("name", cty.StringVal(t.Name))
	meta.SetAttributeValue("version", cty.StringVal(t.Version))
	if t.Description != "" {
		meta.SetAttributeValue("description", cty.StringVal(t.Description))
	}

	for _, b := range t.Blocks {
		root.AppendNewline()
		body := root.AppendNewBlock("block", []string{b.Name}).Body()
		if b.InitSrc != "" {
			body.SetAttributeRaw("init", rawTokens(b.InitSrc))
		}
		tree := body.AppendNewBlock("tree", nil).Body()
		writeNode(tree, b.Tree)
	}
	return f.Bytes()
}

func writeNode(parent *hclwrite.Body, n *Node) {
	var labels []string
	if n.Label != "" {
		labels = []string{n.Label}
	}
	body := parent.AppendNewBlock(n.Kind, labels).Body()
	for _, name := range n.AttrNames() {
		body.SetAttributeRaw(name, rawTokens(n.Attrs[name].Src))
	}
	for _, child := range n.Children {
		writeNode(body, child)
	}
}

// rawTokens wraps captured expression source as a single opaque token, which
// hclwrite emits verbatim. The source came out of the parser so it is valid
// expression syntax.
func rawTokens(src string) hclwrite.Tokens {
	return hclwrite.Tokens{{Type: hclsyntax.TokenIdent, Bytes: []byte(src)}}
}
