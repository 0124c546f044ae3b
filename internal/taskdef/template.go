package taskdef

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// expandTemplates splices every use node in every block tree with the body of
// the template it names. Use arguments are evaluated at splice time and bound
// as `param.<name>` in the evaluation scope of the spliced subtree, so the
// template body can reference them from any attribute expression.
func (t *Task) expandTemplates() error {
	for _, b := range t.Blocks {
		tree, err := t.expandNode(b.Tree, nil)
		if err != nil {
			return err
		}
		b.Tree = tree
	}
	return nil
}

// expandNode returns the node with all use descendants replaced. stack holds
// the chain of template names currently being expanded, to break cycles.
func (t *Task) expandNode(n *Node, stack []string) (*Node, error) {
	if n.Kind == "use" {
		return t.splice(n, stack)
	}
	out := &Node{
		Kind:  n.Kind,
		Label: n.Label,
		Attrs: n.Attrs,
		Ctx:   n.Ctx,
		Range: n.Range,
	}
	for _, child := range n.Children {
		expanded, err := t.expandNode(child, stack)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, expanded)
	}
	return out, nil
}

func (t *Task) splice(use *Node, stack []string) (*Node, error) {
	name := use.Label
	if name == "" {
		return nil, taskerr.New(taskerr.Config, "use", "use node requires a template name label")
	}
	tpl, ok := t.Templates[name]
	if !ok {
		return nil, taskerr.New(taskerr.Config, name, "template %q is not defined", name)
	}
	for _, frame := range stack {
		if frame == name {
			return nil, taskerr.New(taskerr.Config, name,
				"template %q expands itself, directly or through another template", name)
		}
	}
	if len(use.Children) > 0 {
		return nil, taskerr.New(taskerr.Config, name, "use node takes no children")
	}

	args, err := evalArgs(use, tpl)
	if err != nil {
		return nil, err
	}
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"param": cty.ObjectVal(args)},
	}

	body := tpl.Body.Clone()
	attachCtx(body, ctx)
	return t.expandNode(body, append(stack, name))
}

// evalArgs evaluates the use node's attributes against the node's own scope
// and checks them against the template's declared parameter list.
func evalArgs(use *Node, tpl *Template) (map[string]cty.Value, error) {
	declared := make(map[string]bool, len(tpl.Params))
	for _, p := range tpl.Params {
		declared[p] = true
	}
	args := make(map[string]cty.Value, len(use.Attrs))
	for name, attr := range use.Attrs {
		if !declared[name] {
			return nil, taskerr.New(taskerr.Config, tpl.Name,
				"template %q has no parameter %q", tpl.Name, name)
		}
		val, diags := attr.Expr.Value(use.Ctx)
		if diags.HasErrors() {
			return nil, taskerr.Wrap(taskerr.Config, tpl.Name, diags,
				"evaluate argument %q", name)
		}
		args[name] = val
	}
	for _, p := range tpl.Params {
		if _, ok := args[p]; !ok {
			return nil, taskerr.New(taskerr.Config, tpl.Name,
				"template %q requires parameter %q", tpl.Name, p)
		}
	}
	return args, nil
}

// attachCtx sets the evaluation scope on every node of a freshly cloned
// subtree. Nested use nodes keep it too, so their arguments can reference the
// outer template's parameters.
func attachCtx(n *Node, ctx *hcl.EvalContext) {
	n.Ctx = ctx
	for _, child := range n.Children {
		attachCtx(child, ctx)
	}
}
