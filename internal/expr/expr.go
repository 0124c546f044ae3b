// Package expr implements the expression evaluator for function nodes: small
// arithmetic/boolean formulas in HCL native expression syntax, evaluated over
// variables bound to store lines.
//
// The evaluator is stateless. A formula is parsed once at build time; every
// evaluation receives a fresh variable table assembled from the node's
// in-mapping. The function table is fixed and small on purpose; this is not
// a scripting language.
package expr

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions is the closed set of callables available inside formulas.
var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"min":    stdlib.MinFunc,
	"max":    stdlib.MaxFunc,
	"pow":    stdlib.PowFunc,
	"log":    stdlib.LogFunc,
	"signum": stdlib.SignumFunc,
	"strlen": stdlib.StrlenFunc,
	"int":    stdlib.IntFunc,
}

// Expr is a parsed formula.
type Expr struct {
	src    string
	parsed hclsyntax.Expression
	vars   []string
}

// Parse compiles a formula. A syntax error is an ExpressionError carrying the
// node path of the owning function node.
func Parse(src, path string) (*Expr, error) {
	parsed, diags := hclsyntax.ParseExpression([]byte(src), path, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, taskerr.Wrap(taskerr.Expression, path, diags, "parse %q", src)
	}

	seen := make(map[string]bool)
	var vars []string
	for _, tr := range parsed.Variables() {
		name := tr.RootName()
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}

	return &Expr{src: src, parsed: parsed, vars: vars}, nil
}

// Source returns the formula text.
func (e *Expr) Source() string {
	return e.src
}

// Vars returns the distinct variable names referenced by the formula, in
// first-reference order.
func (e *Expr) Vars() []string {
	return e.vars
}

// Eval evaluates the formula against the given variable table. A reference to
// a variable missing from the table, or any type mismatch reported by the
// expression engine, is an ExpressionError.
func (e *Expr) Eval(vars map[string]cty.Value, path string) (cty.Value, error) {
	for _, name := range e.vars {
		if _, ok := vars[name]; !ok {
			return cty.NilVal, taskerr.New(taskerr.Expression, path,
				"formula %q references undefined variable %q", e.src, name)
		}
	}

	ectx := &hcl.EvalContext{
		Variables: vars,
		Functions: functions,
	}
	val, diags := e.parsed.Value(ectx)
	if diags.HasErrors() {
		return cty.NilVal, taskerr.Wrap(taskerr.Expression, path, diags, "evaluate %q", e.src)
	}
	if !val.IsKnown() || val.IsNull() {
		return cty.NilVal, taskerr.New(taskerr.Expression, path,
			"formula %q produced no usable value", e.src)
	}
	return val, nil
}
