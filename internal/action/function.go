package action

import (
	"sort"

	"github.com/stimweave/stimweave/internal/expr"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Function evaluates a formula over variables bound to store lines and writes
// the result to its output line.
//
// With once set it evaluates exactly one time at start and completes.
// Otherwise it re-evaluates on every tick where at least one input line is
// dirty, and never completes on its own. Because dirty flags last only for
// the tick of the write, a reactive function must be declared after its
// producers among par siblings to observe their writes.
type Function struct {
	base
	formula *expr.Expr
	once    bool
	in      map[string]store.Line
	inOrder []string
	out     store.Line
}

// NewFunction creates a function node from an already parsed formula.
func NewFunction(path string, formula *expr.Expr, once bool, in map[string]store.Line, out store.Line) *Function {
	order := make([]string, 0, len(in))
	for role := range in {
		order = append(order, role)
	}
	sort.Strings(order)
	return &Function{
		base:    base{path: path},
		formula: formula,
		once:    once,
		in:      in,
		inOrder: order,
		out:     out,
	}
}

func (f *Function) Start(rt *Runtime) error {
	f.state = Active
	if f.once {
		if err := f.eval(rt); err != nil {
			return err
		}
		f.state = Done
	}
	return nil
}

func (f *Function) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if f.state != Active {
		return Outcome{Done: f.state == Done, Rem: t.Delta}, nil
	}
	dirty := false
	for _, role := range f.inOrder {
		if rt.Store.Dirty(f.in[role]) {
			dirty = true
			break
		}
	}
	if dirty {
		if err := f.eval(rt); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{}, nil
}

func (f *Function) Stop(rt *Runtime) error {
	f.state = Done
	return nil
}

func (f *Function) eval(rt *Runtime) error {
	vars := make(map[string]cty.Value, len(f.in))
	for _, role := range f.inOrder {
		v, ok := rt.Store.Read(f.in[role])
		if !ok {
			return taskerr.New(taskerr.Expression, f.path,
				"input %q (line %d) is unbound", role, f.in[role])
		}
		vars[role] = v
	}
	val, err := f.formula.Eval(vars, f.path)
	if err != nil {
		return err
	}
	if err := rt.Store.Write(f.out, val); err != nil {
		return taskerr.Wrap(taskerr.Variable, f.path, err, "write result")
	}
	return nil
}
