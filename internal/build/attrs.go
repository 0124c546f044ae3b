package build

import (
	"math"
	"sort"
	"time"

	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// attrs decodes a node's attributes one field at a time, tracking which names
// were consumed so finish can reject the leftovers. Decode errors stick to
// the helper; callers check err once via finish.
type attrs struct {
	node *taskdef.Node
	path string
	used map[string]bool
	err  error
}

func newAttrs(n *taskdef.Node, path string) *attrs {
	return &attrs{node: n, path: path, used: make(map[string]bool, len(n.Attrs))}
}

// finish reports the first decode error, or a ConfigError for any attribute
// no decoder consumed.
func (a *attrs) finish() error {
	if a.err != nil {
		return a.err
	}
	var unknown []string
	for name := range a.node.Attrs {
		if !a.used[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return taskerr.New(taskerr.Config, a.path, "unknown field %q", unknown[0])
	}
	return nil
}

func (a *attrs) fail(format string, args ...any) {
	if a.err == nil {
		a.err = taskerr.New(taskerr.Config, a.path, format, args...)
	}
}

// value evaluates the named attribute against the node's scope. ok is false
// when the attribute is absent or a previous decode already failed.
func (a *attrs) value(name string) (cty.Value, bool) {
	if a.err != nil {
		return cty.NilVal, false
	}
	attr, present := a.node.Attrs[name]
	if !present {
		return cty.NilVal, false
	}
	a.used[name] = true
	val, diags := attr.Expr.Value(a.node.Ctx)
	if diags.HasErrors() {
		a.err = taskerr.Wrap(taskerr.Config, a.path, diags, "evaluate %q", name)
		return cty.NilVal, false
	}
	return val, true
}

func (a *attrs) str(name, def string) string {
	val, ok := a.value(name)
	if !ok {
		return def
	}
	if val.Type() != cty.String {
		a.fail("%q must be a string", name)
		return def
	}
	return val.AsString()
}

func (a *attrs) boolean(name string, def bool) bool {
	val, ok := a.value(name)
	if !ok {
		return def
	}
	if val.Type() != cty.Bool {
		a.fail("%q must be a bool", name)
		return def
	}
	return val.True()
}

func (a *attrs) num(name string, def float64) float64 {
	val, ok := a.value(name)
	if !ok {
		return def
	}
	f, nok := a.float(name, val)
	if !nok {
		return def
	}
	return f
}

func (a *attrs) float(name string, val cty.Value) (float64, bool) {
	conv, err := convert.Convert(val, cty.Number)
	if err != nil {
		a.fail("%q must be a number", name)
		return 0, false
	}
	f, _ := conv.AsBigFloat().Float64()
	return f, true
}

// dur decodes a duration given in seconds. required distinguishes a missing
// field (ConfigError) from an absent optional one (zero).
func (a *attrs) dur(name string, required bool) time.Duration {
	val, ok := a.value(name)
	if !ok {
		if required && a.err == nil {
			a.fail("missing required field %q", name)
		}
		return 0
	}
	f, nok := a.float(name, val)
	if !nok {
		return 0
	}
	return seconds(f)
}

// line decodes a single store line id; 0 means absent when not required.
func (a *attrs) line(b *Builder, name string, required bool) store.Line {
	val, ok := a.value(name)
	if !ok {
		if required && a.err == nil {
			a.fail("missing required field %q", name)
		}
		return 0
	}
	l, lok := a.lineVal(name, val)
	if !lok {
		return 0
	}
	b.recordLine(l)
	return l
}

func (a *attrs) lineVal(name string, val cty.Value) (store.Line, bool) {
	f, ok := a.float(name, val)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxUint16 {
		a.fail("%q must be a positive line id, got %v", name, f)
		return 0, false
	}
	return store.Line(f), true
}

// lineList decodes an ordered list of line ids.
func (a *attrs) lineList(b *Builder, name string, required bool) []store.Line {
	val, ok := a.value(name)
	if !ok {
		if required && a.err == nil {
			a.fail("missing required field %q", name)
		}
		return nil
	}
	if !val.CanIterateElements() {
		a.fail("%q must be a list of line ids", name)
		return nil
	}
	var out []store.Line
	for it := val.ElementIterator(); it.Next(); {
		_, el := it.Element()
		l, lok := a.lineVal(name, el)
		if !lok {
			return nil
		}
		b.recordLine(l)
		out = append(out, l)
	}
	return out
}

// mapping decodes a role -> line binding table.
func (a *attrs) mapping(b *Builder, name string) map[string]store.Line {
	val, ok := a.value(name)
	if !ok {
		return nil
	}
	if !val.CanIterateElements() {
		a.fail("%q must map role names to line ids", name)
		return nil
	}
	out := make(map[string]store.Line)
	for it := val.ElementIterator(); it.Next(); {
		k, el := it.Element()
		if k.Type() != cty.String {
			a.fail("%q keys must be role names", name)
			return nil
		}
		l, lok := a.lineVal(name, el)
		if !lok {
			return nil
		}
		b.recordLine(l)
		out[k.AsString()] = l
	}
	return out
}

// durList decodes an ordered list of second offsets.
func (a *attrs) durList(name string, required bool) []time.Duration {
	val, ok := a.value(name)
	if !ok {
		if required && a.err == nil {
			a.fail("missing required field %q", name)
		}
		return nil
	}
	if !val.CanIterateElements() {
		a.fail("%q must be a list of seconds", name)
		return nil
	}
	var out []time.Duration
	for it := val.ElementIterator(); it.Next(); {
		_, el := it.Element()
		f, fok := a.float(name, el)
		if !fok {
			return nil
		}
		out = append(out, seconds(f))
	}
	return out
}

// numList decodes an ordered list of numbers.
func (a *attrs) numList(name string) []float64 {
	val, ok := a.value(name)
	if !ok {
		return nil
	}
	if !val.CanIterateElements() {
		a.fail("%q must be a list of numbers", name)
		return nil
	}
	var out []float64
	for it := val.ElementIterator(); it.Next(); {
		_, el := it.Element()
		f, fok := a.float(name, el)
		if !fok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
