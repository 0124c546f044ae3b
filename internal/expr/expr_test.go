package expr

import (
	"testing"

	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func num(f float64) cty.Value { return cty.NumberFloatVal(f) }

func evalNum(t *testing.T, src string, vars map[string]cty.Value) float64 {
	t.Helper()
	e, err := Parse(src, "/function")
	require.NoError(t, err)
	v, err := e.Eval(vars, "/function")
	require.NoError(t, err)
	got, _ := v.AsBigFloat().Float64()
	return got
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	cases := []struct {
		src  string
		vars map[string]cty.Value
		want float64
	}{
		{"1 + 2 * 3", nil, 7},
		{"(n + 1) / 2", map[string]cty.Value{"n": num(5)}, 3},
		{"n % 4", map[string]cty.Value{"n": num(10)}, 2},
		{"-n", map[string]cty.Value{"n": num(3)}, -3},
		{"pow(n, 2)", map[string]cty.Value{"n": num(4)}, 16},
		{"abs(n)", map[string]cty.Value{"n": num(-2.5)}, 2.5},
		{"max(a, b)", map[string]cty.Value{"a": num(1), "b": num(9)}, 9},
		{"floor(n)", map[string]cty.Value{"n": num(2.9)}, 2},
		{"signum(n)", map[string]cty.Value{"n": num(-7)}, -1},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, evalNum(t, tc.src, tc.vars), 1e-9, "src=%s", tc.src)
	}
}

func TestEvalBooleanResult(t *testing.T) {
	e, err := Parse("n > 3 && n < 10", "/function")
	require.NoError(t, err)
	v, err := e.Eval(map[string]cty.Value{"n": num(5)}, "/function")
	require.NoError(t, err)
	require.True(t, v.True())
}

func TestParseFailureIsExpressionError(t *testing.T) {
	_, err := Parse("1 +", "/function")
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Expression))
}

func TestUndefinedVariableIsExpressionError(t *testing.T) {
	e, err := Parse("n + m", "/function")
	require.NoError(t, err)
	_, err = e.Eval(map[string]cty.Value{"n": num(1)}, "/function")
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Expression))
}

func TestTypeMismatchIsExpressionError(t *testing.T) {
	e, err := Parse("n + 1", "/function")
	require.NoError(t, err)
	_, err = e.Eval(map[string]cty.Value{"n": cty.StringVal("not a number")}, "/function")
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Expression))
}

func TestUnknownFunctionFailsEval(t *testing.T) {
	e, err := Parse("sqrt(4)", "/function")
	require.NoError(t, err, "call syntax parses; the closed table rejects at eval")
	_, err = e.Eval(nil, "/function")
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Expression))
}

func TestVarsReportsDistinctRootsInOrder(t *testing.T) {
	e, err := Parse("a + b * a - c", "/function")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, e.Vars())
	require.Equal(t, "a + b * a - c", e.Source())
}
