package build

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, treeSrc string) (action.Action, *Builder, error) {
	t.Helper()
	src := `
task {
  name    = "build-test"
  version = "1"
}

block "main" {
  tree {
` + treeSrc + `
  }
}
`
	task, err := taskdef.LoadBytes("task.hcl", []byte(src))
	require.NoError(t, err, "definition must parse before building")

	b := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	root, err := b.Build(task.Blocks[0].Tree)
	return root, b, err
}

func mustBuild(t *testing.T, treeSrc string) (action.Action, *Builder) {
	t.Helper()
	root, b, err := buildTree(t, treeSrc)
	require.NoError(t, err)
	return root, b
}

func TestBuildFullTreeCollectsLines(t *testing.T) {
	root, b := mustBuild(t, `
seq {
  function {
    formula = "pow(n, 2)"
    in      = { n = 1 }
    out     = 2
  }
  merge {
    in  = [2, 3]
    out = 4
  }
  logger {
    group = "trial"
    in    = { sq = 4 }
  }
}`)
	require.Equal(t, "/seq", root.Path())
	require.Equal(t, []store.Line{1, 2, 3, 4}, b.Lines())
}

func TestBuildUnknownKindIsConfigError(t *testing.T) {
	_, _, err := buildTree(t, `
seq {
  frobnicate {
    duration = 1
  }
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Config))
	require.Contains(t, err.Error(), "frobnicate")
}

func TestBuildUnknownFieldIsConfigError(t *testing.T) {
	_, _, err := buildTree(t, `
wait {
  duration = 1
  color    = "red"
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Config))
	require.Contains(t, err.Error(), "color")
}

func TestBuildNonPositiveDurationIsTimingError(t *testing.T) {
	_, _, err := buildTree(t, `
wait {
  duration = 0
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Timing))
}

func TestBuildFormulaParseFailureSurfacesBeforeRun(t *testing.T) {
	_, _, err := buildTree(t, `
function {
  formula = "1 +"
  out     = 1
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Expression))
}

func TestBuildFormulaUnboundVariableIsExpressionError(t *testing.T) {
	_, _, err := buildTree(t, `
function {
  formula = "n + m"
  in      = { n = 1 }
  out     = 2
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Expression))
	require.Contains(t, err.Error(), "m")
}

func TestBuildSwitchBranchesValidatedEagerly(t *testing.T) {
	// The non-selected branch is built once at build time so its
	// configuration errors surface before any run, even though runtime
	// instantiation stays lazy.
	_, _, err := buildTree(t, `
switch {
  control = 1
  if_true {
    wait {
      duration = 1
    }
  }
  if_false {
    wait {
      duration = -1
    }
  }
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Timing))
}

func TestBuildSwitchRejectsForeignChildren(t *testing.T) {
	_, _, err := buildTree(t, `
switch {
  control = 1
  wait {
    duration = 1
  }
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Config))
}

func TestBuildUntilRequiresExactlyOneTrigger(t *testing.T) {
	_, _, err := buildTree(t, `
until {
  nil {}
}`)
	require.Error(t, err)

	_, _, err = buildTree(t, `
until {
  event = "e"
  line  = 1
  nil {}
}`)
	require.Error(t, err)
}

func TestBuildParPolicy(t *testing.T) {
	_, _ = mustBuild(t, `
par {
  policy = "any"
  nil {}
  nil {}
}`)

	_, _, err := buildTree(t, `
par {
  policy = "sometimes"
  nil {}
}`)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.Config))
}

func TestBuildLineIdBounds(t *testing.T) {
	_, _, err := buildTree(t, `
clock {
  step = 1
  out  = 0
}`)
	require.Error(t, err, "line ids start at one")

	_, _, err = buildTree(t, `
clock {
  step = 1
  out  = 70000
}`)
	require.Error(t, err, "line ids are 16 bit")

	_, _, err = buildTree(t, `
clock {
  step = 1
  out  = 1.5
}`)
	require.Error(t, err, "line ids are integers")
}

func TestBuildDurationsAreSeconds(t *testing.T) {
	root, _ := mustBuild(t, `
wait {
  duration = 0.25
}`)
	_, ok := root.(*action.Wait)
	require.True(t, ok)

	// Quarter second decoded exactly.
	rt := &action.Runtime{
		Store:    store.New(nil, nil),
		Sink:     sink.NewMemory(),
		Renderer: render.Nop{},
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	require.NoError(t, root.Start(rt))
	out, err := root.Tick(action.Tick{Now: 250 * time.Millisecond, Delta: 250 * time.Millisecond}, rt)
	require.NoError(t, err)
	require.True(t, out.Done)
	require.Equal(t, time.Duration(0), out.Rem)
}

func TestKindsRegistryIsComplete(t *testing.T) {
	want := []string{
		"clock", "delayed", "event_logger", "fixation", "function",
		"horizontal", "image", "instruction", "key_logger", "logger",
		"merge", "nil", "par", "pointer", "reaction", "rect", "repeat",
		"seq", "switch", "timeout", "until", "vertical", "wait",
	}
	require.Equal(t, want, Kinds())
}
