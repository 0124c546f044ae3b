package block

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stimweave/stimweave/internal/ctxlog"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/taskdef"
)

const runnerTask = `
task {
  name    = "runner-test"
  version = "1"
}

block "short" {
  tree {
    par {
      policy = "any"
      wait {
        duration = 0.5
      }
      logger {
        group = "trial"
        in    = { x = 1 }
      }
    }
  }
}

block "endless" {
  tree {
    fixation {}
  }
}

block "broken" {
  tree {
    function {
      formula = "n + 1"
      in      = { n = 1 }
      out     = 2
      once    = true
    }
  }
}
`

func loadRunnerTask(t *testing.T) *taskdef.Task {
	t.Helper()
	task, err := taskdef.LoadBytes("runner.hcl", []byte(runnerTask))
	require.NoError(t, err)
	return task
}

func steps(n int, dt time.Duration) []Step {
	out := make([]Step, n)
	for i := range out {
		out[i] = Step{Dt: dt}
	}
	return out
}

func mainKeys(snk *sink.Memory) []string {
	var keys []string
	for _, rec := range snk.Group(MainGroup) {
		keys = append(keys, rec.Key)
	}
	return keys
}

func TestRunCompletesAndBracketsSink(t *testing.T) {
	task := loadRunnerTask(t)
	snk := sink.NewMemory()
	runner := NewRunner(task, snk, render.Nop{})

	res, err := runner.Run(context.Background(), "short", uuid.New(),
		NewScriptSource(steps(3, 300*time.Millisecond)...))
	require.NoError(t, err)
	require.False(t, res.Interrupted)
	require.Equal(t, "short", res.Block)

	require.Equal(t, []string{"run_start", "run_finish"}, mainKeys(snk))
	require.Positive(t, snk.Flushed())
}

func TestRunExhaustedSourceInterrupts(t *testing.T) {
	task := loadRunnerTask(t)
	snk := sink.NewMemory()
	runner := NewRunner(task, snk, render.Nop{})

	res, err := runner.Run(context.Background(), "endless", uuid.New(),
		NewScriptSource(steps(4, 250*time.Millisecond)...))
	require.NoError(t, err)
	require.True(t, res.Interrupted)
	require.Equal(t, time.Second, res.Elapsed)
	require.Equal(t, []string{"run_start", "run_interrupt"}, mainKeys(snk))
}

func TestRunCancelledContextInterrupts(t *testing.T) {
	task := loadRunnerTask(t)
	snk := sink.NewMemory()
	runner := NewRunner(task, snk, render.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := runner.Run(ctx, "endless", uuid.New(),
		NewScriptSource(steps(100, 250*time.Millisecond)...))
	require.NoError(t, err)
	require.True(t, res.Interrupted)
}

func TestRunCrashRecordsTerminalError(t *testing.T) {
	task := loadRunnerTask(t)
	snk := sink.NewMemory()
	runner := NewRunner(task, snk, render.Nop{})

	_, err := runner.Run(context.Background(), "broken", uuid.New(),
		NewScriptSource(steps(2, 100*time.Millisecond)...))
	require.Error(t, err)

	keys := mainKeys(snk)
	require.Equal(t, []string{"run_start", "run_crash"}, keys)
	recs := snk.Group(MainGroup)
	require.Contains(t, recs[1].Value.AsString(), "unbound")
}

func TestRunUnknownBlock(t *testing.T) {
	task := loadRunnerTask(t)
	_, err := NewRunner(task, sink.NewMemory(), render.Nop{}).
		Run(context.Background(), "nope", uuid.New(), NewScriptSource())
	require.Error(t, err)
}

// faultySink rejects appends for selected keys so tests can exercise the
// runner's handling of a failing log backend.
type faultySink struct {
	*sink.Memory
	failKeys map[string]bool
}

func (s *faultySink) Append(rec sink.Record) error {
	if s.failKeys[rec.Key] {
		return errors.New("disk full")
	}
	return s.Memory.Append(rec)
}

func TestRunWarnsWhenTerminalRecordCannotBeAppended(t *testing.T) {
	task := loadRunnerTask(t)
	snk := &faultySink{Memory: sink.NewMemory(), failKeys: map[string]bool{"run_finish": true}}
	runner := NewRunner(task, snk, render.Nop{})

	logBuf := &bytes.Buffer{}
	ctx := ctxlog.WithLogger(context.Background(),
		slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	res, err := runner.Run(ctx, "short", uuid.New(),
		NewScriptSource(steps(3, 300*time.Millisecond)...))
	require.NoError(t, err, "a lost lifecycle record does not fail the run")
	require.False(t, res.Interrupted)
	require.Contains(t, logBuf.String(), "append run record failed")
	require.Contains(t, logBuf.String(), "run_finish")
	require.Equal(t, []string{"run_start"}, mainKeys(snk.Memory))
}

func TestRunAppliesInitSnapshotWithoutDirtyingFirstTick(t *testing.T) {
	src := `
task {
  name    = "init-test"
  version = "1"
}

block "main" {
  init = { "1" = true }
  tree {
    switch {
      control = 1
      if_true {
        wait {
          duration = 0.2
        }
      }
    }
  }
}
`
	task, err := taskdef.LoadBytes("init.hcl", []byte(src))
	require.NoError(t, err)

	snk := sink.NewMemory()
	res, err := NewRunner(task, snk, render.Nop{}).
		Run(context.Background(), "main", uuid.New(),
			NewScriptSource(steps(2, 150*time.Millisecond)...))
	require.NoError(t, err)
	require.False(t, res.Interrupted, "snapshot-selected branch ran to completion")
}
