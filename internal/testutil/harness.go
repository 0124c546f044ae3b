// Package testutil provides the shared run harness: an in-memory end-to-end
// fixture that loads a task from an HCL string, builds the tree, and advances
// it on a scripted tick schedule against a memory sink and a frame recorder.
package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/build"
	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/scheduler"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskdef"
)

// Harness drives one block tree tick by tick.
type Harness struct {
	T     *testing.T
	Task  *taskdef.Task
	Store *store.Store
	Sink  *sink.Memory
	Rec   *render.Recorder
	Sched *scheduler.Scheduler
	RT    *action.Runtime

	done bool
}

// NewHarness parses src as a complete task definition and prepares its first
// block for ticking. The tree is built but not started.
func NewHarness(t *testing.T, src string) *Harness {
	t.Helper()

	task, err := taskdef.LoadBytes("harness.hcl", []byte(src))
	require.NoError(t, err, "task definition must load")
	return newHarness(t, task, task.Blocks[0])
}

// NewHarnessBlock is NewHarness for a named block of a multi-block task.
func NewHarnessBlock(t *testing.T, src, blockName string) *Harness {
	t.Helper()

	task, err := taskdef.LoadBytes("harness.hcl", []byte(src))
	require.NoError(t, err, "task definition must load")
	b, ok := task.Block(blockName)
	require.True(t, ok, "block %q must exist", blockName)
	return newHarness(t, task, b)
}

func newHarness(t *testing.T, task *taskdef.Task, def *taskdef.Block) *Harness {
	t.Helper()

	log := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	builder := build.New(log)
	root, err := builder.Build(def.Tree)
	require.NoError(t, err, "block tree must build")

	st := store.New(builder.Lines(), log)
	for line, val := range def.Init {
		st.Declare(line)
		require.NoError(t, st.Write(line, val))
	}
	st.ClearTick()

	h := &Harness{T: t, Task: task, Store: st, Sink: sink.NewMemory()}
	// Both clocks follow run time so recorded frames and records line up
	// with tick timestamps.
	h.Rec = render.NewRecorder(func() time.Duration { return h.Sched.Now() })
	h.RT = &action.Runtime{
		Store:     st,
		Sink:      h.Sink,
		Renderer:  h.Rec,
		Log:       log,
		WallClock: func() time.Time { return time.Unix(0, int64(h.Sched.Now())) },
	}
	h.Sched = scheduler.New(root, h.RT)
	return h
}

// Start starts the tree and settles the zero tick.
func (h *Harness) Start() {
	h.T.Helper()
	done, err := h.Sched.Start()
	require.NoError(h.T, err, "start must succeed")
	h.done = done
}

// Tick advances run time by dt with no events.
func (h *Harness) Tick(dt time.Duration) {
	h.T.Helper()
	h.TickEvents(dt)
}

// TickEvents advances run time by dt delivering the given event batch.
func (h *Harness) TickEvents(dt time.Duration, events ...event.Event) {
	h.T.Helper()
	done, err := h.Sched.Advance(dt, events)
	require.NoError(h.T, err, "tick at %s must succeed", h.Sched.Now())
	h.done = done
}

// TickErr advances run time expecting a failure and returns it.
func (h *Harness) TickErr(dt time.Duration, events ...event.Event) error {
	h.T.Helper()
	_, err := h.Sched.Advance(dt, events)
	require.Error(h.T, err, "tick at %s must fail", h.Sched.Now())
	return err
}

// TickUntilDone advances in dt steps until the tree completes, failing after
// max steps.
func (h *Harness) TickUntilDone(dt time.Duration, max int) {
	h.T.Helper()
	for i := 0; i < max; i++ {
		if h.done {
			return
		}
		h.Tick(dt)
	}
	require.True(h.T, h.done, "tree did not complete within %d ticks of %s", max, dt)
}

// Done reports whether the tree has completed naturally.
func (h *Harness) Done() bool { return h.done }

// Now returns the run time reached so far.
func (h *Harness) Now() time.Duration { return h.Sched.Now() }

// ReadNum reads a store line as float64, requiring it to be bound.
func (h *Harness) ReadNum(line store.Line) float64 {
	h.T.Helper()
	v, ok := h.Store.Read(line)
	require.True(h.T, ok, "line %d must be bound", line)
	f, _ := v.AsBigFloat().Float64()
	return f
}

// testWriter routes engine logs through t.Logf so they show up only on
// failure.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
