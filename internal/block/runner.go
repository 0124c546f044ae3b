// Package block owns one run end to end: it instantiates the store and the
// action tree from a block definition, drives the scheduler from a tick
// source, and guarantees the sink holds a terminal record and all flushed
// data whichever way the run ends.
package block

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stimweave/stimweave/internal/action"
	"github.com/stimweave/stimweave/internal/build"
	"github.com/stimweave/stimweave/internal/ctxlog"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/scheduler"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// MainGroup is the log group holding the run's own lifecycle records.
const MainGroup = "mainevent"

// Runner executes blocks of one task against a shared sink and renderer. It
// is single-use per call, not per instance: each Run builds a fresh store and
// tree.
type Runner struct {
	task     *taskdef.Task
	sink     sink.Sink
	renderer render.Renderer
}

func NewRunner(task *taskdef.Task, snk sink.Sink, renderer render.Renderer) *Runner {
	return &Runner{task: task, sink: snk, renderer: renderer}
}

// Result describes a completed or interrupted run.
type Result struct {
	RunID       uuid.UUID
	Block       string
	Elapsed     time.Duration
	Interrupted bool
}

// Run executes the named block until the tree completes, the tick source is
// exhausted, or ctx is cancelled. The run id comes from the caller because
// the sink is usually keyed by it at open time. Exhaustion and cancellation
// interrupt the run: the tree is stopped synchronously so loggers flush, and
// the sink gets an interrupt record instead of a finish record. A tick error
// stops the tree, records the crash, and comes back as the single terminal
// error.
func (r *Runner) Run(ctx context.Context, blockName string, runID uuid.UUID, src TickSource) (*Result, error) {
	log := ctxlog.FromContext(ctx).With("block", blockName, "run_id", runID.String())

	def, ok := r.task.Block(blockName)
	if !ok {
		return nil, taskerr.New(taskerr.Config, blockName, "task %q has no block %q", r.task.Name, blockName)
	}

	builder := build.New(log)
	root, err := builder.Build(def.Tree)
	if err != nil {
		return nil, err
	}

	st := store.New(builder.Lines(), log)
	for line, val := range def.Init {
		st.Declare(line)
		if err := st.Write(line, val); err != nil {
			return nil, err
		}
	}
	// The snapshot binds lines without dirtying the first tick.
	st.ClearTick()

	rt := &action.Runtime{Store: st, Sink: r.sink, Renderer: r.renderer, Log: log}
	sched := scheduler.New(root, rt)
	res := &Result{RunID: runID, Block: blockName}

	r.mainRecord(rt, "run_start", r.task.Title())
	log.Info("run started", "task", r.task.Title())

	done, err := sched.Start()
	for err == nil && !done {
		dt, events, more := src.Next(ctx)
		if !more {
			res.Interrupted = true
			break
		}
		done, err = sched.Advance(dt, events)
	}
	res.Elapsed = sched.Now()

	switch {
	case err != nil:
		if aerr := sched.Abort(); aerr != nil {
			log.Warn("stop after crash failed", "error", aerr)
		}
		r.mainRecord(rt, "run_crash", err.Error())
		if ferr := r.sink.Flush(); ferr != nil {
			log.Warn("flush after crash failed", "error", ferr)
		}
		log.Error("run crashed", "error", err, "elapsed", res.Elapsed)
		return res, err
	case res.Interrupted:
		if err := sched.Abort(); err != nil {
			log.Warn("stop during interrupt failed", "error", err)
		}
		r.mainRecord(rt, "run_interrupt", "")
		log.Info("run interrupted", "elapsed", res.Elapsed)
	default:
		r.mainRecord(rt, "run_finish", "")
		log.Info("run finished", "elapsed", res.Elapsed)
	}

	if err := r.sink.Flush(); err != nil {
		return res, taskerr.Wrap(taskerr.IO, blockName, err, "flush log sink")
	}
	return res, nil
}

func (r *Runner) mainRecord(rt *action.Runtime, key, detail string) {
	val := cty.NullVal(cty.String)
	if detail != "" {
		val = cty.StringVal(detail)
	}
	err := r.sink.Append(sink.Record{
		Time:  rt.Now,
		Wall:  time.Now(),
		Group: MainGroup,
		Key:   key,
		Value: val,
	})
	if err != nil {
		rt.Log.Warn("append run record failed", "key", key, "error", err)
	}
}
