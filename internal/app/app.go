// Package app wires a task run together: definition loading, sink and
// renderer selection, the input endpoint, and one block runner per selected
// block. The cli package builds a Config and hands over here.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stimweave/stimweave/internal/block"
	"github.com/stimweave/stimweave/internal/build"
	"github.com/stimweave/stimweave/internal/ctxlog"
	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/remote"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/taskdef"
	"github.com/stimweave/stimweave/internal/taskerr"
)

// App executes or validates one task per the supplied configuration.
type App struct {
	out io.Writer
	cfg *Config
	log *slog.Logger
}

func New(out io.Writer, cfg *Config) *App {
	return &App{out: out, cfg: cfg, log: newLogger(cfg.LogLevel, cfg.LogFormat, out)}
}

// Run loads the task and executes the selected blocks in order. Each block
// gets a fresh run id, sink, and tree; the input endpoint and event queue are
// shared across blocks.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.log)

	task, err := taskdef.Load(a.cfg.TaskPath)
	if err != nil {
		return err
	}
	a.log.Info("task loaded", "task", task.Title(), "blocks", len(task.Blocks))

	blocks, err := a.selectBlocks(task)
	if err != nil {
		return err
	}

	queue := event.NewQueue()
	clock := &runClock{}
	if a.cfg.ListenAddr != "" {
		srv := a.serveInput(queue, clock)
		defer srv.Shutdown(context.Background())
	}

	var renderer render.Renderer = render.Console{W: a.out}
	if a.cfg.Headless {
		renderer = render.Nop{}
	}

	for _, name := range blocks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := a.runBlock(ctx, task, name, queue, clock, renderer); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runBlock(ctx context.Context, task *taskdef.Task, name string,
	queue *event.Queue, clock *runClock, renderer render.Renderer) error {

	runID := uuid.New()
	snk, err := a.openSink(runID)
	if err != nil {
		return err
	}
	defer snk.Close()

	clock.Reset()
	queue.Drain()

	src := block.NewWallSource(a.cfg.FramePeriod, queue)
	runner := block.NewRunner(task, snk, renderer)
	res, err := runner.Run(ctx, name, runID, src)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "block %s done in %s (run %s)\n", res.Block, res.Elapsed, res.RunID)
	return nil
}

// Validate loads the task and builds every block tree without starting a
// run, so configuration and formula errors surface before a session.
func (a *App) Validate(ctx context.Context) error {
	task, err := taskdef.Load(a.cfg.TaskPath)
	if err != nil {
		return err
	}
	for _, b := range task.Blocks {
		builder := build.New(a.log)
		if _, err := builder.Build(b.Tree); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "block %-20s ok (%d lines)\n", b.Name, len(builder.Lines()))
	}
	fmt.Fprintf(a.out, "%s: %d blocks valid\n", task.Title(), len(task.Blocks))
	return nil
}

func (a *App) selectBlocks(task *taskdef.Task) ([]string, error) {
	if a.cfg.Block == "" {
		names := make([]string, len(task.Blocks))
		for i, b := range task.Blocks {
			names[i] = b.Name
		}
		return names, nil
	}
	if _, ok := task.Block(a.cfg.Block); !ok {
		return nil, taskerr.New(taskerr.Config, a.cfg.Block,
			"task %q has no block %q", task.Name, a.cfg.Block)
	}
	return []string{a.cfg.Block}, nil
}

func (a *App) openSink(runID uuid.UUID) (sink.Sink, error) {
	if a.cfg.LogPath == "" {
		return sink.NewMemory(), nil
	}
	return sink.OpenSQLite(a.cfg.LogPath, runID.String())
}

func (a *App) serveInput(queue *event.Queue, clock *runClock) *http.Server {
	input := remote.NewInput(queue, clock.Elapsed, a.log)
	srv := &http.Server{Addr: a.cfg.ListenAddr, Handler: input}
	a.log.Info("input endpoint listening", "addr", a.cfg.ListenAddr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("input endpoint failed", "error", err)
		}
	}()
	return srv
}

// runClock stamps remote input events with time relative to the current
// block run. Reset is called at each run start; Elapsed may race with it
// from the websocket read goroutines, hence the lock.
type runClock struct {
	mu    sync.Mutex
	start time.Time
}

func (c *runClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

func (c *runClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() {
		return 0
	}
	return time.Since(c.start)
}
