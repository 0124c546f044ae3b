package block

import (
	"context"
	"time"

	"github.com/stimweave/stimweave/internal/event"
)

// TickSource supplies the external ticks that drive a run: an elapsed delta
// plus the input events queued since the previous tick. Next blocks until the
// next tick is due and reports ok=false when the source is exhausted or the
// context is cancelled.
type TickSource interface {
	Next(ctx context.Context) (dt time.Duration, events []event.Event, ok bool)
}

// WallSource ticks at a fixed frame period on the wall clock, draining the
// shared input queue each tick. The delta is measured, not nominal, so a
// stalled frame still advances run time by the real elapsed span.
type WallSource struct {
	period time.Duration
	queue  *event.Queue
	last   time.Time
	ticker *time.Ticker
}

func NewWallSource(period time.Duration, queue *event.Queue) *WallSource {
	return &WallSource{period: period, queue: queue}
}

func (s *WallSource) Next(ctx context.Context) (time.Duration, []event.Event, bool) {
	if s.ticker == nil {
		s.ticker = time.NewTicker(s.period)
		s.last = time.Now()
	}
	select {
	case <-ctx.Done():
		s.ticker.Stop()
		return 0, nil, false
	case now := <-s.ticker.C:
		dt := now.Sub(s.last)
		s.last = now
		return dt, s.queue.Drain(), true
	}
}

// Step is one scripted tick.
type Step struct {
	Dt     time.Duration
	Events []event.Event
}

// ScriptSource replays a fixed tick schedule. Tests use it to make runs
// deterministic.
type ScriptSource struct {
	steps []Step
	pos   int
}

func NewScriptSource(steps ...Step) *ScriptSource {
	return &ScriptSource{steps: steps}
}

func (s *ScriptSource) Next(ctx context.Context) (time.Duration, []event.Event, bool) {
	if ctx.Err() != nil || s.pos >= len(s.steps) {
		return 0, nil, false
	}
	step := s.steps[s.pos]
	s.pos++
	return step.Dt, step.Events, true
}
