package action

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/render"
	"github.com/stimweave/stimweave/internal/sink"
	"github.com/stimweave/stimweave/internal/store"
)

// fixture stands in for the scheduler in unit tests: it owns the runtime and
// advances a single node tick by tick, clearing dirty flags after each tick
// exactly like the real driver.
type fixture struct {
	t    *testing.T
	rt   *Runtime
	sink *sink.Memory
	rec  *render.Recorder
	now  time.Duration
}

func newFixture(t *testing.T, lines ...store.Line) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{t: t, sink: sink.NewMemory()}
	f.rec = render.NewRecorder(func() time.Duration { return f.now })
	f.rt = &Runtime{
		Store:     store.New(lines, log),
		Sink:      f.sink,
		Renderer:  f.rec,
		Log:       log,
		WallClock: func() time.Time { return time.Unix(0, int64(f.now)) },
	}
	return f
}

func (f *fixture) start(a Action) {
	f.t.Helper()
	f.rt.Now = f.now
	if err := a.Start(f.rt); err != nil {
		f.t.Fatalf("start %s: %v", a.Path(), err)
	}
}

func (f *fixture) tick(a Action, dt time.Duration, events ...event.Event) Outcome {
	f.t.Helper()
	out, err := f.tickErr(a, dt, events...)
	if err != nil {
		f.t.Fatalf("tick %s at %s: %v", a.Path(), f.now, err)
	}
	return out
}

func (f *fixture) tickErr(a Action, dt time.Duration, events ...event.Event) (Outcome, error) {
	f.now += dt
	f.rt.Now = f.now
	out, err := a.Tick(Tick{Now: f.now, Delta: dt, Events: events}, f.rt)
	f.rt.Store.ClearTick()
	return out, err
}

func (f *fixture) stop(a Action) {
	f.t.Helper()
	f.rt.Now = f.now
	if err := a.Stop(f.rt); err != nil {
		f.t.Fatalf("stop %s: %v", a.Path(), err)
	}
}

// probe is an instrumented leaf: active for a fixed duration (0 means
// forever), counting lifecycle calls so tests can assert exactly-once
// semantics.
type probe struct {
	base
	dur     time.Duration
	elapsed time.Duration
	starts  int
	stops   int
	ticks   int
}

func newProbe(path string, dur time.Duration) *probe {
	return &probe{base: base{path: path}, dur: dur}
}

func (p *probe) Start(rt *Runtime) error {
	p.starts++
	p.state = Active
	return nil
}

func (p *probe) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if p.state != Active {
		return Outcome{Done: p.state == Done, Rem: t.Delta}, nil
	}
	p.ticks++
	p.elapsed += t.Delta
	if p.dur > 0 && p.elapsed >= p.dur {
		p.state = Done
		return Outcome{Done: true, Rem: p.elapsed - p.dur}, nil
	}
	return Outcome{}, nil
}

func (p *probe) Stop(rt *Runtime) error {
	p.stops++
	p.state = Done
	return nil
}

// probeFactory builds fresh probes and remembers them for inspection.
type probeFactory struct {
	path string
	dur  time.Duration
	made []*probe
}

func (pf *probeFactory) make() (Action, error) {
	p := newProbe(pf.path, pf.dur)
	pf.made = append(pf.made, p)
	return p, nil
}
