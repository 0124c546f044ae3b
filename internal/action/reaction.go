package action

import (
	"sort"
	"time"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Reaction measures reaction times against a schedule of stimulus onsets.
// Each response event in the group is matched to the earliest unmatched onset
// whose response window [onset, onset+tol] contains it; anticipatory
// responses before an onset do not count.
//
// Once the last onset's window has closed, the node writes accuracy
// (hits/responses), recall (hits/onsets), and mean reaction time in seconds
// to its output lines and completes. An output line of zero is simply not
// written.
type Reaction struct {
	base
	times []time.Duration
	tol   time.Duration
	group string

	outAccuracy store.Line
	outRecall   store.Line
	outMeanRT   store.Line

	matched   []bool
	hits      int
	responses int
	sumRT     time.Duration
}

// NewReaction creates a reaction node. The onset schedule is sorted; tol must
// be positive and at least one onset is required.
func NewReaction(path string, times []time.Duration, tol time.Duration, group string, outAccuracy, outRecall, outMeanRT store.Line) (*Reaction, error) {
	if len(times) == 0 {
		return nil, taskerr.New(taskerr.Config, path, "reaction requires at least one onset")
	}
	if tol <= 0 {
		return nil, taskerr.New(taskerr.Timing, path, "reaction tolerance must be positive, got %v", tol)
	}
	if group == "" {
		return nil, taskerr.New(taskerr.Config, path, "reaction group cannot be empty")
	}
	sorted := make([]time.Duration, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Reaction{
		base:        base{path: path},
		times:       sorted,
		tol:         tol,
		group:       group,
		outAccuracy: outAccuracy,
		outRecall:   outRecall,
		outMeanRT:   outMeanRT,
		matched:     make([]bool, len(sorted)),
	}, nil
}

func (r *Reaction) Start(rt *Runtime) error {
	r.state = Active
	return nil
}

func (r *Reaction) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if r.state != Active {
		return Outcome{Done: r.state == Done, Rem: t.Delta}, nil
	}

	for _, ev := range t.Events {
		if ev.Group != r.group || !isResponse(ev.Kind) {
			continue
		}
		r.responses++
		for i, onset := range r.times {
			if r.matched[i] || ev.Time < onset || ev.Time > onset+r.tol {
				continue
			}
			r.matched[i] = true
			r.hits++
			r.sumRT += ev.Time - onset
			break
		}
	}

	deadline := r.times[len(r.times)-1] + r.tol
	if t.Now < deadline {
		return Outcome{}, nil
	}
	if err := r.report(rt); err != nil {
		return Outcome{}, err
	}
	r.state = Done
	rem := t.Now - deadline
	if rem > t.Delta {
		rem = t.Delta
	}
	return Outcome{Done: true, Rem: rem}, nil
}

func (r *Reaction) Stop(rt *Runtime) error {
	r.state = Done
	return nil
}

func (r *Reaction) report(rt *Runtime) error {
	accuracy := 0.0
	if r.responses > 0 {
		accuracy = float64(r.hits) / float64(r.responses)
	}
	recall := float64(r.hits) / float64(len(r.times))
	meanRT := 0.0
	if r.hits > 0 {
		meanRT = (r.sumRT / time.Duration(r.hits)).Seconds()
	}

	outputs := []struct {
		line store.Line
		val  float64
	}{
		{r.outAccuracy, accuracy},
		{r.outRecall, recall},
		{r.outMeanRT, meanRT},
	}
	for _, o := range outputs {
		if o.line == 0 {
			continue
		}
		if err := rt.Store.Write(o.line, cty.NumberFloatVal(o.val)); err != nil {
			return taskerr.Wrap(taskerr.Variable, r.path, err, "write summary")
		}
	}
	return nil
}

func isResponse(k event.Kind) bool {
	return k == event.Key || k == event.PointerDown || k == event.Trigger
}
