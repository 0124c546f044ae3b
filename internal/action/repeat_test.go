package action

import (
	"testing"
	"time"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stretchr/testify/require"
)

func TestRepeatReinstantiatesAcrossOneTick(t *testing.T) {
	f := newFixture(t)
	pf := &probeFactory{path: "/repeat/p", dur: 300 * time.Millisecond}
	rep, err := NewRepeat("/repeat", pf.make)
	require.NoError(t, err)

	f.start(rep)
	require.Len(t, pf.made, 1)

	// One second covers three full 300ms iterations; the fourth instance
	// starts inside the same tick and absorbs the 100ms tail.
	out := f.tick(rep, time.Second)
	require.False(t, out.Done, "repeat never completes on its own")
	require.Len(t, pf.made, 4)
	require.Equal(t, 100*time.Millisecond, pf.made[3].elapsed)
	for _, p := range pf.made[:3] {
		require.Equal(t, Done, p.State())
		require.Zero(t, p.stops, "iterations end naturally, not by stop")
	}
}

func TestRepeatZeroDurationBodyYieldsEachTick(t *testing.T) {
	f := newFixture(t)
	calls := 0
	rep, err := NewRepeat("/repeat", func() (Action, error) {
		calls++
		return NewNil("/repeat/nil"), nil
	})
	require.NoError(t, err)

	f.start(rep)
	require.Equal(t, 1, calls)

	// A body that consumes no time runs one iteration per tick instead of
	// spinning forever inside the first.
	f.tick(rep, 100*time.Millisecond)
	require.Equal(t, 2, calls)
	f.tick(rep, 100*time.Millisecond)
	require.Equal(t, 3, calls)
}

func TestUntilEventStopsBodySameTick(t *testing.T) {
	f := newFixture(t)
	pf := &probeFactory{path: "/until/repeat/p", dur: time.Second}
	rep, err := NewRepeat("/until/repeat", pf.make)
	require.NoError(t, err)
	u, err := NewUntilEvent("/until", "e", rep)
	require.NoError(t, err)

	f.start(u)
	for i := 0; i < 5; i++ {
		out := f.tick(u, 400*time.Millisecond)
		require.False(t, out.Done)
	}

	out := f.tick(u, 400*time.Millisecond, event.TriggerEvent(f.now, "e"))
	require.True(t, out.Done, "trigger completes the wrapper in its own tick")
	require.Equal(t, Done, rep.State())
	last := pf.made[len(pf.made)-1]
	require.Equal(t, 1, last.stops, "live iteration stopped exactly once")
}

func TestUntilLineTriggerSeesSameTickWrites(t *testing.T) {
	f := newFixture(t, 5)
	cl, err := NewClock("/until/clock", 500*time.Millisecond, false, 5)
	require.NoError(t, err)
	u := NewUntilLine("/until", 5, cl)

	f.start(u)
	out := f.tick(u, 300*time.Millisecond)
	require.False(t, out.Done)

	out = f.tick(u, 300*time.Millisecond)
	require.True(t, out.Done, "the clock's own write fires the trigger")
}

func TestUntilBodyNaturalCompletionWins(t *testing.T) {
	f := newFixture(t)
	w, err := NewWait("/until/wait", 200*time.Millisecond)
	require.NoError(t, err)
	u, err := NewUntilEvent("/until", "e", w)
	require.NoError(t, err)

	f.start(u)
	out := f.tick(u, 300*time.Millisecond)
	require.True(t, out.Done)
	require.Equal(t, 100*time.Millisecond, out.Rem)
}
