package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParAnyCompletesAtFirstDoneAndStopsSiblingsOnce(t *testing.T) {
	f := newFixture(t)
	winner := newProbe("/par/a", 600*time.Millisecond)
	loserA := newProbe("/par/b", 0)
	loserB := newProbe("/par/c", 0)
	par, err := NewPar("/par", Any, []Action{winner, loserA, loserB})
	require.NoError(t, err)

	f.start(par)
	require.Equal(t, 1, winner.starts)
	require.Equal(t, 1, loserA.starts)
	require.Equal(t, 1, loserB.starts)

	out := f.tick(par, 300*time.Millisecond)
	require.False(t, out.Done)

	out = f.tick(par, 300*time.Millisecond)
	require.True(t, out.Done, "completes at min child duration")
	require.Equal(t, time.Duration(0), out.Rem)
	require.Equal(t, 1, loserA.stops, "each live sibling stopped exactly once")
	require.Equal(t, 1, loserB.stops)
	require.Zero(t, winner.stops, "naturally done child is never stopped")

	// A racing ancestor stop after completion must not re-stop anything.
	f.stop(par)
	require.Equal(t, 1, loserA.stops)
	require.Equal(t, 1, loserB.stops)
}

func TestParAnyFirstListedWinsSameTick(t *testing.T) {
	f := newFixture(t)
	first := newProbe("/par/a", 200*time.Millisecond)
	second := newProbe("/par/b", 200*time.Millisecond)
	par, err := NewPar("/par", Any, []Action{first, second})
	require.NoError(t, err)

	f.start(par)
	out := f.tick(par, 300*time.Millisecond)
	require.True(t, out.Done)
	require.Equal(t, 100*time.Millisecond, out.Rem)
	require.Equal(t, Done, first.State())
	require.Equal(t, 1, second.stops, "tie resolves to the first-listed child")
	require.Zero(t, second.ticks, "loser is stopped before it sees the deciding tick")
}

func TestParAllWaitsForEveryChild(t *testing.T) {
	f := newFixture(t)
	short := newProbe("/par/a", 200*time.Millisecond)
	long := newProbe("/par/b", 500*time.Millisecond)
	par, err := NewPar("/par", All, []Action{short, long})
	require.NoError(t, err)

	f.start(par)
	out := f.tick(par, 300*time.Millisecond)
	require.False(t, out.Done, "long child still active")
	require.Equal(t, Done, short.State())

	out = f.tick(par, 300*time.Millisecond)
	require.True(t, out.Done)
	require.Equal(t, 100*time.Millisecond, out.Rem, "bounded by the last finisher")
	require.Zero(t, short.stops)
	require.Zero(t, long.stops)
}

func TestParPolicyString(t *testing.T) {
	require.Equal(t, "all", All.String())
	require.Equal(t, "any", Any.String())
}
