package action

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/stretchr/testify/require"
)

func TestInstructionRendersAtStartAndClearsOnDone(t *testing.T) {
	f := newFixture(t)
	ins, err := NewInstruction("/instruction", "Press space to begin", 500*time.Millisecond)
	require.NoError(t, err)

	f.start(ins)
	frames := f.rec.Frames()
	require.Len(t, frames, 1)
	require.Equal(t, "instruction", frames[0].Kind)
	require.Equal(t, "Press space to begin", frames[0].Text)

	out := f.tick(ins, 600*time.Millisecond)
	require.True(t, out.Done)
	require.Equal(t, 100*time.Millisecond, out.Rem)
	require.Equal(t, []string{"/instruction"}, f.rec.Cleared())
}

func TestFixationWithoutDurationHoldsUntilStopped(t *testing.T) {
	f := newFixture(t)
	fix, err := NewFixation("/fixation", 0)
	require.NoError(t, err)

	f.start(fix)
	out := f.tick(fix, 5*time.Second)
	require.False(t, out.Done)

	f.stop(fix)
	require.Equal(t, []string{"/fixation"}, f.rec.Cleared())
	f.stop(fix)
	require.Len(t, f.rec.Cleared(), 1, "second stop does not clear twice")
}

func TestImageMissingAssetFailsAtFirstUse(t *testing.T) {
	f := newFixture(t)
	img, err := NewImage("/image", "/nonexistent/stim.png", 1.0, 0)
	require.NoError(t, err, "the asset is checked at start, not at build")

	err = img.Start(f.rt)
	require.Error(t, err)
	require.True(t, taskerr.IsKind(err, taskerr.IO))
}

func TestImagePresentExistingAsset(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "stim.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	img, err := NewImage("/image", path, 1.0, 0)
	require.NoError(t, err)
	f.start(img)
	frames := f.rec.Frames()
	require.Len(t, frames, 1)
	require.Equal(t, path, frames[0].Asset)
}

func TestPointerHitModeRequiresBoundsAndPress(t *testing.T) {
	f := newFixture(t, 1, 2)
	p, err := NewPointer("/pointer", "", PointerUntilHit, 100, 100, 1, 2)
	require.NoError(t, err)

	f.start(p)

	// A press outside the bounds records coordinates but keeps waiting.
	out := f.tick(p, 100*time.Millisecond, event.PointerEvent(50*time.Millisecond, "pointer", 150, 40))
	require.False(t, out.Done)
	require.InDelta(t, 150.0, f.ReadNum(1), 1e-9)

	out = f.tick(p, 100*time.Millisecond, event.PointerEvent(150*time.Millisecond, "pointer", 60, 40))
	require.True(t, out.Done)
	require.InDelta(t, 60.0, f.ReadNum(1), 1e-9)
	require.InDelta(t, 40.0, f.ReadNum(2), 1e-9)
}

func TestPointerRejectsHitModeWithoutBounds(t *testing.T) {
	_, err := NewPointer("/pointer", "", PointerUntilHit, 0, 0, 0, 0)
	require.Error(t, err)
}

func TestLayoutRendersContainerAndFollowsParAll(t *testing.T) {
	f := newFixture(t)
	a := newProbe("/vertical/a", 200*time.Millisecond)
	b := newProbe("/vertical/b", 400*time.Millisecond)
	l, err := NewLayout("/vertical", true, []float64{1, 2}, []Action{a, b})
	require.NoError(t, err)

	f.start(l)
	frames := f.rec.Frames()
	require.Len(t, frames, 1)
	require.Equal(t, "vertical", frames[0].Kind)
	require.Len(t, frames[0].Children, 2)
	require.Equal(t, []float64{1, 2}, frames[0].Weights)

	out := f.tick(l, 300*time.Millisecond)
	require.False(t, out.Done)
	out = f.tick(l, 300*time.Millisecond)
	require.True(t, out.Done)
	require.Contains(t, f.rec.Cleared(), "/vertical")
}

func TestLayoutWeightValidation(t *testing.T) {
	a := newProbe("/h/a", 0)
	_, err := NewLayout("/h", false, []float64{1, 2}, []Action{a})
	require.Error(t, err, "weight count mismatch")
	_, err = NewLayout("/h", false, []float64{-1}, []Action{a})
	require.Error(t, err, "non-positive weight")
}

func TestNilIsImmediatelyDone(t *testing.T) {
	f := newFixture(t)
	n := NewNil("/nil")
	f.start(n)
	out := f.tick(n, 250*time.Millisecond)
	require.True(t, out.Done)
	require.Equal(t, 250*time.Millisecond, out.Rem, "consumes no time at all")
}
