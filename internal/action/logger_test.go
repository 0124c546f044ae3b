package action

import (
	"testing"
	"time"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestLoggerSamplesDirtyLinesAndFlushesOnStop(t *testing.T) {
	f := newFixture(t, 1, 2)
	l, err := NewLogger("/logger", "trial", map[string]store.Line{"x": 1, "y": 2})
	require.NoError(t, err)

	f.start(l)
	f.tick(l, 100*time.Millisecond)
	require.Empty(t, f.sink.Records(), "nothing dirty, nothing sampled")

	require.NoError(t, f.rt.Store.Write(1, cty.NumberIntVal(7)))
	_, err = l.Tick(Tick{Now: f.now, Delta: 0}, f.rt)
	require.NoError(t, err)
	f.rt.Store.ClearTick()

	recs := f.sink.Group("trial")
	require.Len(t, recs, 1)
	require.Equal(t, "x", recs[0].Key)
	require.True(t, cty.NumberIntVal(7).RawEquals(recs[0].Value))

	require.Zero(t, f.sink.Flushed())
	f.stop(l)
	require.Equal(t, 1, f.sink.Flushed(), "stop flushes buffered records")
	f.stop(l)
	require.Equal(t, 1, f.sink.Flushed(), "second stop is a no-op")
}

func TestKeyLoggerBracketsSessionWithSentinels(t *testing.T) {
	f := newFixture(t)
	k := NewKeyLogger("/key_logger", "")

	f.start(k)
	f.tick(k, 500*time.Millisecond, event.KeyEvent(450*time.Millisecond, "keypress", "j"))
	f.tick(k, 500*time.Millisecond, event.KeyEvent(800*time.Millisecond, "other", "k"))
	f.stop(k)

	recs := f.sink.Group("keypress")
	require.Len(t, recs, 3)
	require.Equal(t, "event", recs[0].Key)
	require.Equal(t, "start", recs[0].Value.AsString())
	require.Equal(t, "key", recs[1].Key)
	require.Equal(t, "j", recs[1].Value.AsString())
	require.Equal(t, 450*time.Millisecond, recs[1].Time, "stamped with the event time, not the tick time")
	require.Equal(t, "event", recs[2].Key)
	require.Equal(t, "stop", recs[2].Value.AsString())
	require.Equal(t, time.Second, recs[2].Time)
}

func TestEventLoggerKeepsAllKindsInGroup(t *testing.T) {
	f := newFixture(t)
	e, err := NewEventLogger("/event_logger", "probe")
	require.NoError(t, err)

	f.start(e)
	f.tick(e, 100*time.Millisecond,
		event.KeyEvent(50*time.Millisecond, "probe", "a"),
		event.TriggerEvent(60*time.Millisecond, "probe"),
		event.PointerEvent(70*time.Millisecond, "elsewhere", 1, 2),
	)

	recs := f.sink.Group("probe")
	require.Len(t, recs, 2)
	require.Equal(t, string(event.Key), recs[0].Key)
	require.Equal(t, string(event.Trigger), recs[1].Key)
}
