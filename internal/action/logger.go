package action

import (
	"sort"

	"github.com/stimweave/stimweave/internal/event"
	"github.com/stimweave/stimweave/internal/store"
	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Logger samples bound variables: on every tick where a watched line is
// dirty, it appends a (time, group, role, value) record. It never completes
// on its own and flushes the sink when stopped, including when an enclosing
// timeout or until cancels it.
type Logger struct {
	base
	group   string
	in      map[string]store.Line
	inOrder []string
}

// NewLogger creates a variable logger for the given group.
func NewLogger(path, group string, in map[string]store.Line) (*Logger, error) {
	if group == "" {
		return nil, taskerr.New(taskerr.Config, path, "logger group cannot be empty")
	}
	order := make([]string, 0, len(in))
	for role := range in {
		order = append(order, role)
	}
	sort.Strings(order)
	return &Logger{base: base{path: path}, group: group, in: in, inOrder: order}, nil
}

func (l *Logger) Start(rt *Runtime) error {
	l.state = Active
	return nil
}

func (l *Logger) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if l.state != Active {
		return Outcome{Done: l.state == Done, Rem: t.Delta}, nil
	}
	for _, role := range l.inOrder {
		line := l.in[role]
		if !rt.Store.Dirty(line) {
			continue
		}
		v, _ := rt.Store.Read(line)
		if err := rt.appendRecord(t.Now, l.group, role, v); err != nil {
			return Outcome{}, taskerr.Wrap(taskerr.IO, l.path, err, "append sample")
		}
	}
	return Outcome{}, nil
}

func (l *Logger) Stop(rt *Runtime) error {
	if l.state == Done {
		return nil
	}
	l.state = Done
	return rt.Sink.Flush()
}

// KeyLogger appends every key event in its group, bracketed by start/stop
// sentinel records so analysis can tell when logging was live.
type KeyLogger struct {
	base
	group string
}

// NewKeyLogger creates a key logger; the group defaults to "keypress".
func NewKeyLogger(path, group string) *KeyLogger {
	if group == "" {
		group = "keypress"
	}
	return &KeyLogger{base: base{path: path}, group: group}
}

func (k *KeyLogger) Start(rt *Runtime) error {
	k.state = Active
	return rt.appendRecord(rt.Now, k.group, "event", cty.StringVal("start"))
}

func (k *KeyLogger) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if k.state != Active {
		return Outcome{Done: k.state == Done, Rem: t.Delta}, nil
	}
	for _, ev := range t.Events {
		if ev.Group != k.group || ev.Kind != event.Key {
			continue
		}
		if err := rt.appendRecord(ev.Time, k.group, "key", ev.Payload); err != nil {
			return Outcome{}, taskerr.Wrap(taskerr.IO, k.path, err, "append key")
		}
	}
	return Outcome{}, nil
}

func (k *KeyLogger) Stop(rt *Runtime) error {
	if k.state == Done {
		return nil
	}
	k.state = Done
	if err := rt.appendRecord(rt.Now, k.group, "event", cty.StringVal("stop")); err != nil {
		return err
	}
	return rt.Sink.Flush()
}

// EventLogger appends every input event in its group regardless of kind,
// keyed by the event kind.
type EventLogger struct {
	base
	group string
}

// NewEventLogger creates a raw event logger for the given group.
func NewEventLogger(path, group string) (*EventLogger, error) {
	if group == "" {
		return nil, taskerr.New(taskerr.Config, path, "event_logger group cannot be empty")
	}
	return &EventLogger{base: base{path: path}, group: group}, nil
}

func (e *EventLogger) Start(rt *Runtime) error {
	e.state = Active
	return nil
}

func (e *EventLogger) Tick(t Tick, rt *Runtime) (Outcome, error) {
	if e.state != Active {
		return Outcome{Done: e.state == Done, Rem: t.Delta}, nil
	}
	for _, ev := range t.Events {
		if ev.Group != e.group {
			continue
		}
		if err := rt.appendRecord(ev.Time, e.group, string(ev.Kind), ev.Payload); err != nil {
			return Outcome{}, taskerr.Wrap(taskerr.IO, e.path, err, "append event")
		}
	}
	return Outcome{}, nil
}

func (e *EventLogger) Stop(rt *Runtime) error {
	if e.state == Done {
		return nil
	}
	e.state = Done
	return rt.Sink.Flush()
}
