// Package remote accepts input events over a websocket and feeds them into
// the run's event queue. Response boxes, eye trackers, and the operator UI
// connect here; the engine itself stays single-threaded because the queue is
// the only crossing point.
package remote

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stimweave/stimweave/internal/event"
)

// Message is the wire form of one input event. Coordinates apply to pointer
// kinds only.
type Message struct {
	Kind  string  `json:"kind"`
	Group string  `json:"group"`
	Key   string  `json:"key,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

// Input is an http.Handler upgrading connections to websockets and pumping
// decoded messages into the queue. Clock supplies the run-relative timestamp
// stamped on each event.
type Input struct {
	queue    *event.Queue
	clock    func() time.Duration
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewInput(queue *event.Queue, clock func() time.Duration, log *slog.Logger) *Input {
	return &Input{
		queue: queue,
		clock: clock,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (in *Input) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := in.upgrader.Upgrade(w, r, nil)
	if err != nil {
		in.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	in.log.Info("input source connected", "remote", r.RemoteAddr)
	go in.pump(conn)
}

func (in *Input) pump(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				in.log.Warn("input source dropped", "error", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			in.log.Warn("discarding malformed input message", "error", err)
			continue
		}
		ev, ok := in.toEvent(msg)
		if !ok {
			in.log.Warn("discarding input message of unknown kind", "kind", msg.Kind)
			continue
		}
		in.queue.Push(ev)
	}
}

func (in *Input) toEvent(msg Message) (event.Event, bool) {
	now := in.clock()
	switch event.Kind(msg.Kind) {
	case event.Key:
		return event.KeyEvent(now, msg.Group, msg.Key), true
	case event.Trigger:
		return event.TriggerEvent(now, msg.Group), true
	case event.PointerDown, event.PointerMove:
		ev := event.PointerEvent(now, msg.Group, msg.X, msg.Y)
		ev.Kind = event.Kind(msg.Kind)
		return ev, true
	default:
		return event.Event{}, false
	}
}
