// Package render specifies the renderer boundary. The engine never paints
// pixels; presenting leaves hand a Frame descriptor to a Renderer and the
// renderer owns everything visual. Test code uses the Recorder to assert on
// what would have been shown and when.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Frame describes one presentable surface. Leaves fill the fields relevant to
// their kind; layout nodes compose child frames with relative weights.
type Frame struct {
	// Node is the tree path of the presenting leaf, used as the frame's
	// identity for replacement and clearing.
	Node string
	// Kind names the leaf kind that produced the frame.
	Kind string

	Text   string
	Asset  string
	Color  string
	Width  float64
	Height float64

	// Hold is the suggested display duration; zero means until replaced.
	Hold time.Duration

	Children []Frame
	Weights  []float64
	Vertical bool
}

// Renderer paints frames. Implementations must be cheap to call from the tick
// goroutine; heavy rasterization belongs on the renderer's own workers.
type Renderer interface {
	// Render presents the frame, replacing any frame previously presented
	// under the same node path.
	Render(f Frame) error
	// Clear removes the frame presented under the node path, if any.
	Clear(node string) error
}

// Nop is a renderer that discards everything. It backs headless validation
// runs and data-only tests.
type Nop struct{}

func (Nop) Render(Frame) error { return nil }
func (Nop) Clear(string) error { return nil }

// Recorder retains every call for assertions, with the wall-clock order
// preserved. It also tracks the first time each node became visible, which is
// the "visible since tick T" report of the renderer boundary.
type Recorder struct {
	mu      sync.Mutex
	frames  []Frame
	cleared []string
	visible map[string]time.Duration
	now     func() time.Duration
}

// NewRecorder creates a recorder; now supplies run-relative time for the
// visible-since bookkeeping and may be nil.
func NewRecorder(now func() time.Duration) *Recorder {
	if now == nil {
		now = func() time.Duration { return 0 }
	}
	return &Recorder{visible: make(map[string]time.Duration), now: now}
}

func (r *Recorder) Render(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if _, ok := r.visible[f.Node]; !ok {
		r.visible[f.Node] = r.now()
	}
	return nil
}

func (r *Recorder) Clear(node string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, node)
	delete(r.visible, node)
	return nil
}

// Frames returns all rendered frames in order.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Cleared returns the node paths cleared, in order.
func (r *Recorder) Cleared() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.cleared))
	copy(out, r.cleared)
	return out
}

// VisibleSince returns when the node's frame first became visible, if it is
// still visible.
func (r *Recorder) VisibleSince(node string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.visible[node]
	return t, ok
}

// Console is a renderer that writes one-line frame descriptions to a writer.
// It gives headless CLI runs something observable without a display backend.
type Console struct {
	W io.Writer
}

func (c Console) Render(f Frame) error {
	_, err := fmt.Fprintf(c.W, "[%s] %s\n", f.Node, describe(f))
	return err
}

func (c Console) Clear(node string) error {
	_, err := fmt.Fprintf(c.W, "[%s] cleared\n", node)
	return err
}

func describe(f Frame) string {
	var b strings.Builder
	b.WriteString(f.Kind)
	if f.Text != "" {
		fmt.Fprintf(&b, " %q", f.Text)
	}
	if f.Asset != "" {
		fmt.Fprintf(&b, " asset=%s", f.Asset)
	}
	if len(f.Children) > 0 {
		fmt.Fprintf(&b, " children=%d", len(f.Children))
	}
	return b.String()
}
