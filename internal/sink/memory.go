package sink

import "sync"

// Memory is an in-process sink for tests and validation runs. It tracks how
// many records each Flush covered so tests can assert flush-on-stop behavior.
type Memory struct {
	mu      sync.Mutex
	records []Record
	flushed int
	closed  bool
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushed = len(m.records)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Group returns the appended records belonging to one group, in order.
func (m *Memory) Group(name string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.Group == name {
			out = append(out, r)
		}
	}
	return out
}

// Flushed returns how many records the most recent Flush covered.
func (m *Memory) Flushed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushed
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
