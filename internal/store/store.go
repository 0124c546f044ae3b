// Package store implements the per-run Variable Store: a mapping from small
// integer line identifiers to typed cty values, with a dirty-this-tick flag
// per line.
//
// The store is deliberately lock-free. All reads and writes happen on the
// scheduler's tick goroutine, and the deterministic depth-first sibling order
// of the walk is what resolves same-tick write races: the last write in
// evaluation order wins, and the earlier write is reported as a warning.
package store

import (
	"log/slog"

	"github.com/stimweave/stimweave/internal/taskerr"
	"github.com/zclconf/go-cty/cty"
)

// Line identifies a slot in the store. Identifiers are unique within a Run.
type Line uint16

type slot struct {
	val    cty.Value
	bound  bool // ever written during this Run
	dirty  bool // written during the current tick
	writes int  // writes during the current tick, for the collision warning
}

// Store holds the variable lines of a single Run.
type Store struct {
	slots map[Line]*slot
	log   *slog.Logger
}

// New creates a store with the given declared lines. Lines referenced by any
// node binding must be declared up front; writing an undeclared line is a
// VariableError.
func New(lines []Line, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{slots: make(map[Line]*slot, len(lines)), log: log}
	for _, l := range lines {
		s.slots[l] = &slot{val: cty.NilVal}
	}
	return s
}

// Declare adds a line to the declared set. Declaring a line twice is a no-op:
// fan-out readers and fan-in writers legitimately share lines.
func (s *Store) Declare(l Line) {
	if _, ok := s.slots[l]; !ok {
		s.slots[l] = &slot{val: cty.NilVal}
	}
}

// Declared reports whether the line exists in the declared set.
func (s *Store) Declared(l Line) bool {
	_, ok := s.slots[l]
	return ok
}

// Read returns the current value of a line and whether it has ever been
// written. Read never blocks and never fails; consumers that require a value
// turn the false case into a VariableError themselves.
func (s *Store) Read(l Line) (cty.Value, bool) {
	sl, ok := s.slots[l]
	if !ok || !sl.bound {
		return cty.NilVal, false
	}
	return sl.val, true
}

// Write sets the value of a line and marks it dirty for the remainder of the
// current tick. Writing an undeclared line is a VariableError. A repeated
// write within the same tick keeps the newer value and logs a warning; the
// deterministic sibling evaluation order makes the outcome reproducible.
func (s *Store) Write(l Line, v cty.Value) error {
	sl, ok := s.slots[l]
	if !ok {
		return taskerr.New(taskerr.Variable, "", "write to undeclared line %d", l)
	}
	sl.writes++
	if sl.writes > 1 {
		s.log.Warn("line written more than once in a tick; keeping last write",
			"line", uint16(l), "writes", sl.writes)
	}
	sl.val = v
	sl.bound = true
	sl.dirty = true
	return nil
}

// Dirty reports whether the line has been written during the current tick.
func (s *Store) Dirty(l Line) bool {
	sl, ok := s.slots[l]
	return ok && sl.dirty
}

// Bound reports whether the line has ever been written during this Run
// (including via the block's initial snapshot).
func (s *Store) Bound(l Line) bool {
	sl, ok := s.slots[l]
	return ok && sl.bound
}

// ClearTick resets all dirty flags and per-tick write counters. The scheduler
// calls it exactly once at the end of every tick.
func (s *Store) ClearTick() {
	for _, sl := range s.slots {
		sl.dirty = false
		sl.writes = 0
	}
}

// Lines returns the number of declared lines.
func (s *Store) Lines() int {
	return len(s.slots)
}
