// Package sink is the log boundary: logger leaves emit append-only
// (timestamp, group, key, value) records, and a Sink makes records flushed at
// stop durable even when the Run aborts.
package sink

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Record is one log tuple. Time is run-relative; Wall is the absolute moment
// the record was appended.
type Record struct {
	Time  time.Duration
	Wall  time.Time
	Group string
	Key   string
	Value cty.Value
}

// Sink receives records from logger leaves and the block runner.
//
// Append may buffer; Flush must make everything appended so far durable.
// Logger leaves call Flush from their Stop, which the cancellation rules
// guarantee runs inside the tick that stops them, so partial logs survive
// aborts.
type Sink interface {
	Append(rec Record) error
	Flush() error
	Close() error
}
