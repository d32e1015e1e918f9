// Package fuel implements the descending work counter that bounds the cost
// of one query interpretation: a single mutable counter shared by one
// execute/eval tree, decremented once per Bind iteration, once per Apply
// evaluation, and once per element yielded while draining an inner query
// (AsList, AsDict), so an unbounded or cyclic query fails instead of
// hanging. original_source's queries.py has no cancellation mechanism at
// all; this is a fresh addition to stand in for it.
package fuel

import "errors"

// ErrOutOfFuel is reported by Tick when the counter reaches zero.
var ErrOutOfFuel = errors.New("out of fuel")

// Default is the default starting amount, sized so a tight iteration loop
// completes in about one second on contemporary hardware.
const Default = 10_000_000

// A Fuel is a descending counter shared by every node of one
// execute/eval call tree. It is not safe for concurrent use: interpretation
// of a single query runs on one goroutine at a time.
type Fuel struct {
	remaining int64
}

// New constructs a Fuel with the given starting amount.
func New(amount int64) *Fuel { return &Fuel{remaining: amount} }

// Tick consumes one unit of fuel, reporting ErrOutOfFuel once the counter
// reaches zero.
func (f *Fuel) Tick() error {
	if f.remaining <= 0 {
		return ErrOutOfFuel
	}
	f.remaining--
	return nil
}

// Remaining reports the amount of fuel left.
func (f *Fuel) Remaining() int64 { return f.remaining }
