// Package clock abstracts wall time and timer scheduling so phase timing is
// deterministic under test.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// CancelFunc stops a scheduled callback. Returns true if the callback had
// not yet fired.
type CancelFunc func() bool

// Scheduler schedules a callback after a duration. The realtime engine uses
// it for phase timeouts.
type Scheduler interface {
	Clock
	Schedule(d time.Duration, fn func()) CancelFunc
}

// Real is the production Scheduler backed by the time package.
type Real struct{}

// NewReal returns a Scheduler backed by wall time.
func NewReal() *Real { return &Real{} }

func (*Real) Now() time.Time { return time.Now() }

func (*Real) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
