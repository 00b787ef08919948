// Package clock schedules cancellable callbacks for auto-dismiss and debounce timers.
package clock

import "time"

// Timer is a scheduled callback. Stop is idempotent and returns false
// if the callback already fired or was already stopped.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks and reports the current time
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Real is the wall clock
type Real struct{}

// Now returns time.Now()
func (Real) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
