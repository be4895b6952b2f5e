// Package clock abstracts time so that timers can run against the wall
// clock in production and against a manually advanced virtual clock in
// tests and simulations.
//
// Elapsed time is always computed by subtracting two values returned by
// Now. For the real clock those values carry Go's monotonic reading, so
// countdowns are immune to wall clock adjustments.
package clock

import "time"

// Clock supplies the current time and one-shot timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for d to elapse and then calls fn.
	// fn is never called synchronously from AfterFunc, even when d <= 0.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, fn)
}
