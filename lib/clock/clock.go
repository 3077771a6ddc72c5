// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations quarterdeck schedules with.
// Production code injects Real(); tests inject Fake().
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (real) or synchronously during Advance (fake). The
	// returned Timer cancels the pending call with Stop and re-arms
	// with Reset.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a scheduled AfterFunc call. It has no channel; the work
// happens in the callback.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the timer from firing. It returns true if the call
// stopped the timer, false if it had already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset re-arms the timer to fire after duration d. It returns true
// if the timer was still pending.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
