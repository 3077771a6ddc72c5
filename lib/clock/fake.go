// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.pendingChanged = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests. After channels and
// AfterFunc callbacks fire only when Advance moves the clock past
// their deadline. Callbacks run synchronously inside Advance in
// deadline order; do not call Advance from within a callback.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	pending        []*fakeTimer
	pendingChanged *sync.Cond
}

// fakeTimer is one scheduled After channel or AfterFunc call.
type fakeTimer struct {
	deadline time.Time

	// Exactly one of channel and callback is set.
	channel  chan time.Time
	callback func()

	stopped bool
	fired   bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock advances past
// the deadline. If d <= 0, the channel receives immediately without
// registering a timer.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}

	c.pending = append(c.pending, &fakeTimer{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	c.pendingChanged.Broadcast()
	return channel
}

// AfterFunc schedules f to run when the clock advances past the
// deadline. If d <= 0, f runs synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()

	if d <= 0 {
		c.mu.Unlock()
		f()
		return &Timer{
			stopFunc:  func() bool { return false },
			resetFunc: func(time.Duration) bool { return false },
		}
	}

	timer := &fakeTimer{
		deadline: c.current.Add(d),
		callback: f,
	}
	c.pending = append(c.pending, timer)
	c.pendingChanged.Broadcast()
	c.mu.Unlock()

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if timer.stopped || timer.fired {
				return false
			}
			timer.stopped = true
			return true
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := !timer.stopped && !timer.fired
			timer.stopped = false
			timer.fired = false
			timer.deadline = c.current.Add(d)
			if !wasActive {
				// It was removed from the pending list when it
				// fired; re-add it.
				c.pending = append(c.pending, timer)
				c.pendingChanged.Broadcast()
			}
			return wasActive
		},
	}
}

// Advance moves the clock forward by d and fires every timer whose
// deadline falls within the new time, in deadline order. Channel
// sends are non-blocking; callbacks run in the calling goroutine.
// Timers that a callback registers inside the advanced window fire in
// the same Advance call.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		expired := c.collectExpired(target)
		if len(expired) == 0 {
			return
		}
		sort.Slice(expired, func(i, j int) bool {
			return expired[i].deadline.Before(expired[j].deadline)
		})

		for _, timer := range expired {
			if timer.callback != nil {
				timer.callback()
				continue
			}
			select {
			case timer.channel <- target:
			default:
			}
		}
	}
}

// collectExpired removes and returns the timers due at or before
// target, marking them fired.
func (c *FakeClock) collectExpired(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []*fakeTimer
	var remaining []*fakeTimer
	for _, timer := range c.pending {
		if timer.stopped {
			continue
		}
		if timer.deadline.After(target) {
			remaining = append(remaining, timer)
			continue
		}
		timer.fired = true
		expired = append(expired, timer)
	}
	c.pending = remaining
	return expired
}

// WaitForTimers blocks until at least n timers are pending. It
// synchronizes a test with a goroutine that registers timers, so
// Advance cannot run before the timer exists.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingCountLocked() < n {
		c.pendingChanged.Wait()
	}
}

// PendingCount returns the number of active pending timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingCountLocked()
}

func (c *FakeClock) pendingCountLocked() int {
	count := 0
	for _, timer := range c.pending {
		if !timer.stopped {
			count++
		}
	}
	return count
}
