// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling
// time.Now, time.After, or time.AfterFunc directly. Real() supplies
// standard library behavior; Fake() supplies a deterministic clock
// that advances only when the test says so.
//
// The quarterdeck daemon schedules two things: session idle timers and
// serial reopen backoff. Both take a Clock so tests can fire an idle
// timeout or skip a backoff window without sleeping:
//
//	c := clock.Fake(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
//	s := session.New(session.Config{Clock: c, IdleTimeout: time.Minute, ...})
//	// ... start the session goroutine ...
//	c.WaitForTimers(1)       // idle timer registered
//	c.Advance(time.Minute)   // fires it deterministically
//
// WaitForTimers removes the race between a goroutine registering a
// timer and the test advancing time past its deadline.
package clock
