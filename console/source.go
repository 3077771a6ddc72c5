// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "context"

// LineSource yields the lines of a console input stream. It is the
// dispatcher's single suspension point: [Dispatcher.Run] blocks inside
// ReadLine and nowhere else.
//
// The production implementation is linebuf.Reader; tests script
// outcomes with in-package fakes.
type LineSource interface {
	// ReadLine blocks until the next line outcome is available.
	//
	// On a clean line, line holds the payload without its terminator
	// (possibly empty) and overflow is false. When the source's
	// buffer filled before a terminator arrived, overflow is true and
	// line holds the partial content; subsequent calls return the
	// remaining fragments of the same physical line, the last of them
	// clean. The returned slice aliases the source's buffer and is
	// valid only until the next ReadLine call.
	//
	// A non-nil error ends the stream: io.EOF for a clean end, the
	// context's error when ctx is cancelled, anything else for a
	// transport failure. After an error the source is exhausted.
	ReadLine(ctx context.Context) (line []byte, overflow bool, err error)
}
