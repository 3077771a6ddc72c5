// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package linebuf turns a raw byte stream into console line outcomes.
//
// [Reader] accumulates bytes from an io.Reader into a fixed-capacity
// buffer and yields one outcome per call: a clean line when a
// terminator arrives within capacity, or overflow fragments when a
// physical line is longer than the buffer. It implements the console
// package's LineSource contract and is the production source for
// every quarterdeck transport (TCP, Unix socket, stdio, serial).
package linebuf

import (
	"context"
	"io"

	"github.com/quarterdeck-io/quarterdeck/console"
)

// DefaultCapacity is the line buffer size used when New is given a
// non-positive capacity. Generous for hand-typed commands, small
// enough that a runaway sender cannot balloon a session.
const DefaultCapacity = 256

// Reader is a fixed-capacity line accumulator. Not safe for
// concurrent use; a console session owns exactly one.
type Reader struct {
	source io.Reader
	buf    []byte // accumulated line content, capacity fixed at New
	n      int    // bytes accumulated so far
	chunk  []byte // staging area for source reads
	staged []byte // unconsumed tail of chunk
}

var _ console.LineSource = (*Reader)(nil)

// New returns a Reader over source with the given line capacity.
// Non-positive capacity selects DefaultCapacity.
func New(source io.Reader, capacity int) *Reader {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Reader{
		source: source,
		buf:    make([]byte, capacity),
		chunk:  make([]byte, 512),
	}
}

// ReadLine yields the next line outcome.
//
// Lines are terminated by '\n'; a single '\r' immediately before the
// terminator is stripped, so both LF and CRLF transports work. The
// terminator itself is never part of the payload. A line whose
// content exceeds the buffer capacity comes back as a sequence of
// overflow fragments, each of exactly capacity bytes, followed by one
// clean fragment holding the remainder — overflow is declared only
// when a content byte arrives with the buffer already full, so a line
// that exactly fills the buffer is still clean.
//
// The returned slice aliases the internal buffer; it is valid until
// the next ReadLine call.
//
// Stream end surfaces as io.EOF after all terminated lines have been
// yielded. Accumulated bytes of an unterminated final line are
// discarded: a command is only ever dispatched from a complete line.
// Cancelling ctx stops the next iteration; a blocked read is the
// caller's to unblock by closing the underlying stream.
func (r *Reader) ReadLine(ctx context.Context) ([]byte, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		for len(r.staged) > 0 {
			c := r.staged[0]
			if c == '\n' {
				r.staged = r.staged[1:]
				line := r.buf[:r.n]
				r.n = 0
				if len(line) > 0 && line[len(line)-1] == '\r' {
					line = line[:len(line)-1]
				}
				return line, false, nil
			}
			if r.n == len(r.buf) {
				// The line outgrew the buffer: hand back a full
				// fragment and keep the pending byte for the next one.
				r.n = 0
				return r.buf, true, nil
			}
			r.buf[r.n] = c
			r.n++
			r.staged = r.staged[1:]
		}

		n, err := r.source.Read(r.chunk)
		if n > 0 {
			// Process data before honoring a co-delivered error.
			r.staged = r.chunk[:n]
			continue
		}
		if err != nil {
			r.n = 0
			return nil, false, err
		}
	}
}
