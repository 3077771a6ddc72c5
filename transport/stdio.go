// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"os"
	"sync"
)

// Compile-time interface check.
var _ Listener = (*StdioListener)(nil)

// StdioListener serves exactly one console session over a reader and
// writer pair, then returns. It backs the daemon's --stdio mode, where
// the console lives on the controlling terminal instead of a socket.
type StdioListener struct {
	in  io.Reader
	out io.Writer

	mu     sync.Mutex
	closed bool
}

// NewStdioListener creates a listener over the process's standard
// input and output.
func NewStdioListener() *StdioListener {
	return &StdioListener{in: os.Stdin, out: os.Stdout}
}

// Serve runs a single session over the stream and returns when it
// ends. The handler's connection reads from the listener's input and
// writes to its output; closing it closes both ends.
func (l *StdioListener) Serve(ctx context.Context, handler Handler) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed || ctx.Err() != nil {
		return nil
	}

	handler(ctx, &stdioConn{in: l.in, out: l.out}, "stdio")
	return nil
}

// Address identifies the stream.
func (l *StdioListener) Address() string {
	return "stdio"
}

// Close prevents future Serve calls from starting a session. It does
// not interrupt a session already running; cancel the Serve context
// for that.
func (l *StdioListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// stdioConn joins a reader and a writer into the io.ReadWriteCloser a
// session expects. Close closes whichever ends support it, once;
// closing stdin is what unblocks a pending console read when the
// session is torn down.
type stdioConn struct {
	in  io.Reader
	out io.Writer

	closeOnce sync.Once
	closeErr  error
}

func (c *stdioConn) Read(p []byte) (int, error) {
	return c.in.Read(p)
}

func (c *stdioConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c *stdioConn) Close() error {
	c.closeOnce.Do(func() {
		if closer, ok := c.in.(io.Closer); ok {
			c.closeErr = closer.Close()
		}
		if closer, ok := c.out.(io.Closer); ok {
			if err := closer.Close(); c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}
