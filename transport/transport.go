// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
)

// Handler consumes one accepted console connection. It blocks for the
// lifetime of the session and returns when the session is over; the
// listener closes the connection afterwards if the handler has not.
//
// remote is a human-readable description of the far end: a TCP peer
// address, a Unix socket path, a device path, or "stdio".
type Handler func(ctx context.Context, conn io.ReadWriteCloser, remote string)

// Listener accepts inbound console connections. The daemon creates one
// Listener per configured endpoint and calls Serve with a handler that
// runs a console session over each connection.
type Listener interface {
	// Serve starts accepting connections and dispatches each to
	// handler. Blocks until ctx is cancelled or Close is called, then
	// waits for in-flight handlers to finish. Returns nil on clean
	// shutdown.
	Serve(ctx context.Context, handler Handler) error

	// Address returns the endpoint this listener is reachable at. The
	// format is transport-specific (e.g. "192.168.1.10:7070" for TCP,
	// a filesystem path for Unix sockets).
	Address() string

	// Close shuts down the listener. Safe to call concurrently with
	// Serve; a subsequent Serve returns immediately.
	Close() error
}

// acceptLoop is the shared accept-and-dispatch cycle for stream
// listeners. Each accepted connection runs its handler on its own
// goroutine; the loop exits when ctx is cancelled or the listener is
// closed, then waits for in-flight handlers. remote derives the
// handler's remote description from an accepted connection.
func acceptLoop(ctx context.Context, listener net.Listener, handler Handler, remote func(net.Conn) string, logger *slog.Logger) error {
	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var handlers sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			logger.Error("accept failed", "error", err)
			continue
		}

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			defer conn.Close()
			handler(ctx, conn, remote(conn))
		}()
	}

	handlers.Wait()
	return nil
}
