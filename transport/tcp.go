// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
)

// Compile-time interface check.
var _ Listener = (*TCPListener)(nil)

// TCPListener accepts console connections over TCP. Every connection
// gets its own session; there is no limit on concurrent sessions.
//
// The console protocol has no authentication, so a TCP console should
// be bound to a loopback or otherwise trusted interface.
type TCPListener struct {
	listener net.Listener
	logger   *slog.Logger
}

// NewTCPListener creates a TCP console listener on the specified
// address (e.g. "127.0.0.1:7070"). Use ":0" for a random available
// port.
func NewTCPListener(address string, logger *slog.Logger) (*TCPListener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	return &TCPListener{listener: listener, logger: logger}, nil
}

// Serve accepts TCP connections and dispatches each to handler.
// Blocks until ctx is cancelled or Close is called, then waits for
// in-flight sessions.
func (l *TCPListener) Serve(ctx context.Context, handler Handler) error {
	l.logger.Info("console listening", "transport", "tcp", "address", l.Address())
	return acceptLoop(ctx, l.listener, handler, func(conn net.Conn) string {
		return conn.RemoteAddr().String()
	}, l.logger)
}

// Address returns the bound TCP address in "host:port" format.
func (l *TCPListener) Address() string {
	return l.listener.Addr().String()
}

// Close shuts down the TCP listener.
func (l *TCPListener) Close() error {
	return l.listener.Close()
}
