// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// Compile-time interface check.
var _ Listener = (*UnixListener)(nil)

// UnixListener accepts console connections on a Unix domain socket.
// This is the default same-host transport; the quarterdeck CLI's
// attach command connects through it.
type UnixListener struct {
	path     string
	listener net.Listener
	logger   *slog.Logger
}

// staleProbeTimeout bounds the dial used to distinguish a live daemon
// from a socket file left behind by a crashed one.
const staleProbeTimeout = time.Second

// NewUnixListener creates a console listener on the socket at path.
// A leftover socket file from a previous run is removed, but only
// after probing it: if something still answers on the socket, the
// constructor fails rather than stealing the address. The socket file
// is created with mode 0600.
func NewUnixListener(path string, logger *slog.Logger) (*UnixListener, error) {
	if _, err := os.Stat(path); err == nil {
		conn, err := net.DialTimeout("unix", path, staleProbeTimeout)
		if err == nil {
			conn.Close()
			return nil, fmt.Errorf("socket %s is in use by another process", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
		}
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restricting socket %s: %w", path, err)
	}
	return &UnixListener{path: path, listener: listener, logger: logger}, nil
}

// Serve accepts socket connections and dispatches each to handler.
// Blocks until ctx is cancelled or Close is called, then waits for
// in-flight sessions. The socket file is removed on return.
func (l *UnixListener) Serve(ctx context.Context, handler Handler) error {
	defer os.Remove(l.path)

	l.logger.Info("console listening", "transport", "unix", "path", l.path)
	return acceptLoop(ctx, l.listener, handler, func(net.Conn) string {
		return l.path
	}, l.logger)
}

// Address returns the socket path.
func (l *UnixListener) Address() string {
	return l.path
}

// Close shuts down the socket listener.
func (l *UnixListener) Close() error {
	return l.listener.Close()
}
