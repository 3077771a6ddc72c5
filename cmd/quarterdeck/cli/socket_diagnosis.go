// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"io/fs"
	"syscall"
)

// DiagnoseSocketError inspects a socket connection error and returns a
// categorized ToolError with an actionable hint. If the error is not
// one of the recognized socket failure modes, returns nil and the
// caller should use its own error wrapping. Three outcomes:
//
//   - Socket file missing → the daemon is not running (or listens on a
//     different path); hint to start it or pass --socket
//   - Connection refused → the socket file exists but nothing accepts
//     connections on it; a previous daemon crashed and left it behind
//   - Permission denied → the socket belongs to another user; hint to
//     check ownership and mode
func DiagnoseSocketError(err error, socketPath string) *ToolError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound("no socket at %s", socketPath).
			WithHint("Is quarterdeck-daemon running? It creates the socket at startup.\n" +
				"If it listens on a different path, pass it with --socket.")

	case errors.Is(err, syscall.ECONNREFUSED):
		return Unavailable("connection refused on %s", socketPath).
			WithHint("The socket file exists but no daemon is accepting connections.\n" +
				"A previous daemon likely crashed and left a stale socket; restart quarterdeck-daemon.")

	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return Forbidden("permission denied accessing %s", socketPath).
			WithHint("Check the socket's ownership and permissions: ls -la " + socketPath + "\n" +
				"The daemon creates sockets with mode 0600, owned by the user it runs as.")
	}
	return nil
}
