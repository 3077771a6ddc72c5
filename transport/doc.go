// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the byte-stream listeners that carry
// console sessions into a quarterdeck daemon.
//
// The package defines one interface: [Listener] accepts inbound
// connections and hands each one to a [Handler] (Serve, Address,
// Close). The daemon runs one Listener per configured endpoint and
// supplies a handler that wraps the connection in a console session.
// Console code never interacts with transport directly; it sees an
// io.ReadWriteCloser.
//
// Four implementations cover the places a console is reachable from:
// [TCPListener] for network access, [UnixListener] for same-host
// tooling (the quarterdeck CLI attaches through it), [StdioListener]
// for running the daemon in the foreground on a terminal, and
// [SerialListener] for a physical serial port. TCP and Unix accept
// many concurrent connections; stdio serves exactly one session and
// returns; serial serves one session at a time and reopens the device
// when a session ends with a read failure.
//
// All listeners follow the same shutdown contract: cancelling the
// Serve context stops the accept loop, and Serve returns only after
// every in-flight handler has finished. Handlers receive the Serve
// context and are expected to tie the connection's lifetime to it.
package transport
