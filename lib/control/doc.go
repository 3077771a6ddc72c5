// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the daemon's management protocol: a CBOR
// request-response exchange over a Unix domain socket.
//
// Each connection carries exactly one request and one response. The
// client writes a CBOR map containing an "action" field plus any
// action-specific fields, the server routes it to the registered
// handler, writes a CBOR [Response], and closes the connection. CBOR
// is self-delimiting, so no framing protocol is needed.
//
// The daemon registers its actions on a [Server] and runs it alongside
// the console listeners. The quarterdeck CLI uses [Client] to drive
// the same protocol from the other end.
//
// This is a management plane, deliberately separate from the console
// protocol itself: console sessions speak newline-delimited text,
// while the control socket speaks typed CBOR between two programs that
// share this package's wire structs.
package control
