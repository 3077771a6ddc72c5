// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package control

import "github.com/quarterdeck-io/quarterdeck/lib/codec"

// Action names understood by the daemon's control server.
const (
	// ActionStatus reports daemon-wide counters. No request fields;
	// the response data is a [StatusData].
	ActionStatus = "status"

	// ActionSessions lists the currently connected console sessions.
	// No request fields; the response data is a [SessionsData].
	ActionSessions = "sessions"

	// ActionClose disconnects one console session. The request carries
	// an "id" field; the response has no data.
	ActionClose = "close"
)

// Response is the wire-format envelope for all control protocol
// responses. Handlers return a result value (or nil) and an error; the
// server wraps these into a Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// StatusData is the response payload for [ActionStatus].
type StatusData struct {
	Version       string `cbor:"version"`
	PID           int    `cbor:"pid"`
	UptimeSeconds int64  `cbor:"uptime_seconds"`
	Commands      int    `cbor:"commands"`
	Sessions      int    `cbor:"sessions"`
}

// SessionInfo describes one connected console session.
type SessionInfo struct {
	ID          uint64 `cbor:"id"`
	Transport   string `cbor:"transport"`
	Remote      string `cbor:"remote"`
	ConnectedAt int64  `cbor:"connected_at"`
	IdleSeconds int64  `cbor:"idle_seconds"`
	Lines       uint64 `cbor:"lines"`
}

// SessionsData is the response payload for [ActionSessions].
type SessionsData struct {
	Sessions []SessionInfo `cbor:"sessions"`
}
