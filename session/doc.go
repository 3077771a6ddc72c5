// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package session runs console dispatchers over transport connections.
//
// A [Manager] owns the shared pieces of a daemon's console surface:
// the command table, line and argument limits, the banner, idle
// policy, and transcript capture settings. Its [Manager.Handler]
// adapts those into a transport.Handler; each accepted connection
// becomes a [Session] with its own line buffer and dispatcher, so a
// hung or slow console never affects its neighbors.
//
// Per session the manager tracks identity (numeric id, transport,
// remote), activity (line count, last-activity time), and lifetime.
// The control plane reads that state through [Manager.Snapshot] and
// ends sessions with [Manager.CloseSession]; an idle timeout, when
// configured, closes sessions that stop talking.
//
// Transcript capture, when enabled, writes one file per session with
// input lines prefixed "> " and console output raw, optionally
// zstd-compressed.
package session
