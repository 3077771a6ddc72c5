// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Command quarterdeck-daemon serves line-oriented consoles.
//
// The daemon accepts console sessions on any combination of TCP, Unix
// socket, stdio, and serial listeners, runs one command dispatcher per
// session, and answers management requests (status, session list,
// forced disconnect) on a separate control socket that the quarterdeck
// CLI talks to.
//
// Configuration comes from a YAML file (see lib/config); --log-level
// and --log-format override it for one run. With --stdio the daemon
// serves a single session on its own stdin/stdout, skips the control
// socket, and exits when the session ends — useful for trying command
// tables without wiring up a listener.
//
// The built-in command table (echo, uptime, version, sessions,
// loglevel) is registered in commands.go; embedders looking for an
// example of driving the console package should start there.
package main
