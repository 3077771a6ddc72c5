// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "io"

// Command is one entry in a dispatch table: a name, the usage text the
// help system prints for it, and the handler that runs when the first
// token of a line matches the name.
type Command struct {
	// Name selects the command. Matching against the first token is
	// exact and case-sensitive. Names must be unique within a table
	// (lookup is first-match, so a duplicate is unreachable, not an
	// error). The name "help" is reserved: an entry carrying it is
	// accepted but shadowed by the built-in help intercept.
	Name string

	// Help is the usage text printed by "help <name>", excluding the
	// command name itself ("help echo" prints "Usage: echo " + Help).
	Help string

	// Run handles one dispatched line. argv holds the line's tokens
	// with argv[0] equal to Name; argc is len(argv). The token slices
	// alias the source's read buffer and are invalid once Run returns
	// — copy anything that must outlive the call. Command output and
	// user-facing errors belong on out, the session's console sink.
	// Run executes on the session's only goroutine and must return
	// promptly; a blocked handler stalls the whole console.
	Run func(out io.Writer, argv [][]byte)
}

// lookup returns the first table entry whose name matches, or nil.
func (d *Dispatcher) lookup(name []byte) *Command {
	for i := range d.table {
		if string(name) == d.table[i].Name {
			return &d.table[i]
		}
	}
	return nil
}
