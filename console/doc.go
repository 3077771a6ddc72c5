// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package console implements a line-oriented command dispatcher: the
// core of every quarterdeck console session.
//
// A [Dispatcher] repeatedly awaits one line from a [LineSource],
// tokenizes it on whitespace, and routes the resulting argument vector
// to a handler from a fixed [Command] table. The table is supplied once
// at construction and never mutated; lookup is a linear first-match
// scan, which is deliberate — console tables hold tens of entries, not
// thousands.
//
// # Line protocol
//
// Input is plain byte text. The source owns the line-ending convention;
// the dispatcher only ever sees terminator-free payloads tagged clean
// or overflowed. A clean line is tokenized and dispatched synchronously
// to completion. An overflowed line (the source's buffer filled before
// the terminator arrived) produces a "BufferOverflow" diagnostic, after
// which the dispatcher discards every remaining fragment of that
// physical line with a "FlushToEOL" diagnostic each, including the
// final clean fragment that carries the terminator. Nothing from an
// oversized line is ever dispatched.
//
// # The help command
//
// The name "help" is reserved and answered before table lookup. Bare
// "help" prints a usage banner and the registered names in table order;
// "help <name>" prints the usage line for one command. A table entry
// named "help" is accepted but never invoked; the intercept shadows it.
//
// # Concurrency
//
// One Dispatcher is one cooperative task: [Dispatcher.Run] occupies a
// single goroutine, processes lines strictly in arrival order, and
// suspends only while waiting on the source. Handlers execute
// synchronously and must not block. Run one Dispatcher per session;
// instances share nothing.
//
// # Embedding
//
//	d := console.New(console.Config{
//	    Source: linebuf.New(conn, 0),
//	    Output: conn,
//	    Table: []console.Command{
//	        {Name: "echo", Help: "[args ...]", Run: echo},
//	    },
//	})
//	err := d.Run(ctx)
//
// Malformed input never terminates Run; it returns only when the
// source ends (nil after EOF) or the context is cancelled.
package console
