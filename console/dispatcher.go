// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DefaultMaxArgs is the argument vector capacity used when Config
// leaves MaxArgs zero. Ten tokens covers any sane console command;
// lines with more arguments are truncated, not rejected.
const DefaultMaxArgs = 10

// Config assembles a [Dispatcher].
type Config struct {
	// Source yields input lines. Required.
	Source LineSource

	// Output receives command output, help text, and diagnostics.
	// Required. Writes happen only from the dispatcher's goroutine.
	Output io.Writer

	// Table is the command registry, in help-banner order. The
	// dispatcher keeps the slice without copying it; the caller must
	// not mutate entries after construction.
	Table []Command

	// MaxArgs caps the tokens captured per line. Zero or negative
	// selects DefaultMaxArgs.
	MaxArgs int

	// Logger receives operational events (overflows, unknown
	// commands). Console text never goes through it. Nil selects
	// slog.Default().
	Logger *slog.Logger
}

// Dispatcher routes console input lines to command handlers. Create
// one with [New] and drive it with [Run]; see the package
// documentation for the full protocol.
type Dispatcher struct {
	source LineSource
	out    io.Writer
	table  []Command
	argv   [][]byte
	log    *slog.Logger
}

// New builds a Dispatcher. It panics if Source or Output is missing;
// both are wiring errors no later call could repair.
func New(cfg Config) *Dispatcher {
	if cfg.Source == nil {
		panic("console: Config.Source is required")
	}
	if cfg.Output == nil {
		panic("console: Config.Output is required")
	}
	maxArgs := cfg.MaxArgs
	if maxArgs <= 0 {
		maxArgs = DefaultMaxArgs
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		source: cfg.Source,
		out:    cfg.Output,
		table:  cfg.Table,
		argv:   make([][]byte, 0, maxArgs),
		log:    logger,
	}
}

// Run processes lines until the source ends. It returns nil when the
// source reports io.EOF, the context error when ctx is cancelled, and
// a wrapped source error otherwise. Malformed input — oversized lines,
// unknown commands, too many tokens — is reported on the output sink
// and never terminates the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		line, overflow, err := d.source.ReadLine(ctx)
		if err != nil {
			return d.sourceErr(ctx, err)
		}
		if overflow {
			fmt.Fprintf(d.out, "BufferOverflow: %s\n", line)
			d.log.Warn("console line exceeded read buffer", "partial_bytes", len(line))
			if err := d.recoverOverflow(ctx); err != nil {
				return d.sourceErr(ctx, err)
			}
			continue
		}
		d.processLine(line)
	}
}

// processLine tokenizes one clean line and dispatches it. Runs
// synchronously to completion; by the time it returns the line buffer
// is free to be reused.
func (d *Dispatcher) processLine(line []byte) {
	d.argv = Tokenize(line, d.argv[:0])
	if len(d.argv) == 0 {
		return
	}
	name := d.argv[0]
	if string(name) == helpName {
		d.runHelp(d.argv)
		return
	}
	if cmd := d.lookup(name); cmd != nil {
		cmd.Run(d.out, d.argv)
		return
	}
	d.log.Debug("unknown console command", "command", string(name))
	fmt.Fprintf(d.out, "Unknown command: %s\n", name)
}

// recoverOverflow discards the rest of an oversized physical line,
// emitting a FlushToEOL diagnostic for every fetched fragment. The
// final clean fragment carries the line terminator; it too is flushed
// and discarded, since it is the tail of the truncated line rather
// than a new command.
func (d *Dispatcher) recoverOverflow(ctx context.Context) error {
	for {
		line, overflow, err := d.source.ReadLine(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.out, "FlushToEOL: %s\n", line)
		if !overflow {
			return nil
		}
	}
}

// sourceErr maps a source error to Run's return contract: nil for a
// clean stream end, the context error for cancellation, otherwise the
// failure wrapped.
func (d *Dispatcher) sourceErr(ctx context.Context, err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("read line: %w", err)
}
