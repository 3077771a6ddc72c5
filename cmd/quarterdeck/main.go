// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Command quarterdeck is the operator client for quarterdeck-daemon.
// It attaches interactive console sessions over unix, TCP, or serial
// transports and queries the daemon's control socket for status and
// session management.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quarterdeck-io/quarterdeck/cmd/quarterdeck/cli"
	"github.com/quarterdeck-io/quarterdeck/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var toolErr *cli.ToolError
		if errors.As(err, &toolErr) && toolErr.Category == cli.CategoryValidation {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCommand().Execute(ctx, os.Args[1:])
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:        "quarterdeck",
		Description: "Operator client for the quarterdeck console daemon.",
		Subcommands: []*cli.Command{
			attachCommand(),
			statusCommand(),
			sessionsCommand(),
			closeCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Attach to the console over the default unix socket",
				Command:     "quarterdeck attach",
			},
			{
				Description: "Attach to a serial console",
				Command:     "quarterdeck attach --serial /dev/ttyUSB0",
			},
			{
				Description: "Show daemon status",
				Command:     "quarterdeck status",
			},
			{
				Description: "Close console session 3",
				Command:     "quarterdeck close 3",
			},
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(ctx context.Context, args []string) error {
			fmt.Printf("quarterdeck %s\n", version.Full())
			return nil
		},
	}
}
