// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/quarterdeck-io/quarterdeck/cmd/quarterdeck/cli"
	"github.com/quarterdeck-io/quarterdeck/lib/config"
	"github.com/quarterdeck-io/quarterdeck/lib/control"
)

// controlSocketFlag builds the flag set shared by the control
// subcommands: a single --socket flag pointing at the daemon's
// control socket.
func controlSocketFlag(name string, socketPath *string) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		flagSet.StringVar(socketPath, "socket", config.Default().Control.Socket, "control socket path")
		return flagSet
	}
}

// controlError maps a control client failure to a categorized error.
// Socket-level failures get a diagnosis with a hint; anything else from
// the server at this point is a protocol mismatch.
func controlError(err error, socketPath string) error {
	if diagnosed := cli.DiagnoseSocketError(err, socketPath); diagnosed != nil {
		return diagnosed
	}
	var callErr *control.CallError
	if errors.As(err, &callErr) {
		return cli.Internal("%s", callErr.Message)
	}
	return cli.Unavailable("control request failed: %w", err)
}

// statusCommand returns the "status" subcommand.
func statusCommand() *cli.Command {
	var socketPath string

	return &cli.Command{
		Name:    "status",
		Summary: "Show daemon status",
		Description: `Query the daemon's control socket and print version, uptime, and
session counters.`,
		Usage: "quarterdeck status [flags]",
		Flags: controlSocketFlag("status", &socketPath),
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			var status control.StatusData
			if err := control.NewClient(socketPath).Call(ctx, control.ActionStatus, nil, &status); err != nil {
				return controlError(err, socketPath)
			}

			fmt.Printf("version:  %s\n", status.Version)
			fmt.Printf("pid:      %d\n", status.PID)
			fmt.Printf("uptime:   %s\n", time.Duration(status.UptimeSeconds)*time.Second)
			fmt.Printf("commands: %d\n", status.Commands)
			fmt.Printf("sessions: %d\n", status.Sessions)
			return nil
		},
	}
}

// sessionsCommand returns the "sessions" subcommand.
func sessionsCommand() *cli.Command {
	var socketPath string

	return &cli.Command{
		Name:    "sessions",
		Summary: "List connected console sessions",
		Usage:   "quarterdeck sessions [flags]",
		Flags:   controlSocketFlag("sessions", &socketPath),
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			var data control.SessionsData
			if err := control.NewClient(socketPath).Call(ctx, control.ActionSessions, nil, &data); err != nil {
				return controlError(err, socketPath)
			}

			if len(data.Sessions) == 0 {
				fmt.Println("no active sessions")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tTRANSPORT\tREMOTE\tCONNECTED\tIDLE\tLINES")
			for _, session := range data.Sessions {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%d\n",
					session.ID,
					session.Transport,
					session.Remote,
					time.Unix(session.ConnectedAt, 0).Format(time.RFC3339),
					time.Duration(session.IdleSeconds)*time.Second,
					session.Lines)
			}
			return writer.Flush()
		},
	}
}

// closeCommand returns the "close" subcommand.
func closeCommand() *cli.Command {
	var socketPath string

	return &cli.Command{
		Name:    "close",
		Summary: "Disconnect a console session",
		Description: `Ask the daemon to disconnect one console session. The session id
comes from 'quarterdeck sessions'.`,
		Usage: "quarterdeck close <session-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Close session 3",
				Command:     "quarterdeck close 3",
			},
		},
		Flags: controlSocketFlag("close", &socketPath),
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return cli.Validation("session id required\n\nUsage: quarterdeck close <session-id> [flags]")
			}
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return cli.Validation("invalid session id %q", args[0])
			}

			err = control.NewClient(socketPath).Call(ctx, control.ActionClose, map[string]any{"id": id}, nil)
			if err != nil {
				var callErr *control.CallError
				if errors.As(err, &callErr) {
					return cli.NotFound("%s", callErr.Message).
						WithHint("Run 'quarterdeck sessions' to list active sessions.")
				}
				return controlError(err, socketPath)
			}

			fmt.Printf("closed session %d\n", id)
			return nil
		},
	}
}
