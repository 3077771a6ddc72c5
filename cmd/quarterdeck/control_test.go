// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quarterdeck-io/quarterdeck/cmd/quarterdeck/cli"
	"github.com/quarterdeck-io/quarterdeck/lib/codec"
	"github.com/quarterdeck-io/quarterdeck/lib/control"
	"github.com/quarterdeck-io/quarterdeck/lib/testutil"
)

// startControlServer runs a control server on a fresh socket and
// returns the socket path. The server stops when the test ends.
func startControlServer(t *testing.T, register func(*control.Server)) string {
	t.Helper()

	socketPath := filepath.Join(testutil.SocketDir(t), "control.sock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := control.NewServer(socketPath, logger)
	register(server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitForSocket(t, socketPath)
	return socketPath
}

func TestStatusCommand(t *testing.T) {
	socketPath := startControlServer(t, func(server *control.Server) {
		server.Handle(control.ActionStatus, func(ctx context.Context, raw []byte) (any, error) {
			return control.StatusData{
				Version:       "0.1.0-test",
				PID:           4242,
				UptimeSeconds: 3723,
				Commands:      5,
				Sessions:      2,
			}, nil
		})
	})

	var runErr error
	output := captureStdout(t, func() {
		runErr = statusCommand().Execute(t.Context(), []string{"--socket", socketPath})
	})
	if runErr != nil {
		t.Fatalf("Execute() error: %v", runErr)
	}

	for _, want := range []string{
		"version:  0.1.0-test",
		"pid:      4242",
		"uptime:   1h2m3s",
		"commands: 5",
		"sessions: 2",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestSessionsCommand_Empty(t *testing.T) {
	socketPath := startControlServer(t, func(server *control.Server) {
		server.Handle(control.ActionSessions, func(ctx context.Context, raw []byte) (any, error) {
			return control.SessionsData{}, nil
		})
	})

	var runErr error
	output := captureStdout(t, func() {
		runErr = sessionsCommand().Execute(t.Context(), []string{"--socket", socketPath})
	})
	if runErr != nil {
		t.Fatalf("Execute() error: %v", runErr)
	}
	if output != "no active sessions\n" {
		t.Errorf("output = %q, want %q", output, "no active sessions\n")
	}
}

func TestSessionsCommand_ListsSessions(t *testing.T) {
	connectedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC).Unix()
	socketPath := startControlServer(t, func(server *control.Server) {
		server.Handle(control.ActionSessions, func(ctx context.Context, raw []byte) (any, error) {
			return control.SessionsData{
				Sessions: []control.SessionInfo{
					{ID: 1, Transport: "unix", Remote: "@", ConnectedAt: connectedAt, IdleSeconds: 42, Lines: 7},
					{ID: 2, Transport: "tcp", Remote: "10.0.0.5:51234", ConnectedAt: connectedAt, IdleSeconds: 0, Lines: 0},
				},
			}, nil
		})
	})

	var runErr error
	output := captureStdout(t, func() {
		runErr = sessionsCommand().Execute(t.Context(), []string{"--socket", socketPath})
	})
	if runErr != nil {
		t.Fatalf("Execute() error: %v", runErr)
	}

	// The timestamp renders in the local zone; compute the expected
	// string the same way the command does.
	wantTime := time.Unix(connectedAt, 0).Format(time.RFC3339)
	for _, want := range []string{
		"ID", "TRANSPORT", "REMOTE", "CONNECTED", "IDLE", "LINES",
		"unix", "tcp", "10.0.0.5:51234", wantTime, "42s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCloseCommand(t *testing.T) {
	received := make(chan uint64, 1)
	socketPath := startControlServer(t, func(server *control.Server) {
		server.Handle(control.ActionClose, func(ctx context.Context, raw []byte) (any, error) {
			var request struct {
				ID uint64 `cbor:"id"`
			}
			if err := codec.Unmarshal(raw, &request); err != nil {
				return nil, err
			}
			received <- request.ID
			return nil, nil
		})
	})

	var runErr error
	output := captureStdout(t, func() {
		runErr = closeCommand().Execute(t.Context(), []string{"--socket", socketPath, "7"})
	})
	if runErr != nil {
		t.Fatalf("Execute() error: %v", runErr)
	}
	if output != "closed session 7\n" {
		t.Errorf("output = %q, want %q", output, "closed session 7\n")
	}
	if id := testutil.RequireReceive(t, received, 5*time.Second, "close request"); id != 7 {
		t.Errorf("server received id %d, want 7", id)
	}
}

func TestCloseCommand_UnknownSession(t *testing.T) {
	socketPath := startControlServer(t, func(server *control.Server) {
		server.Handle(control.ActionClose, func(ctx context.Context, raw []byte) (any, error) {
			return nil, fmt.Errorf("no session with id 42")
		})
	})

	err := closeCommand().Execute(t.Context(), []string{"--socket", socketPath, "42"})
	if err == nil {
		t.Fatal("Execute() = nil, want error")
	}
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %v, want ToolError", err)
	}
	if toolErr.Category != cli.CategoryNotFound {
		t.Errorf("Category = %q, want %q", toolErr.Category, cli.CategoryNotFound)
	}
	if !strings.Contains(err.Error(), "no session with id 42") {
		t.Errorf("error = %q, should carry the server message", err.Error())
	}
	if !strings.Contains(toolErr.Hint, "quarterdeck sessions") {
		t.Errorf("Hint = %q, should point at the sessions command", toolErr.Hint)
	}
}

func TestCloseCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "session id required"},
		{"non-numeric id", []string{"abc"}, "invalid session id"},
		{"extra argument", []string{"1", "2"}, "unexpected argument"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := closeCommand().Execute(t.Context(), test.args)
			if err == nil {
				t.Fatal("Execute() = nil, want validation error")
			}
			var toolErr *cli.ToolError
			if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
				t.Fatalf("error = %v, want validation ToolError", err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %q, want %q", err.Error(), test.want)
			}
		})
	}
}

func TestStatusCommand_MissingSocket(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "missing.sock")

	err := statusCommand().Execute(t.Context(), []string{"--socket", socketPath})
	if err == nil {
		t.Fatal("Execute() = nil, want error")
	}
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %v, want ToolError", err)
	}
	if toolErr.Category != cli.CategoryNotFound {
		t.Errorf("Category = %q, want %q", toolErr.Category, cli.CategoryNotFound)
	}
	if !strings.Contains(toolErr.Hint, "quarterdeck-daemon") {
		t.Errorf("Hint = %q, should mention the daemon", toolErr.Hint)
	}
}
