// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/quarterdeck-io/quarterdeck/lib/config"
	"github.com/quarterdeck-io/quarterdeck/lib/control"
	"github.com/quarterdeck-io/quarterdeck/lib/testutil"
)

// waitForSocket polls until the socket file exists. The enclosing
// test's timeout bounds the wait.
func waitForSocket(t *testing.T, path string) {
	t.Helper()
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if err := t.Context().Err(); err != nil {
			t.Fatalf("context ended waiting for %s: %v", path, err)
		}
		runtime.Gosched()
	}
}

func TestDaemonServesConsoleAndControl(t *testing.T) {
	dir := testutil.SocketDir(t)
	cfg := config.Default()
	cfg.Listeners.Unix = filepath.Join(dir, "console.sock")
	cfg.Control.Socket = filepath.Join(dir, "control.sock")

	d := newDaemon(cfg, 0, new(slog.LevelVar), testLogger())
	ctx, cancel := context.WithCancel(t.Context())
	runDone := make(chan error, 1)
	go func() { runDone <- d.run(ctx) }()

	waitForSocket(t, cfg.Listeners.Unix)
	conn, err := net.Dial("unix", cfg.Listeners.Unix)
	if err != nil {
		t.Fatalf("dialing console: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("echo ahoy\n")); err != nil {
		t.Fatalf("writing command: %v", err)
	}
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil || line != "ahoy\n" {
		t.Fatalf("got %q, %v, want echo reply", line, err)
	}

	waitForSocket(t, cfg.Control.Socket)
	client := control.NewClient(cfg.Control.Socket)

	var status control.StatusData
	if err := client.Call(ctx, control.ActionStatus, nil, &status); err != nil {
		t.Fatalf("status call: %v", err)
	}
	if status.Sessions != 1 {
		t.Errorf("got %d sessions, want 1", status.Sessions)
	}
	if status.Commands != len(d.table) {
		t.Errorf("got %d commands, want %d", status.Commands, len(d.table))
	}
	if status.PID != os.Getpid() {
		t.Errorf("got pid %d, want %d", status.PID, os.Getpid())
	}

	var sessions control.SessionsData
	if err := client.Call(ctx, control.ActionSessions, nil, &sessions); err != nil {
		t.Fatalf("sessions call: %v", err)
	}
	if len(sessions.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions.Sessions))
	}
	info := sessions.Sessions[0]
	if info.Transport != "unix" {
		t.Errorf("got transport %q, want %q", info.Transport, "unix")
	}
	if info.Remote != cfg.Listeners.Unix {
		t.Errorf("got remote %q, want %q", info.Remote, cfg.Listeners.Unix)
	}
	if info.Lines != 1 {
		t.Errorf("got %d lines, want 1", info.Lines)
	}

	// Forced disconnect through the control plane unblocks the console
	// client with EOF.
	readErr := make(chan error, 1)
	go func() {
		_, err := conn.Read(make([]byte, 1))
		readErr <- err
	}()
	if err := client.Call(ctx, control.ActionClose, map[string]any{"id": info.ID}, nil); err != nil {
		t.Fatalf("close call: %v", err)
	}
	if err := testutil.RequireReceive(t, readErr, 5*time.Second, "console read did not unblock"); !errors.Is(err, io.EOF) {
		t.Fatalf("got console read error %v, want EOF", err)
	}

	var callErr *control.CallError
	err = client.Call(ctx, control.ActionClose, map[string]any{"id": uint64(99)}, nil)
	if !errors.As(err, &callErr) {
		t.Fatalf("got %v, want CallError for unknown session", err)
	}

	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "daemon did not stop"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(cfg.Listeners.Unix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("console socket still present after shutdown: %v", err)
	}
	if _, err := os.Stat(cfg.Control.Socket); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("control socket still present after shutdown: %v", err)
	}
}

func TestDaemonListenerSetupFailure(t *testing.T) {
	dir := testutil.SocketDir(t)
	cfg := config.Default()
	cfg.Listeners.Unix = filepath.Join(dir, "missing", "console.sock")
	cfg.Control.Socket = filepath.Join(dir, "control.sock")

	d := newDaemon(cfg, 0, new(slog.LevelVar), testLogger())
	if err := d.run(t.Context()); err == nil {
		t.Fatal("run succeeded with an unusable listener path")
	}
}

func TestDaemonControlDisabled(t *testing.T) {
	dir := testutil.SocketDir(t)
	cfg := config.Default()
	cfg.Listeners.Unix = filepath.Join(dir, "console.sock")
	cfg.Control.Socket = filepath.Join(dir, "control.sock")

	d := newDaemon(cfg, 0, new(slog.LevelVar), testLogger())
	d.controlEnabled = false
	ctx, cancel := context.WithCancel(t.Context())
	runDone := make(chan error, 1)
	go func() { runDone <- d.run(ctx) }()

	waitForSocket(t, cfg.Listeners.Unix)
	conn, err := net.Dial("unix", cfg.Listeners.Unix)
	if err != nil {
		t.Fatalf("dialing console: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("echo aye\n")); err != nil {
		t.Fatalf("writing command: %v", err)
	}
	reader := bufio.NewReader(conn)
	if line, err := reader.ReadString('\n'); err != nil || line != "aye\n" {
		t.Fatalf("got %q, %v, want echo reply", line, err)
	}

	if _, err := os.Stat(cfg.Control.Socket); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("control socket exists while disabled: %v", err)
	}

	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "daemon did not stop"); err != nil {
		t.Fatalf("run: %v", err)
	}
}
