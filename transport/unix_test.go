// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quarterdeck-io/quarterdeck/lib/testutil"
)

func testUnixPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(testutil.SocketDir(t), "console.sock")
}

func TestUnixRoundTrip(t *testing.T) {
	path := testUnixPath(t)
	listener, err := NewUnixListener(path, testLogger())
	if err != nil {
		t.Fatalf("NewUnixListener() error: %v", err)
	}

	remotes := make(chan string, 1)
	handler := func(ctx context.Context, conn io.ReadWriteCloser, remote string) {
		remotes <- remote
		echoHandler(ctx, conn, remote)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listener.Serve(ctx, handler)
	}()

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dialing socket: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("uptime\n")); err != nil {
		t.Fatalf("writing: %v", err)
	}
	reply := make([]byte, 7)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("reading echo: %v", err)
	}
	if string(reply) != "uptime\n" {
		t.Errorf("echo = %q, want %q", reply, "uptime\n")
	}

	if remote := testutil.RequireReceive(t, remotes, 5*time.Second, "handler was not invoked"); remote != path {
		t.Errorf("remote = %q, want %q", remote, path)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve() returned error: %v", err)
	}
}

func TestUnixListener_SocketMode(t *testing.T) {
	path := testUnixPath(t)
	listener, err := NewUnixListener(path, testLogger())
	if err != nil {
		t.Fatalf("NewUnixListener() error: %v", err)
	}
	defer listener.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s) error: %v", path, err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("socket mode = %o, want 0600", mode)
	}
}

func TestUnixListener_RemovesStaleFile(t *testing.T) {
	path := testUnixPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("creating stale file: %v", err)
	}

	listener, err := NewUnixListener(path, testLogger())
	if err != nil {
		t.Fatalf("NewUnixListener() error with stale file present: %v", err)
	}
	listener.Close()
}

func TestUnixListener_RefusesLiveSocket(t *testing.T) {
	path := testUnixPath(t)
	occupant, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("creating occupant listener: %v", err)
	}
	defer occupant.Close()

	// Something is answering on the socket, so the address must not
	// be stolen.
	if _, err := NewUnixListener(path, testLogger()); err == nil {
		t.Error("NewUnixListener() = nil error for a socket in use")
	} else if !strings.Contains(err.Error(), "in use") {
		t.Errorf("NewUnixListener() error = %v, want an in-use error", err)
	}
}

func TestUnixListener_RemovesSocketOnShutdown(t *testing.T) {
	path := testUnixPath(t)
	listener, err := NewUnixListener(path, testLogger())
	if err != nil {
		t.Fatalf("NewUnixListener() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listener.Serve(ctx, echoHandler)
	}()

	// The socket exists while serving.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("socket missing while serving: %v", err)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve() returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("socket file not removed after Serve returned")
	}
}
