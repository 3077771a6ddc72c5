// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

// dialError simulates the chain net.Dial produces: the errno wrapped
// in a *net.OpError, wrapped again by the caller.
func dialError(errno error) error {
	inner := &net.OpError{
		Op:  "dial",
		Net: "unix",
		Addr: &net.UnixAddr{
			Name: "/run/quarterdeck/control.sock",
			Net:  "unix",
		},
		Err: errno,
	}
	return fmt.Errorf("dialing control socket: %w", inner)
}

func TestDiagnoseSocketError_MissingSocket(t *testing.T) {
	result := DiagnoseSocketError(dialError(syscall.ENOENT), "/run/quarterdeck/control.sock")
	if result == nil {
		t.Fatal("expected non-nil diagnosis for ENOENT")
	}
	if result.Category != CategoryNotFound {
		t.Fatalf("expected category %q, got %q", CategoryNotFound, result.Category)
	}
	if result.Hint == "" {
		t.Fatal("expected non-empty hint")
	}
}

func TestDiagnoseSocketError_ConnectionRefused(t *testing.T) {
	result := DiagnoseSocketError(dialError(syscall.ECONNREFUSED), "/run/quarterdeck/control.sock")
	if result == nil {
		t.Fatal("expected non-nil diagnosis for ECONNREFUSED")
	}
	if result.Category != CategoryUnavailable {
		t.Fatalf("expected category %q, got %q", CategoryUnavailable, result.Category)
	}
	if result.Hint == "" {
		t.Fatal("expected non-empty hint")
	}
}

func TestDiagnoseSocketError_PermissionDenied(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.EACCES, syscall.EPERM} {
		result := DiagnoseSocketError(dialError(errno), "/run/quarterdeck/control.sock")
		if result == nil {
			t.Fatalf("expected non-nil diagnosis for %v", errno)
		}
		if result.Category != CategoryForbidden {
			t.Fatalf("expected category %q for %v, got %q", CategoryForbidden, errno, result.Category)
		}
		if result.Hint == "" {
			t.Fatalf("expected non-empty hint for %v", errno)
		}
	}
}

func TestDiagnoseSocketError_NilError(t *testing.T) {
	if result := DiagnoseSocketError(nil, "/run/quarterdeck/control.sock"); result != nil {
		t.Fatalf("expected nil for nil error, got: %v", result)
	}
}

func TestDiagnoseSocketError_PlainError(t *testing.T) {
	err := errors.New("something went wrong")
	if result := DiagnoseSocketError(err, "/run/quarterdeck/control.sock"); result != nil {
		t.Fatalf("expected nil for plain error, got: %v", result)
	}
}
