// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package transport

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/quarterdeck-io/quarterdeck/lib/clock"
)

var errSerialUnsupported = errors.New("serial console requires linux termios support")

// OpenSerial always fails on this platform.
func OpenSerial(device string, baud int) (*os.File, error) {
	return nil, errSerialUnsupported
}

// SerialListener is only functional on Linux. On other platforms the
// constructor fails and this type exists so that daemon wiring code
// compiles unchanged.
type SerialListener struct{}

// NewSerialListener always fails on this platform.
func NewSerialListener(device string, baud int, clk clock.Clock, logger *slog.Logger) (*SerialListener, error) {
	return nil, errSerialUnsupported
}

func (l *SerialListener) Serve(ctx context.Context, handler Handler) error {
	return errSerialUnsupported
}

func (l *SerialListener) Address() string { return "" }

func (l *SerialListener) Close() error { return nil }
