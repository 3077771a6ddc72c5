// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/quarterdeck-io/quarterdeck/lib/clock"
)

// Compile-time interface check.
var _ Listener = (*SerialListener)(nil)

// baudRates maps configured baud rates to their termios speed
// constants.
var baudRates = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}

// reopenDelay is how long the listener waits before reopening the
// device after a session ends or a reopen attempt fails. Covers the
// settle time of USB serial adapters being re-enumerated.
const reopenDelay = 2 * time.Second

// SerialListener serves console sessions over a serial device. The
// device carries one session at a time; when a session ends (the far
// end went away, or the adapter was unplugged), the listener reopens
// the device after a delay and starts the next one.
//
// The device is configured raw 8N1 at the requested baud rate. Line
// discipline stays off: the console's own line buffering handles
// accumulation and overflow.
type SerialListener struct {
	device string
	baud   int
	clock  clock.Clock
	logger *slog.Logger

	mu   sync.Mutex
	port *os.File

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSerialListener creates a listener for the serial device at the
// given path and baud rate. The device itself is opened by Serve.
func NewSerialListener(device string, baud int, clk clock.Clock, logger *slog.Logger) (*SerialListener, error) {
	if _, ok := baudRates[baud]; !ok {
		return nil, fmt.Errorf("unsupported baud rate %d for %s", baud, device)
	}
	return &SerialListener{
		device: device,
		baud:   baud,
		clock:  clk,
		logger: logger,
		closed: make(chan struct{}),
	}, nil
}

// Serve opens the device and runs console sessions over it until ctx
// is cancelled or Close is called. A device that cannot be opened at
// startup is a configuration problem and fails Serve immediately;
// failures after the first successful open are treated as transient
// (unplugged adapters) and retried.
func (l *SerialListener) Serve(ctx context.Context, handler Handler) error {
	opened := false
	for {
		if ctx.Err() != nil || l.isClosed() {
			return nil
		}

		port, err := l.open()
		if err != nil {
			if l.isClosed() {
				return nil
			}
			if !opened {
				return err
			}
			l.logger.Warn("serial reopen failed", "device", l.device, "error", err)
		} else {
			opened = true
			l.logger.Info("console listening", "transport", "serial", "device", l.device)
			handler(ctx, port, l.device)
			l.releasePort(port)
			if ctx.Err() != nil || l.isClosed() {
				return nil
			}
			l.logger.Info("serial session ended", "device", l.device)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.closed:
			return nil
		case <-l.clock.After(reopenDelay):
		}
	}
}

// Address returns the device path.
func (l *SerialListener) Address() string {
	return l.device
}

// Close stops the listener and closes the device, unblocking any
// pending session read.
func (l *SerialListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
	})

	l.mu.Lock()
	port := l.port
	l.port = nil
	l.mu.Unlock()

	if port != nil {
		return port.Close()
	}
	return nil
}

func (l *SerialListener) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

// open opens and configures the device, and records it so Close can
// reach a session in progress.
func (l *SerialListener) open() (*os.File, error) {
	port, err := OpenSerial(l.device, l.baud)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.port = port
	l.mu.Unlock()

	if l.isClosed() {
		// Close raced with the open; don't hand a session a dead port.
		port.Close()
		return nil, fmt.Errorf("listener closed")
	}
	return port, nil
}

func (l *SerialListener) releasePort(port *os.File) {
	l.mu.Lock()
	if l.port == port {
		l.port = nil
	}
	l.mu.Unlock()
	port.Close()
}

// OpenSerial opens a serial device in raw 8N1 mode at the given baud
// rate. The caller owns the returned file. Shared by the listener and
// by clients bridging a local terminal straight onto a UART.
func OpenSerial(device string, baud int) (*os.File, error) {
	speed, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate %d for %s", baud, device)
	}
	port, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", device, err)
	}
	if err := configureRaw(port, speed); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// configureRaw puts the device into raw 8N1 mode at the given speed.
// The file's own descriptor is configured through SyscallConn so the
// runtime keeps it pollable; a plain Fd() call would switch the file
// to blocking mode and break read cancellation via Close.
func configureRaw(port *os.File, speed uint32) error {
	raw, err := port.SyscallConn()
	if err != nil {
		return fmt.Errorf("accessing %s: %w", port.Name(), err)
	}

	var ioctlErr error
	if err := raw.Control(func(fd uintptr) {
		ioctlErr = setRawTermios(int(fd), speed)
	}); err != nil {
		return fmt.Errorf("accessing %s: %w", port.Name(), err)
	}
	if ioctlErr != nil {
		return fmt.Errorf("configuring %s: %w", port.Name(), ioctlErr)
	}
	return nil
}

func setRawTermios(fd int, speed uint32) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("reading termios: %w", err)
	}

	// No input translation or flow control: bytes arrive exactly as
	// sent, CR included.
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	// No output post-processing.
	termios.Oflag &^= unix.OPOST
	// No echo, no canonical line editing, no signal characters.
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	// 8 data bits, no parity, one stop bit, receiver on, modem
	// control lines ignored.
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	// Block until at least one byte is available.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("writing termios: %w", err)
	}
	return nil
}
