// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/quarterdeck-io/quarterdeck/cmd/quarterdeck/cli"
	"github.com/quarterdeck-io/quarterdeck/lib/config"
	"github.com/quarterdeck-io/quarterdeck/transport"
)

// escapeByte detaches a raw serial attach. Ctrl-] matches telnet's
// escape so serial console muscle memory carries over.
const escapeByte = 0x1d

// attachCommand returns the "attach" subcommand for interactive
// console sessions.
func attachCommand() *cli.Command {
	var (
		socketPath   string
		tcpAddress   string
		serialDevice string
		baud         int
	)
	defaults := config.Default()

	return &cli.Command{
		Name:    "attach",
		Summary: "Attach to the daemon console",
		Description: `Attach an interactive console session.

By default this connects to the daemon's unix console socket; --tcp
connects to a TCP console listener instead. Your terminal stays in its
normal line-edited mode: each line you type is sent when you press
Enter, and command output streams back. Press Ctrl-C (or close stdin)
to detach; the daemon keeps running.

With --serial, the local terminal is bridged directly onto a serial
device instead, for consoles on the other end of a UART. The terminal
is switched to raw mode so every keystroke goes straight to the wire.
Press Ctrl-] to detach.`,
		Usage: "quarterdeck attach [flags]",
		Examples: []cli.Example{
			{
				Description: "Attach over the default unix socket",
				Command:     "quarterdeck attach",
			},
			{
				Description: "Attach to a TCP console",
				Command:     "quarterdeck attach --tcp 10.0.0.5:7000",
			},
			{
				Description: "Attach to a console on a serial line",
				Command:     "quarterdeck attach --serial /dev/ttyUSB0 --baud 115200",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("attach", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", defaults.Listeners.Unix, "console unix socket path")
			flagSet.StringVar(&tcpAddress, "tcp", "", "console TCP address (host:port)")
			flagSet.StringVar(&serialDevice, "serial", "", "serial device to bridge onto (e.g. /dev/ttyUSB0)")
			flagSet.IntVar(&baud, "baud", defaults.Listeners.Serial.Baud, "baud rate for --serial")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if tcpAddress != "" && serialDevice != "" {
				return cli.Validation("--tcp and --serial are mutually exclusive")
			}

			if serialDevice != "" {
				return attachSerial(serialDevice, baud)
			}

			network, address := "unix", socketPath
			if tcpAddress != "" {
				network, address = "tcp", tcpAddress
			}
			return attachNetwork(ctx, network, address)
		},
	}
}

// attachNetwork bridges stdin/stdout onto a unix or TCP console
// connection, leaving the local terminal in cooked mode. Returns when
// the daemon closes the connection, stdin ends, or ctx is cancelled.
func attachNetwork(ctx context.Context, network, address string) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		if network == "unix" {
			if diagnosed := cli.DiagnoseSocketError(err, address); diagnosed != nil {
				return diagnosed
			}
		}
		return cli.Unavailable("connect to console at %s: %w", address, err)
	}
	defer conn.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Fprintf(os.Stderr, "Attached to %s. Press Ctrl-C to detach.\n", address)
	}

	// Cancellation (Ctrl-C) closes the connection, which unblocks the
	// output copy below.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	go func() {
		io.Copy(conn, os.Stdin)
		// Stdin is exhausted (piped input ran out). Half-close so the
		// console sees end of input, finishes the pending commands,
		// and closes the connection, ending the output copy.
		if halfCloser, ok := conn.(interface{ CloseWrite() error }); ok {
			halfCloser.CloseWrite()
		} else {
			conn.Close()
		}
	}()

	_, copyErr := io.Copy(os.Stdout, conn)
	if ctx.Err() != nil {
		if interactive {
			fmt.Fprintln(os.Stderr, "Detached.")
		}
		return nil
	}
	if copyErr != nil && !errors.Is(copyErr, net.ErrClosed) {
		return cli.Internal("reading console output: %w", copyErr)
	}
	if interactive {
		fmt.Fprintln(os.Stderr, "Connection closed.")
	}
	return nil
}

// attachSerial bridges the local terminal onto a serial device in raw
// mode. Returns when the operator presses Ctrl-] or the device goes
// away.
func attachSerial(device string, baud int) error {
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return cli.Validation("--serial requires an interactive terminal")
	}

	port, err := transport.OpenSerial(device, baud)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return cli.NotFound("no serial device at %s", device)
		case errors.Is(err, fs.ErrPermission):
			return cli.Forbidden("permission denied opening %s", device).
				WithHint("Serial devices usually belong to the dialout group:\n" +
					"  sudo usermod -aG dialout $USER")
		}
		return cli.Validation("open serial console: %w", err)
	}
	defer port.Close()

	fmt.Fprintf(os.Stderr, "Attached to %s at %d baud. Press Ctrl-] to detach.\n", device, baud)

	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		return cli.Internal("set terminal raw mode: %w", err)
	}
	defer term.Restore(stdinFd, oldState)

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChannel)
	go func() {
		<-signalChannel
		term.Restore(stdinFd, oldState)
		port.Close()
		os.Exit(0)
	}()

	// Raw mode disables output post-processing, so bare newlines from
	// the console would staircase; expand them for display.
	outputDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(&crlfWriter{w: os.Stdout}, port)
		outputDone <- err
	}()

	inputDone := make(chan error, 1)
	go func() {
		inputDone <- copyUntilEscape(port, os.Stdin, escapeByte)
	}()

	select {
	case err := <-inputDone:
		if err != nil {
			return cli.Internal("forwarding input: %w", err)
		}
		fmt.Fprintf(os.Stderr, "\r\nDetached.\r\n")
		return nil
	case err := <-outputDone:
		if err != nil && !errors.Is(err, fs.ErrClosed) {
			return cli.Unavailable("serial device lost: %w", err)
		}
		return nil
	}
}

// copyUntilEscape forwards src to dst until the escape byte appears in
// the stream, src ends, or a write fails. Bytes before the escape in
// the same read are forwarded; the escape and everything after it are
// dropped.
func copyUntilEscape(dst io.Writer, src io.Reader, escape byte) error {
	buffer := make([]byte, 4096)
	for {
		n, readErr := src.Read(buffer)
		if n > 0 {
			data := buffer[:n]
			if i := bytes.IndexByte(data, escape); i >= 0 {
				if i > 0 {
					if _, err := dst.Write(data[:i]); err != nil {
						return err
					}
				}
				return nil
			}
			if _, err := dst.Write(data); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

// crlfWriter expands bare LF to CRLF for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			n, err := c.w.Write(p)
			return written + n, err
		}
		if i > 0 {
			n, err := c.w.Write(p[:i])
			written += n
			if err != nil {
				return written, err
			}
		}
		if _, err := c.w.Write([]byte("\r\n")); err != nil {
			return written, err
		}
		written++
		p = p[i+1:]
	}
	return written, nil
}
