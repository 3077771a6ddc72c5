// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/quarterdeck-io/quarterdeck/console"
	"github.com/quarterdeck-io/quarterdeck/lib/clock"
	"github.com/quarterdeck-io/quarterdeck/lib/codec"
	"github.com/quarterdeck-io/quarterdeck/lib/config"
	"github.com/quarterdeck-io/quarterdeck/lib/control"
	"github.com/quarterdeck-io/quarterdeck/lib/version"
	"github.com/quarterdeck-io/quarterdeck/session"
	"github.com/quarterdeck-io/quarterdeck/transport"
)

// daemon is the assembled process state: session manager, command
// table, and everything the control handlers report on.
type daemon struct {
	config         *config.Config
	logger         *slog.Logger
	level          *slog.LevelVar
	clock          clock.Clock
	manager        *session.Manager
	table          []console.Command
	startedAt      time.Time
	controlEnabled bool
}

func newDaemon(cfg *config.Config, idleTimeout time.Duration, level *slog.LevelVar, logger *slog.Logger) *daemon {
	clk := clock.Real()
	d := &daemon{
		config:         cfg,
		logger:         logger,
		level:          level,
		clock:          clk,
		startedAt:      clk.Now(),
		controlEnabled: true,
	}
	d.table = d.commandTable()

	captureDir := ""
	if cfg.Capture.Enabled {
		captureDir = cfg.Capture.Dir
	}
	d.manager = session.NewManager(session.Config{
		Table:           d.table,
		MaxArgs:         cfg.Console.MaxArgs,
		LineMax:         cfg.Console.LineMax,
		Banner:          cfg.Console.Banner,
		IdleTimeout:     idleTimeout,
		CaptureDir:      captureDir,
		CaptureCompress: cfg.Capture.Compress,
		Clock:           clk,
		Logger:          logger,
	})
	return d
}

// namedListener pairs a transport listener with the name sessions and
// logs carry for it.
type namedListener struct {
	name     string
	listener transport.Listener
}

func (d *daemon) buildListeners() ([]namedListener, error) {
	var listeners []namedListener
	cfg := d.config.Listeners
	if cfg.Stdio {
		listeners = append(listeners, namedListener{"stdio", transport.NewStdioListener()})
	}
	if cfg.TCP != "" {
		listener, err := transport.NewTCPListener(cfg.TCP, d.logger)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, namedListener{"tcp", listener})
	}
	if cfg.Unix != "" {
		listener, err := transport.NewUnixListener(cfg.Unix, d.logger)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, namedListener{"unix", listener})
	}
	if cfg.Serial.Device != "" {
		listener, err := transport.NewSerialListener(cfg.Serial.Device, cfg.Serial.Baud, d.clock, d.logger)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, namedListener{"serial", listener})
	}
	return listeners, nil
}

// run serves consoles until the context is cancelled, a listener fails,
// or every listener has finished on its own (the --stdio case). A
// fatal error on one listener or the control server takes the whole
// daemon down; clean shutdown drains active sessions first.
func (d *daemon) run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	notify := context.AfterFunc(parent, func() { d.logger.Info("shutting down") })
	defer notify()

	listeners, err := d.buildListeners()
	if err != nil {
		return err
	}

	var controlPending chan error
	if d.controlEnabled {
		server := control.NewServer(d.config.Control.Socket, d.logger)
		server.Handle(control.ActionStatus, d.handleStatus)
		server.Handle(control.ActionSessions, d.handleSessions)
		server.Handle(control.ActionClose, d.handleClose)
		controlPending = make(chan error, 1)
		go func() { controlPending <- server.Serve(ctx) }()
	}

	type listenerResult struct {
		name string
		err  error
	}
	results := make(chan listenerResult, len(listeners))
	names := make([]string, 0, len(listeners))
	for _, entry := range listeners {
		names = append(names, entry.name)
		go func(entry namedListener) {
			results <- listenerResult{entry.name, entry.listener.Serve(ctx, d.manager.Handler(entry.name))}
		}(entry)
	}

	startup := []any{
		"version", version.Short(),
		"pid", os.Getpid(),
		"listeners", names,
	}
	if d.controlEnabled {
		startup = append(startup, "control_socket", d.config.Control.Socket)
	}
	d.logger.Info("quarterdeck daemon running", startup...)

	var firstErr error
	for remaining := len(listeners); remaining > 0; {
		select {
		case result := <-results:
			remaining--
			if result.err != nil {
				d.logger.Error("console listener failed", "transport", result.name, "error", result.err)
				if firstErr == nil {
					firstErr = fmt.Errorf("%s listener: %w", result.name, result.err)
				}
				cancel()
			} else {
				d.logger.Info("console listener stopped", "transport", result.name)
			}
		case err := <-controlPending:
			// Receiving here means the control server died under us;
			// on clean shutdown it outlives the listener loop.
			controlPending = nil
			if err != nil {
				d.logger.Error("control server failed", "error", err)
				if firstErr == nil {
					firstErr = fmt.Errorf("control server: %w", err)
				}
				cancel()
			}
		}
	}
	cancel()

	if controlPending != nil {
		if err := <-controlPending; err != nil {
			d.logger.Error("control server failed", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("control server: %w", err)
			}
		}
	}

	d.logger.Info("quarterdeck daemon stopped")
	return firstErr
}

func (d *daemon) handleStatus(ctx context.Context, raw []byte) (any, error) {
	return control.StatusData{
		Version:       version.Short(),
		PID:           os.Getpid(),
		UptimeSeconds: int64(d.clock.Now().Sub(d.startedAt) / time.Second),
		Commands:      len(d.table),
		Sessions:      d.manager.Count(),
	}, nil
}

func (d *daemon) handleSessions(ctx context.Context, raw []byte) (any, error) {
	infos := d.manager.Snapshot()
	now := d.clock.Now()
	data := control.SessionsData{Sessions: make([]control.SessionInfo, 0, len(infos))}
	for _, info := range infos {
		data.Sessions = append(data.Sessions, control.SessionInfo{
			ID:          info.ID,
			Transport:   info.Transport,
			Remote:      info.Remote,
			ConnectedAt: info.ConnectedAt.Unix(),
			IdleSeconds: int64(now.Sub(info.LastActivity) / time.Second),
			Lines:       info.Lines,
		})
	}
	return data, nil
}

func (d *daemon) handleClose(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		ID uint64 `cbor:"id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid close request: %w", err)
	}
	if request.ID == 0 {
		return nil, fmt.Errorf("missing required field: id")
	}
	if err := d.manager.CloseSession(request.ID); err != nil {
		return nil, err
	}
	d.logger.Info("session closed by control request", "session", request.ID)
	return nil, nil
}
