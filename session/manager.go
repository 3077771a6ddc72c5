// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/quarterdeck-io/quarterdeck/console"
	"github.com/quarterdeck-io/quarterdeck/lib/clock"
	"github.com/quarterdeck-io/quarterdeck/transport"
)

// Config carries the console surface shared by every session a
// manager runs.
type Config struct {
	// Table is the command registry, in help-banner order.
	Table []console.Command

	// MaxArgs and LineMax bound each session's argument vector and
	// line buffer. Zero selects the console and linebuf defaults.
	MaxArgs int
	LineMax int

	// Banner, when non-empty, is written (with a trailing newline) to
	// every session before the first prompt is read.
	Banner string

	// IdleTimeout closes sessions that produce no input for this
	// long. Zero disables the idle policy.
	IdleTimeout time.Duration

	// CaptureDir enables transcript capture when non-empty; one file
	// per session is written beneath it. CaptureCompress selects zstd.
	CaptureDir      string
	CaptureCompress bool

	// Clock drives idle timers and timestamps. Nil selects the real
	// clock.
	Clock clock.Clock

	// Logger receives session lifecycle events. Nil selects
	// slog.Default().
	Logger *slog.Logger
}

// Manager runs console sessions over transport connections and tracks
// them for the control plane. Safe for concurrent use; each transport
// listener calls its handler from many goroutines.
type Manager struct {
	config Config
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	nextID   uint64
	sessions map[uint64]*Session
}

// NewManager creates a Manager for the given console surface.
func NewManager(config Config) *Manager {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:   config,
		clock:    clk,
		logger:   logger,
		sessions: make(map[uint64]*Session),
	}
}

// Handler adapts the manager into a transport.Handler. transportName
// tags the sessions it creates ("tcp", "unix", "stdio", "serial") in
// listings and logs.
func (m *Manager) Handler(transportName string) transport.Handler {
	return func(ctx context.Context, conn io.ReadWriteCloser, remote string) {
		m.run(ctx, conn, transportName, remote)
	}
}

// run owns one connection from registration to teardown.
func (m *Manager) run(ctx context.Context, conn io.ReadWriteCloser, transportName, remote string) {
	session := m.register(conn, transportName, remote)
	defer m.unregister(session.id)

	logger := m.logger.With("session", session.id, "transport", transportName, "remote", remote)
	logger.Info("session started")

	// The context owns the connection: daemon shutdown unblocks the
	// pending read by closing it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var recorder *Recorder
	if m.config.CaptureDir != "" {
		var err error
		recorder, err = newRecorder(m.config.CaptureDir, m.config.CaptureCompress, session.id, session.connectedAt, logger)
		if err != nil {
			// A broken capture directory must not refuse consoles.
			logger.Warn("transcript capture disabled", "error", err)
		} else {
			logger.Debug("transcript capture started", "path", recorder.Path())
			defer recorder.Close()
		}
	}

	if m.config.IdleTimeout > 0 {
		session.armIdle(m.config.IdleTimeout, m.clock, func() {
			logger.Info("closing idle session", "idle_timeout", m.config.IdleTimeout)
			conn.Close()
		})
		defer session.stopIdle()
	}

	err := session.serve(ctx, m.config, recorder, logger)
	info := session.info()
	switch {
	case err == nil:
		logger.Info("session ended", "lines", info.Lines)
	case errors.Is(err, context.Canceled):
		logger.Info("session ended by shutdown", "lines", info.Lines)
	case errors.Is(err, net.ErrClosed) || errors.Is(err, fs.ErrClosed) || errors.Is(err, io.ErrClosedPipe):
		// The close came from this side: idle timeout or the control
		// plane.
		logger.Info("session connection closed", "lines", info.Lines)
	default:
		logger.Warn("session failed", "error", err, "lines", info.Lines)
	}
}

func (m *Manager) register(conn io.ReadWriteCloser, transportName, remote string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.clock.Now()
	session := &Session{
		id:           m.nextID,
		transport:    transportName,
		remote:       remote,
		conn:         conn,
		clock:        m.clock,
		connectedAt:  now,
		lastActivity: now,
	}
	m.sessions[session.id] = session
	return session
}

func (m *Manager) unregister(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Snapshot lists the live sessions in id order.
func (m *Manager) Snapshot() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseSession disconnects one session by id. The session goroutine
// observes the closed connection and winds itself down.
func (m *Manager) CloseSession(id uint64) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no session with id %d", id)
	}
	session.conn.Close()
	return nil
}
