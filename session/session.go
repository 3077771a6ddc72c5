// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/quarterdeck-io/quarterdeck/console"
	"github.com/quarterdeck-io/quarterdeck/lib/clock"
	"github.com/quarterdeck-io/quarterdeck/linebuf"
)

// Session is one console conversation over one connection. Sessions
// are created by a [Manager]; the exported surface is read-only
// metadata, reached through [Manager.Snapshot].
type Session struct {
	id          uint64
	transport   string
	remote      string
	conn        io.ReadWriteCloser
	clock       clock.Clock
	connectedAt time.Time

	mu           sync.Mutex
	lastActivity time.Time
	lines        uint64
	idle         *clock.Timer
	idleTimeout  time.Duration
}

// Info is a point-in-time description of a session, for status
// listings. Lines counts every line read from the connection,
// overflow fragments included.
type Info struct {
	ID           uint64
	Transport    string
	Remote       string
	ConnectedAt  time.Time
	LastActivity time.Time
	Lines        uint64
}

func (s *Session) info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.id,
		Transport:    s.transport,
		Remote:       s.remote,
		ConnectedAt:  s.connectedAt,
		LastActivity: s.lastActivity,
		Lines:        s.lines,
	}
}

// touch records line activity: bumps the counter, stamps the time,
// and pushes the idle deadline out.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = s.clock.Now()
	s.lines++
	idle := s.idle
	timeout := s.idleTimeout
	s.mu.Unlock()

	if idle != nil {
		idle.Reset(timeout)
	}
}

// armIdle starts the idle timer. onIdle runs on the clock's goroutine
// when the session has been quiet for the full timeout.
func (s *Session) armIdle(timeout time.Duration, clk clock.Clock, onIdle func()) {
	s.mu.Lock()
	s.idleTimeout = timeout
	s.idle = clk.AfterFunc(timeout, onIdle)
	s.mu.Unlock()
}

func (s *Session) stopIdle() {
	s.mu.Lock()
	idle := s.idle
	s.idle = nil
	s.mu.Unlock()

	if idle != nil {
		idle.Stop()
	}
}

// serve wires the connection into a dispatcher and runs it to
// completion: line buffer, activity tracking, transcript tee, banner,
// command table.
func (s *Session) serve(ctx context.Context, config Config, recorder *Recorder, logger *slog.Logger) error {
	var out io.Writer = s.conn
	if recorder != nil {
		out = &teeWriter{conn: s.conn, recorder: recorder}
	}

	if config.Banner != "" {
		if _, err := io.WriteString(out, config.Banner+"\n"); err != nil {
			return err
		}
	}

	source := &activitySource{
		inner:    linebuf.New(s.conn, config.LineMax),
		session:  s,
		recorder: recorder,
	}

	dispatcher := console.New(console.Config{
		Source:  source,
		Output:  out,
		Table:   config.Table,
		MaxArgs: config.MaxArgs,
		Logger:  logger,
	})
	return dispatcher.Run(ctx)
}

// activitySource decorates the session's line source so that every
// line read counts as activity and lands in the transcript.
type activitySource struct {
	inner    console.LineSource
	session  *Session
	recorder *Recorder
}

func (a *activitySource) ReadLine(ctx context.Context) ([]byte, bool, error) {
	line, overflow, err := a.inner.ReadLine(ctx)
	if err != nil {
		return line, overflow, err
	}
	a.session.touch()
	if a.recorder != nil {
		a.recorder.Input(line)
	}
	return line, overflow, nil
}

// teeWriter copies console output into the transcript. Transcript
// failures never disturb the console stream.
type teeWriter struct {
	conn     io.Writer
	recorder *Recorder
}

func (w *teeWriter) Write(p []byte) (int, error) {
	n, err := w.conn.Write(p)
	if n > 0 {
		w.recorder.Output(p[:n])
	}
	return n, err
}
