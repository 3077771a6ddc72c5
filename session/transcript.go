// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Recorder captures one session's transcript: each input line prefixed
// with "> ", console output verbatim. A write failure stops capture for
// the rest of the session rather than disturbing the console; the
// session goroutine is the only caller, so no locking is needed.
type Recorder struct {
	path   string
	logger *slog.Logger

	file    *os.File
	encoder *zstd.Encoder
	writer  io.Writer
	failed  bool
}

// newRecorder opens a transcript file under dir, named for the session
// id and connect time. With compress set the file is zstd-framed and
// carries a .zst suffix.
func newRecorder(dir string, compress bool, id uint64, start time.Time, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating capture directory: %w", err)
	}

	name := fmt.Sprintf("session-%d-%s.log", id, start.Format("20060102-150405"))
	if compress {
		name += ".zst"
	}
	path := filepath.Join(dir, name)

	// Session ids are unique for the life of the daemon, so an existing
	// file means something else owns this name.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating transcript %s: %w", path, err)
	}

	recorder := &Recorder{
		path:   path,
		logger: logger,
		file:   file,
		writer: file,
	}
	if compress {
		encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			file.Close()
			os.Remove(path)
			return nil, fmt.Errorf("creating transcript encoder: %w", err)
		}
		recorder.encoder = encoder
		recorder.writer = encoder
	}
	return recorder, nil
}

// Path reports where the transcript is being written.
func (r *Recorder) Path() string {
	return r.path
}

// Input records one line the session submitted.
func (r *Recorder) Input(line []byte) {
	// One buffered write per line keeps the entry contiguous.
	entry := make([]byte, 0, len(line)+3)
	entry = append(entry, '>', ' ')
	entry = append(entry, line...)
	entry = append(entry, '\n')
	r.write(entry)
}

// Output records bytes the console wrote to the session.
func (r *Recorder) Output(p []byte) {
	r.write(p)
}

func (r *Recorder) write(p []byte) {
	if r.failed {
		return
	}
	if _, err := r.writer.Write(p); err != nil {
		r.failed = true
		r.logger.Warn("transcript write failed, capture stopped", "path", r.path, "error", err)
	}
}

// Close flushes and closes the transcript.
func (r *Recorder) Close() error {
	var encodeErr error
	if r.encoder != nil {
		encodeErr = r.encoder.Close()
	}
	return errors.Join(encodeErr, r.file.Close())
}
