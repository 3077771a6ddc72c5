// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quarterdeck-io/quarterdeck/lib/config"
	"github.com/quarterdeck-io/quarterdeck/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		logFormat   string
		stdio       bool
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "configuration file path (default: $QUARTERDECK_CONFIG)")
	flag.StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	flag.StringVar(&logFormat, "log-format", "", "override the configured log format (text, json)")
	flag.BoolVar(&stdio, "stdio", false, "serve a single console session on stdin/stdout and exit when it ends")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("quarterdeck-daemon %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if stdio {
		// A stdio daemon is its own console; configured listeners stay
		// off so the process ends with the session.
		cfg.Listeners = config.ListenersConfig{Stdio: true}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := new(slog.LevelVar)
	logger, err := newLogger(cfg.Log, level)
	if err != nil {
		return err
	}

	idleTimeout, err := cfg.IdleTimeout()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := newDaemon(cfg, idleTimeout, level, logger)
	d.controlEnabled = !stdio
	return d.run(ctx)
}

// newLogger builds the daemon logger from validated log configuration.
// The LevelVar is shared with the loglevel console command so operators
// can change verbosity at runtime. The logger is also installed as the
// slog default.
func newLogger(cfg config.LogConfig, level *slog.LevelVar) (*slog.Logger, error) {
	parsed, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level.Set(parsed)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (use debug, info, warn, error)", s)
}
