// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the quarterdeck
// daemon.
//
// Configuration comes from a single YAML file named by the
// QUARTERDECK_CONFIG environment variable or a --config flag. Every
// field has a usable default, so a missing or empty file yields a
// working local configuration (Unix socket listener, info-level text
// logs). The file is the single source of truth: environment
// variables never override individual fields, the only expansion is
// ${VAR} / ${VAR:-default} in path-valued fields for portability.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Log configures structured logging output.
	Log LogConfig `yaml:"log"`

	// Console configures per-session dispatcher behavior.
	Console ConsoleConfig `yaml:"console"`

	// Listeners selects where console sessions are accepted.
	Listeners ListenersConfig `yaml:"listeners"`

	// Control configures the local control socket the CLI talks to.
	Control ControlConfig `yaml:"control"`

	// Capture configures per-session transcript files.
	Capture CaptureConfig `yaml:"capture"`
}

// LogConfig selects slog handler and level.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is the handler type: text or json.
	Format string `yaml:"format"`
}

// ConsoleConfig tunes the dispatcher each session runs.
type ConsoleConfig struct {
	// Banner is written to a session before its first prompt-less
	// read. Empty disables it.
	Banner string `yaml:"banner"`

	// MaxArgs caps tokens per command line; extra tokens are dropped.
	MaxArgs int `yaml:"max_args"`

	// LineMax is the line buffer capacity in bytes. Longer lines are
	// reported as overflows and discarded.
	LineMax int `yaml:"line_max"`

	// IdleTimeout closes a session with no input for this long.
	// Duration string ("10m", "1h30m"); "0" or empty disables.
	IdleTimeout string `yaml:"idle_timeout"`
}

// ListenersConfig enables console endpoints. Empty values disable an
// endpoint; at least one must be enabled.
type ListenersConfig struct {
	// Stdio serves a single session on the daemon's stdin/stdout.
	Stdio bool `yaml:"stdio"`

	// TCP is a host:port accept address.
	TCP string `yaml:"tcp"`

	// Unix is a filesystem socket path.
	Unix string `yaml:"unix"`

	// Serial attaches the console to a local tty device.
	Serial SerialConfig `yaml:"serial"`
}

// SerialConfig describes a serial console endpoint.
type SerialConfig struct {
	// Device is the tty path, e.g. /dev/ttyS0. Empty disables.
	Device string `yaml:"device"`

	// Baud is the line rate. Must be one of the standard termios
	// rates; the default is 115200.
	Baud int `yaml:"baud"`
}

// ControlConfig locates the control socket.
type ControlConfig struct {
	// Socket is the Unix socket path the daemon answers status,
	// sessions, and close requests on.
	Socket string `yaml:"socket"`
}

// CaptureConfig enables per-session transcripts.
type CaptureConfig struct {
	// Enabled turns capture on.
	Enabled bool `yaml:"enabled"`

	// Dir is the directory transcript files are created in. Required
	// when Enabled.
	Dir string `yaml:"dir"`

	// Compress writes zstd-compressed transcripts (.log.zst).
	Compress bool `yaml:"compress"`
}

// Default returns the configuration used when no file sets a field:
// a Unix socket console, a control socket beside it, text logs at
// info, no capture, no idle timeout.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Console: ConsoleConfig{
			MaxArgs:     10,
			LineMax:     256,
			IdleTimeout: "0",
		},
		Listeners: ListenersConfig{
			Unix: "/run/quarterdeck/console.sock",
			Serial: SerialConfig{
				Baud: 115200,
			},
		},
		Control: ControlConfig{
			Socket: "/run/quarterdeck/control.sock",
		},
		Capture: CaptureConfig{
			Dir:      "/var/log/quarterdeck",
			Compress: true,
		},
	}
}

// Load loads configuration from the file named by QUARTERDECK_CONFIG,
// or returns Default() when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("QUARTERDECK_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path-valued
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":    os.Getenv("HOME"),
		"RUNTIME": os.Getenv("XDG_RUNTIME_DIR"),
	}

	c.Listeners.Unix = expandVars(c.Listeners.Unix, vars)
	c.Listeners.Serial.Device = expandVars(c.Listeners.Serial.Device, vars)
	c.Control.Socket = expandVars(c.Control.Socket, vars)
	c.Capture.Dir = expandVars(c.Capture.Dir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// IdleTimeout returns the parsed console idle timeout; zero means
// disabled. Validate has already vetted the string, so errors here
// only occur on unvalidated configs.
func (c *Config) IdleTimeout() (time.Duration, error) {
	return parseIdleTimeout(c.Console.IdleTimeout)
}

func parseIdleTimeout(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("console.idle_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("console.idle_timeout must not be negative, got %s", s)
	}
	return d, nil
}

// Validate checks the configuration, reporting every violation.
func (c *Config) Validate() error {
	var errs []error

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if c.Console.MaxArgs < 1 {
		errs = append(errs, fmt.Errorf("console.max_args must be at least 1"))
	}
	if c.Console.LineMax < 1 {
		errs = append(errs, fmt.Errorf("console.line_max must be at least 1"))
	}
	if _, err := parseIdleTimeout(c.Console.IdleTimeout); err != nil {
		errs = append(errs, err)
	}

	if c.Listeners.TCP != "" {
		if _, _, err := net.SplitHostPort(c.Listeners.TCP); err != nil {
			errs = append(errs, fmt.Errorf("listeners.tcp: %w", err))
		}
	}
	if c.Listeners.Serial.Device != "" && c.Listeners.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("listeners.serial.baud must be positive"))
	}
	if !c.Listeners.Stdio && c.Listeners.TCP == "" && c.Listeners.Unix == "" &&
		c.Listeners.Serial.Device == "" {
		errs = append(errs, fmt.Errorf("no console listeners configured"))
	}

	if c.Control.Socket == "" {
		errs = append(errs, fmt.Errorf("control.socket is required"))
	}

	if c.Capture.Enabled && c.Capture.Dir == "" {
		errs = append(errs, fmt.Errorf("capture.dir is required when capture is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
