// Package logging configures the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the output format, level and optional log file.
type Config struct {
	Env   string // development -> console output; anything else -> JSON
	Level string // trace, debug, info, warn, error
	File  string
}

// levelRouter is a zerolog.LevelWriter that routes INFO/WARN to stdout and
// ERROR+ to stderr.
type levelRouter struct {
	stdout io.Writer
	stderr io.Writer
}

func (lr levelRouter) Write(p []byte) (int, error) {
	return lr.stdout.Write(p)
}

func (lr levelRouter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level != zerolog.NoLevel {
		return lr.stderr.Write(p)
	}
	return lr.stdout.Write(p)
}

// New builds the logger and installs it as the zerolog global. If cfg.File is
// set, every level is also appended to that file. The returned cleanup
// closes the file and is never nil.
func New(cfg Config) (zerolog.Logger, func(), error) {
	cleanup := func() {}

	stdout := io.Writer(os.Stdout)
	stderr := io.Writer(os.Stderr)

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), cleanup, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	logger := NewWithWriters(cfg, stdout, stderr)
	log.Logger = logger
	return logger, cleanup, nil
}

// NewWithWriters builds a logger over the given streams without touching
// the global logger.
func NewWithWriters(cfg Config, stdout, stderr io.Writer) zerolog.Logger {
	if cfg.Env == "development" {
		stdout = zerolog.ConsoleWriter{Out: stdout, NoColor: true}
		stderr = zerolog.ConsoleWriter{Out: stderr, NoColor: true}
	}

	return zerolog.New(levelRouter{stdout: stdout, stderr: stderr}).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
