package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelRouting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewWithWriters(Config{Level: "info"}, &stdout, &stderr)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hello")
	logger.Warn().Msg("careful")
	logger.Error().Msg("broken")

	out := stdout.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "careful") {
		t.Errorf("stdout missing info/warn lines: %s", out)
	}
	if strings.Contains(out, "broken") {
		t.Errorf("error line written to stdout: %s", out)
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Errorf("stderr missing error line: %s", stderr.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.log")

	logger, cleanup, err := New(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("to file")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing line: %s", data)
	}
}

func TestNewBadFile(t *testing.T) {
	_, cleanup, err := New(Config{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	if err == nil {
		t.Fatal("expected error for unopenable log file")
	}
	cleanup()
}
