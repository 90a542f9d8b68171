// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Marlliton/slogpretty"
	"golang.org/x/term"
	ljack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/klabast/wb-services/event-kalender/internal/config"
)

// New returns a logger following cfg, plus a closer for the log file (no-op without one).
// Pretty output is used only when stderr is a terminal and the format is "auto" or "pretty".
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		fileWriter := &ljack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stderr, fileWriter)
		closer = fileWriter
	}

	format := cfg.Format
	if format == "" || format == "auto" {
		format = "json"
		if cfg.File == "" && term.IsTerminal(int(os.Stderr.Fd())) {
			format = "pretty"
		}
	}

	return slog.New(NewHandler(out, format, level)), closer, nil
}

// NewHandler picks the slog handler for a format name.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "pretty":
		// Source: https://github.com/Marlliton/slogpretty
		prettyOpts := slogpretty.DefaultOptions()
		prettyOpts.Level = level
		return slogpretty.New(w, prettyOpts)
	case "text":
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
