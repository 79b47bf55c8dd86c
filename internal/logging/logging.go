// Package logging provides structured logging with slog for imekbd.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string

	// Format is "text" or "json".
	Format string

	// Output is "stderr" or "stdout".
	Output string
}

// DefaultConfig returns the daemon's default logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Output: "stderr"}
}

// ParseLevel resolves a level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

// levelVar lets the active level be changed at runtime (config reload).
var levelVar = func() *atomicLevel {
	l := &atomicLevel{}
	l.Set(slog.LevelInfo)
	return l
}()

type atomicLevel struct {
	v atomic.Int64
}

func (l *atomicLevel) Level() slog.Level { return slog.Level(l.v.Load()) }
func (l *atomicLevel) Set(lv slog.Level) { l.v.Store(int64(lv)) }

// SetLevel adjusts the level of loggers created by New.
func SetLevel(lv slog.Level) {
	levelVar.Set(lv)
}

// New builds a logger from cfg and also applies its level globally.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	levelVar.Set(level)

	var w io.Writer
	switch cfg.Output {
	case "stdout":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	default:
		return nil, fmt.Errorf("logging: unknown output %q", cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: levelVar}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	return slog.New(handler), nil
}
