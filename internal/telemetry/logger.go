// Package telemetry writes structured JSONL logs to a file so the TUI
// can keep the terminal clean. An empty path discards everything.
package telemetry

import (
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type Logger struct {
	l *charmlog.Logger
	f *os.File
}

// New opens a JSONL logger appending to path. With an empty path the
// logger is still usable but writes nowhere.
func New(path string) (*Logger, error) {
	if path == "" {
		return &Logger{l: newCharmLogger(io.Discard)}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{l: newCharmLogger(f), f: f}, nil
}

func newCharmLogger(w io.Writer) *charmlog.Logger {
	l := charmlog.New(w)
	l.SetFormatter(charmlog.JSONFormatter)
	l.SetLevel(charmlog.DebugLevel)
	l.SetReportTimestamp(true)
	return l
}

func (l *Logger) Debug(msg string, kv ...any) {
	if l == nil || l.l == nil {
		return
	}
	l.l.Debug(msg, kv...)
}

func (l *Logger) Info(msg string, kv ...any) {
	if l == nil || l.l == nil {
		return
	}
	l.l.Info(msg, kv...)
}

func (l *Logger) Error(msg string, kv ...any) {
	if l == nil || l.l == nil {
		return
	}
	l.l.Error(msg, kv...)
}

func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
