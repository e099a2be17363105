// Package worldlog is the structured-event sink the storage and plugin
// layers emit into. It used to be a single process-wide logger target
// ("worlds"); here it is an observer handle a caller constructs once and
// threads through explicitly, so a host embedding multiple world stores
// can give each its own sink.
package worldlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how events are written. The zero value logs
// JSON lines to stderr at info level.
type Config struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Level      logrus.Level
}

// Logger is a lightweight wrapper over a logrus entry, pre-tagged with the
// "worlds" target so downstream log shipping can filter on it the same way
// the single global logger used to be filtered.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger from cfg. A nil *Logger is valid and every method on
// it is a no-op, so callers that don't care about observability can pass
// nil through the storage and plugin constructors.
func New(cfg Config) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	level := cfg.Level
	if level == 0 {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	var out io.Writer = os.Stderr
	if cfg.FilePath != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}
	base.SetOutput(out)

	return &Logger{entry: logrus.NewEntry(base).WithField("target", "worlds")}
}

// With returns a child logger carrying additional fields on every event.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Info(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}
