package worldlog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{})
	l.entry.Logger.SetOutput(&buf)

	l.Info("chunk saved", map[string]any{"x": 1, "z": 2})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not valid JSON: %v (%q)", err, buf.String())
	}
	if line["msg"] != "chunk saved" {
		t.Errorf("msg = %v, want \"chunk saved\"", line["msg"])
	}
	if line["target"] != "worlds" {
		t.Errorf("target = %v, want \"worlds\"", line["target"])
	}
	if line["x"] != float64(1) {
		t.Errorf("x = %v, want 1", line["x"])
	}
}

func TestLoggerWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{})
	l.entry.Logger.SetOutput(&buf)

	child := l.With(map[string]any{"world": "alpha"})
	child.Warn("checkpoint skipped", nil)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if line["world"] != "alpha" {
		t.Errorf("world = %v, want \"alpha\"", line["world"])
	}
	if line["level"] != "warning" {
		t.Errorf("level = %v, want \"warning\"", line["level"])
	}
}

func TestNilLoggerMethodsAreNoOps(t *testing.T) {
	var l *Logger
	l.Info("ignored", map[string]any{"a": 1})
	l.Warn("ignored", nil)
	l.Error("ignored", nil)
	if got := l.With(map[string]any{"a": 1}); got != nil {
		t.Fatalf("With() on a nil Logger = %v, want nil", got)
	}
}

func TestNewDefaultsToInfoLevel(t *testing.T) {
	l := New(Config{})
	if l.entry.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want InfoLevel", l.entry.Logger.GetLevel())
	}
}
