package worldlog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brilliance-games/worldcore/config"
)

// TestConfigNewLoggerRoutesToLogFilePath exercises config.Config.NewLogger:
// LogFilePath has to reach a real lumberjack-backed worldlog.Logger for a
// log line to land on disk at that path.
func TestConfigNewLoggerRoutesToLogFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldcore.log")
	cfg := config.Config{LogFilePath: path}

	log := cfg.NewLogger()
	log.Info("store opened", map[string]any{"slug": "default"})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file at %s, stat error = %v", path, err)
	}
}
