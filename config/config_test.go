package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.DataPath != "./data" {
		t.Errorf("DataPath = %q, want ./data", cfg.DataPath)
	}
	if cfg.BusyTimeout != 5*time.Second {
		t.Errorf("BusyTimeout = %v, want 5s", cfg.BusyTimeout)
	}
	if cfg.CheckpointInterval != 60*time.Second {
		t.Errorf("CheckpointInterval = %v, want 60s", cfg.CheckpointInterval)
	}
	if cfg.PluginMemoryLimitPages != 256 {
		t.Errorf("PluginMemoryLimitPages = %d, want 256", cfg.PluginMemoryLimitPages)
	}
}

func TestLoadFromConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worldcore.yaml")
	contents := "data_path: /srv/worldcore\nbusy_timeout_ms: 2500\ncheckpoint_interval_seconds: 30\nplugin_memory_limit_pages: 64\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", path, err)
	}
	if cfg.DataPath != "/srv/worldcore" {
		t.Errorf("DataPath = %q, want /srv/worldcore", cfg.DataPath)
	}
	if cfg.BusyTimeout != 2500*time.Millisecond {
		t.Errorf("BusyTimeout = %v, want 2500ms", cfg.BusyTimeout)
	}
	if cfg.CheckpointInterval != 30*time.Second {
		t.Errorf("CheckpointInterval = %v, want 30s", cfg.CheckpointInterval)
	}
	if cfg.PluginMemoryLimitPages != 64 {
		t.Errorf("PluginMemoryLimitPages = %d, want 64", cfg.PluginMemoryLimitPages)
	}
}

func TestLoadUnreadableConfigFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() on a missing config file error = nil, want an error")
	}
}
