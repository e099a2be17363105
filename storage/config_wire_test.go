package storage_test

import (
	"testing"
	"time"

	"github.com/brilliance-games/worldcore"
	"github.com/brilliance-games/worldcore/config"
	"github.com/brilliance-games/worldcore/storage"
)

// TestConfigOpenStoreAppliesSettings exercises config.Config.OpenStore end
// to end: DataPath, BusyTimeout and CheckpointInterval all have to survive
// the trip into a real Store for this to pass.
func TestConfigOpenStoreAppliesSettings(t *testing.T) {
	cfg := config.Config{
		DataPath:           t.TempDir(),
		BusyTimeout:        250 * time.Millisecond,
		CheckpointInterval: time.Second,
	}

	settings := cfg.StorageSettings()
	if settings.DataPath != cfg.DataPath {
		t.Fatalf("StorageSettings().DataPath = %q, want %q", settings.DataPath, cfg.DataPath)
	}
	if settings.BusyTimeout != cfg.BusyTimeout {
		t.Fatalf("StorageSettings().BusyTimeout = %v, want %v", settings.BusyTimeout, cfg.BusyTimeout)
	}
	if settings.CheckpointInterval != cfg.CheckpointInterval {
		t.Fatalf("StorageSettings().CheckpointInterval = %v, want %v", settings.CheckpointInterval, cfg.CheckpointInterval)
	}

	store, err := cfg.OpenStore("default", nil)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	info := storage.NewWorldInfo("default", nil, "flat")
	if err := store.CreateNew(info, worldcore.NewWorldMacroData(map[string]any{})); err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	store.EnableBackgroundCheckpoints()
	store.TriggerCheckpoint()
	store.DisableBackgroundCheckpoints()
}
