package config

import (
	"context"

	"github.com/brilliance-games/worldcore/plugin"
	"github.com/brilliance-games/worldcore/storage"
	"github.com/brilliance-games/worldcore/worldlog"
)

// StorageSettings translates the operational knobs into the storage.Open
// shape, so DataPath/BusyTimeout/CheckpointInterval actually reach a
// Store instead of sitting unread in the Config value.
func (c Config) StorageSettings() storage.Settings {
	return storage.Settings{
		DataPath:           c.DataPath,
		BusyTimeout:        c.BusyTimeout,
		CheckpointInterval: c.CheckpointInterval,
	}
}

// OpenStore is storage.Open, pre-filled with this Config's settings.
func (c Config) OpenStore(slug string, log *worldlog.Logger) (*storage.Store, error) {
	return storage.Open(c.StorageSettings(), slug, log)
}

// NewLogger builds a worldlog.Logger routed at c.LogFilePath, or stderr
// when that's empty.
func (c Config) NewLogger() *worldlog.Logger {
	return worldlog.New(worldlog.Config{FilePath: c.LogFilePath})
}

// NewPluginHost is plugin.NewHost with the guest memory sandbox bounded by
// c.PluginMemoryLimitPages.
func (c Config) NewPluginHost(ctx context.Context, worlds plugin.WorldRegistry, log *worldlog.Logger) (*plugin.Host, error) {
	return plugin.NewHost(ctx, worlds, log, c.PluginMemoryLimitPages)
}
