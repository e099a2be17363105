// Package config loads the operational knobs that sit outside the on-disk
// contract: data directory, busy timeouts, checkpoint cadence, plugin
// sandbox limits. Anything that would change the bytes of a previously
// written chunk, schema, or plugin envelope belongs in a Go constant, not
// here.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings read from a config file plus environment
// overrides.
type Config struct {
	// DataPath is the root directory under which <DataPath>/worlds/*.db
	// live.
	DataPath string

	// BusyTimeout bounds how long a SQLite statement waits on a lock held
	// by another connection before giving up.
	BusyTimeout time.Duration

	// CheckpointInterval is the cadence of the background WAL checkpoint
	// coalescing loop. Zero makes storage.Open fall back to its own default
	// period; the loop only runs once EnableBackgroundCheckpoints is called
	// on the Store.
	CheckpointInterval time.Duration

	// PluginMemoryLimitPages caps a guest module's linear memory, in
	// 64KiB wasm pages.
	PluginMemoryLimitPages uint32

	// LogFilePath, when non-empty, routes worldlog output to a rotated
	// file instead of stderr.
	LogFilePath string
}

// defaults mirrors the values a freshly unmounted host should behave
// sanely with, before any config file is read.
func defaults() Config {
	return Config{
		DataPath:               "./data",
		BusyTimeout:            5 * time.Second,
		CheckpointInterval:     60 * time.Second,
		PluginMemoryLimitPages: 256,
	}
}

// Load reads configuration from path (any format viper supports: yaml,
// toml, json, ...); env vars prefixed WORLDCORE_ (e.g. WORLDCORE_DATA_PATH)
// override the file's values.
func Load(path string) (Config, error) {
	d := defaults()

	v := viper.New()
	v.SetEnvPrefix("worldcore")
	v.AutomaticEnv()
	v.SetDefault("data_path", d.DataPath)
	v.SetDefault("busy_timeout_ms", d.BusyTimeout.Milliseconds())
	v.SetDefault("checkpoint_interval_seconds", int64(d.CheckpointInterval.Seconds()))
	v.SetDefault("plugin_memory_limit_pages", d.PluginMemoryLimitPages)
	v.SetDefault("log_file_path", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	return Config{
		DataPath:               v.GetString("data_path"),
		BusyTimeout:            time.Duration(v.GetInt64("busy_timeout_ms")) * time.Millisecond,
		CheckpointInterval:     time.Duration(v.GetInt64("checkpoint_interval_seconds")) * time.Second,
		PluginMemoryLimitPages: uint32(v.GetUint("plugin_memory_limit_pages")),
		LogFilePath:            v.GetString("log_file_path"),
	}, nil
}
