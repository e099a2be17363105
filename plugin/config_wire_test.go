package plugin_test

import (
	"context"
	"testing"

	"github.com/brilliance-games/worldcore/config"
)

type noopWorldRegistry struct{}

func (noopWorldRegistry) HasWorld(string) bool     { return false }
func (noopWorldRegistry) CreateWorld(string) error { return nil }

// TestConfigNewPluginHostWithMemoryLimit exercises config.Config's wiring
// into plugin.NewHost: a Config carrying a PluginMemoryLimitPages value
// builds a working Host. It only checks that construction succeeds; the
// limit itself is enforced inside wazero's runtime and isn't observed here,
// since that would need a guest module that deliberately grows past it.
func TestConfigNewPluginHostWithMemoryLimit(t *testing.T) {
	cfg := config.Config{PluginMemoryLimitPages: 16}
	ctx := context.Background()

	host, err := cfg.NewPluginHost(ctx, noopWorldRegistry{}, nil)
	if err != nil {
		t.Fatalf("NewPluginHost() error = %v", err)
	}
	defer func() { _ = host.Close(ctx) }()
}
