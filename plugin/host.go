package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/brilliance-games/worldcore"
	"github.com/brilliance-games/worldcore/worldlog"
)

// WorldRegistry is the subset of the embedding game server a guest plugin
// may reach through the host.worlds_has_world / host.worlds_create_world
// imports.
type WorldRegistry interface {
	HasWorld(slug string) bool
	CreateWorld(slug string) error
}

// Host loads sandboxed WASM guest modules (one per plugin slug) and
// exchanges event payloads with them over guest linear memory: no native
// arguments cross the boundary, only a byte offset and length pointing at
// a JSON document the guest decodes itself.
type Host struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	worlds  WorldRegistry
	log     *worldlog.Logger

	generators map[string]string // generator name -> owning plugin slug
	instances  map[string]*pluginInstance
}

type pluginInstance struct {
	slug   string
	module api.Module
	malloc api.Function
}

// defaultMemoryLimitPages bounds a guest's linear memory when a caller
// doesn't have an opinion: 256 pages is 16MiB, plenty for a flat generator
// and small enough that a runaway plugin can't exhaust the host.
const defaultMemoryLimitPages = 256

// NewHost starts the wazero runtime with a guest memory ceiling of
// memoryLimitPages 64KiB pages (falling back to defaultMemoryLimitPages
// when 0), wires WASI (most guest toolchains link it even for
// non-filesystem code), and registers the host import module every plugin
// is instantiated against.
func NewHost(ctx context.Context, worlds WorldRegistry, log *worldlog.Logger, memoryLimitPages uint32) (*Host, error) {
	if memoryLimitPages == 0 {
		memoryLimitPages = defaultMemoryLimitPages
	}
	rtCfg := wazero.NewRuntimeConfig().WithMemoryLimitPages(memoryLimitPages)
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("plugin: instantiate WASI: %w", err)
	}

	h := &Host{
		runtime:    rt,
		worlds:     worlds,
		log:        log,
		generators: make(map[string]string),
		instances:  make(map[string]*pluginInstance),
	}
	if err := h.registerHostModule(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return h, nil
}

// Close tears down the wazero runtime and every module instantiated
// against it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// registerHostModule exposes the named imports §4.8 describes: world
// generator registration, slug lookup, and the worlds.* world-management
// calls. Each guest module links against this module by name "host".
func (h *Host) registerHostModule(ctx context.Context) error {
	_, err := h.runtime.NewHostModuleBuilder("host").
		NewFunctionBuilder().WithFunc(h.hostRegisterWorldGenerator).Export("register_world_generator").
		NewFunctionBuilder().WithFunc(h.hostGetPluginSlug).Export("get_plugin_slug").
		NewFunctionBuilder().WithFunc(h.hostWorldsHasWorld).Export("worlds_has_world").
		NewFunctionBuilder().WithFunc(h.hostWorldsCreateWorld).Export("worlds_create_world").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("plugin: register host module: %w", err)
	}
	return nil
}

// hostRegisterWorldGenerator backs register_world_generator(name). Returns
// 0 on success, 1 if another plugin already owns that name — "the later
// registration fails".
func (h *Host) hostRegisterWorldGenerator(_ context.Context, mod api.Module, namePtr, nameLen uint32) uint32 {
	name, ok := readString(mod.Memory(), namePtr, nameLen)
	if !ok {
		return 1
	}
	slug := mod.Name()

	h.mu.Lock()
	defer h.mu.Unlock()
	if owner, taken := h.generators[name]; taken && owner != slug {
		h.log.Warn("world generator name already registered", map[string]any{"name": name, "owner": owner, "attempted_by": slug})
		return 1
	}
	h.generators[name] = slug
	return 0
}

// hostGetPluginSlug backs get_plugin_slug() -> string. It allocates the
// response inside the caller's own memory via its exported allocate
// function, since the host has no linear memory of its own to hand a
// pointer into.
func (h *Host) hostGetPluginSlug(ctx context.Context, mod api.Module) (ptr uint32, length uint32) {
	data := []byte(mod.Name())
	p, ok := h.allocateInModule(ctx, mod, len(data))
	if !ok {
		return 0, 0
	}
	mod.Memory().Write(p, data)
	return p, uint32(len(data))
}

// hostWorldsHasWorld backs worlds.has_world(slug) -> bool, transferred as
// the literal strings "true"/"false" would be at the textual boundary;
// here it is returned as 0/1 since the wasm ABI carries integers natively.
func (h *Host) hostWorldsHasWorld(_ context.Context, mod api.Module, slugPtr, slugLen uint32) uint32 {
	slug, ok := readString(mod.Memory(), slugPtr, slugLen)
	if !ok {
		return 0
	}
	if h.worlds.HasWorld(slug) {
		return 1
	}
	return 0
}

// hostWorldsCreateWorld backs worlds.create_world(slug).
func (h *Host) hostWorldsCreateWorld(_ context.Context, mod api.Module, slugPtr, slugLen uint32) uint32 {
	slug, ok := readString(mod.Memory(), slugPtr, slugLen)
	if !ok {
		return 1
	}
	if err := h.worlds.CreateWorld(slug); err != nil {
		h.log.Error("plugin worlds.create_world failed", map[string]any{"slug": slug, "err": err.Error()})
		return 1
	}
	return 0
}

func (h *Host) allocateInModule(ctx context.Context, mod api.Module, size int) (uint32, bool) {
	alloc := mod.ExportedFunction("allocate")
	if alloc == nil {
		return 0, false
	}
	results, err := alloc.Call(ctx, uint64(size))
	if err != nil || len(results) == 0 {
		return 0, false
	}
	return uint32(results[0]), true
}

func readString(mem api.Memory, ptr, length uint32) (string, bool) {
	buf, ok := mem.Read(ptr, length)
	if !ok {
		return "", false
	}
	return string(buf), true
}

// LoadPlugin compiles and instantiates the guest module at wasmBytes under
// slug, then delivers PluginLoadEvent.
func (h *Host) LoadPlugin(ctx context.Context, slug string, wasmBytes []byte) error {
	compiled, err := h.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("plugin: compile %q: %w", slug, err)
	}

	cfg := wazero.NewModuleConfig().WithName(slug)
	mod, err := h.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return fmt.Errorf("plugin: instantiate %q: %w", slug, err)
	}

	malloc := mod.ExportedFunction("allocate")
	if malloc == nil {
		_ = mod.Close(ctx)
		return fmt.Errorf("plugin: %q does not export an allocate function", slug)
	}

	h.mu.Lock()
	h.instances[slug] = &pluginInstance{slug: slug, module: mod, malloc: malloc}
	h.mu.Unlock()

	if _, err := h.InvokeEvent(ctx, slug, PluginLoadEvent{}); err != nil {
		return fmt.Errorf("plugin: %q on_plugin_load: %w", slug, err)
	}
	return nil
}

// UnloadPlugin delivers PluginUnloadEvent then tears down the guest
// module. Unload errors are logged, not returned, matching the rule that
// plugin-side failures never cross the boundary as values.
func (h *Host) UnloadPlugin(ctx context.Context, slug string) error {
	if _, err := h.InvokeEvent(ctx, slug, PluginUnloadEvent{}); err != nil {
		h.log.Warn("plugin on_plugin_unload reported an error", map[string]any{"plugin": slug, "err": err.Error()})
	}

	h.mu.Lock()
	inst, ok := h.instances[slug]
	delete(h.instances, slug)
	for name, owner := range h.generators {
		if owner == slug {
			delete(h.generators, name)
		}
	}
	h.mu.Unlock()

	if !ok {
		return nil
	}
	return inst.module.Close(ctx)
}

// GeneratorOwner reports which plugin slug, if any, registered the given
// world generator name.
func (h *Host) GeneratorOwner(name string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slug, ok := h.generators[name]
	return slug, ok
}

func (h *Host) instance(slug string) (*pluginInstance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	inst, ok := h.instances[slug]
	if !ok {
		return nil, fmt.Errorf("plugin: %q is not loaded", slug)
	}
	return inst, nil
}

// InvokeEvent marshals ev to JSON, copies it into the guest's memory via
// its allocate export, calls the export named by ev.ExportName() with
// (ptr, len), and interprets the three-value return (status, ptr, len) per
// the exit-code contract: 0 success, 1 input/handler error, 2 deserialize
// error.
func (h *Host) InvokeEvent(ctx context.Context, slug string, ev Event) (json.RawMessage, error) {
	inst, err := h.instance(slug)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, &InputError{Msg: err.Error()}
	}

	results, err := inst.malloc.Call(ctx, uint64(len(payload)))
	if err != nil || len(results) == 0 {
		return nil, &InputError{Msg: fmt.Sprintf("allocate input buffer: %v", err)}
	}
	ptr := uint32(results[0])
	if !inst.module.Memory().Write(ptr, payload) {
		return nil, &InputError{Msg: "write input payload: out of bounds"}
	}

	fn := inst.module.ExportedFunction(ev.ExportName())
	if fn == nil {
		return nil, &InputError{Msg: fmt.Sprintf("plugin %q does not export %q", slug, ev.ExportName())}
	}

	ret, err := fn.Call(ctx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		h.log.Error("plugin export call failed", map[string]any{"plugin": slug, "export": ev.ExportName(), "err": err.Error()})
		return nil, &InputError{Msg: err.Error()}
	}
	if len(ret) != 3 {
		return nil, &InputError{Msg: fmt.Sprintf("export %q returned %d values, want 3", ev.ExportName(), len(ret))}
	}

	status, retPtr, retLen := uint32(ret[0]), uint32(ret[1]), uint32(ret[2])
	switch status {
	case 0:
		if retLen == 0 {
			return nil, nil
		}
		out, ok := inst.module.Memory().Read(retPtr, retLen)
		if !ok {
			return nil, &InputError{Msg: "plugin returned an out-of-bounds result buffer"}
		}
		return json.RawMessage(out), nil
	case 1:
		return nil, &InputError{Msg: fmt.Sprintf("%q %q reported a handler error", slug, ev.ExportName())}
	case 2:
		return nil, &DeserializeError{Msg: fmt.Sprintf("%q %q failed to deserialize its input", slug, ev.ExportName())}
	default:
		return nil, &InputError{Msg: fmt.Sprintf("%q %q returned unknown status %d", slug, ev.ExportName(), status)}
	}
}

// GenerateChunk sends a ChunkGenerateEvent and decodes the resulting
// ChunkData from the compressed blob the guest returned.
func (h *Host) GenerateChunk(ctx context.Context, slug string, pos worldcore.ChunkPosition, settings WorldGeneratorSettingsPayload) (*worldcore.ChunkData, error) {
	ev := ChunkGenerateEvent{
		ChunkPosition: ChunkPositionPayload{X: pos.X, Z: pos.Z},
		WorldSettings: settings,
	}
	raw, err := h.InvokeEvent(ctx, slug, ev)
	if err != nil {
		return nil, err
	}

	var result ChunkGenerateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DeserializeError{Msg: err.Error()}
	}
	chunk, err := worldcore.DecompressChunkData(result.CompressedChunkData)
	if err != nil {
		return nil, &DeserializeError{Msg: err.Error()}
	}
	if chunk.Len() > worldcore.VerticalSections {
		return nil, &DeserializeError{Msg: fmt.Sprintf("generated chunk has %d sections, exceeds max %d", chunk.Len(), worldcore.VerticalSections)}
	}
	return chunk, nil
}

// GenerateWorldMacro sends a GenerateWorldMacroEvent and decodes the
// resulting WorldMacroData.
func (h *Host) GenerateWorldMacro(ctx context.Context, slug string, seed uint64, method string, settings json.RawMessage) (worldcore.WorldMacroData, error) {
	ev := GenerateWorldMacroEvent{Seed: seed, Method: method, Settings: settings}
	raw, err := h.InvokeEvent(ctx, slug, ev)
	if err != nil {
		return worldcore.WorldMacroData{}, err
	}

	var result GenerateWorldMacroResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return worldcore.WorldMacroData{}, &DeserializeError{Msg: err.Error()}
	}
	return worldcore.DecompressWorldMacroData(result.CompressedWorldMacroData)
}
