package storage

import (
	"math/rand/v2"
	"time"
)

// Settings is the per-host configuration a Store is opened with. DataPath
// is the root data directory; BusyTimeout and CheckpointInterval tune the
// SQLite concurrency knobs (busy_timeout pragma, background WAL checkpoint
// period) and fall back to defaultBusyTimeout/defaultCheckpointInterval
// when left at zero. Everything else a storage handle needs (the world
// slug, the DDL) is either an argument to Open or a package-level
// constant.
type Settings struct {
	DataPath          string
	BusyTimeout       time.Duration
	CheckpointInterval time.Duration
}

// WorldInfo identifies a world at creation time: its slug, its seed, and
// the name of the generator that owns it. It is written once into
// world_info and never mutated afterward.
type WorldInfo struct {
	Slug           string
	Seed           uint64
	WorldGenerator string
}

// NewWorldInfo builds a WorldInfo. If seed is nil, a random one is drawn —
// mirroring the "no seed given" path a world-creation command takes.
func NewWorldInfo(slug string, seed *uint64, generator string) WorldInfo {
	s := uint64(0)
	if seed != nil {
		s = *seed
	} else {
		s = rand.Uint64()
	}
	return WorldInfo{Slug: slug, Seed: s, WorldGenerator: generator}
}
