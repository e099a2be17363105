package storage

import "fmt"

// IoError wraps a filesystem failure: creating the worlds directory,
// removing a .db file, reading its directory listing.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("storage: %s %q: %s", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// StorageError wraps an underlying SQL driver failure, preserving its
// message verbatim rather than matching against driver-specific error
// types.
type StorageError struct {
	Msg string
}

func (e *StorageError) Error() string { return "storage: " + e.Msg }

// BlockIdMismatchError is returned by ValidateBlockIDMap when a slug
// already persisted under one id is being validated against a different
// id in the desired map.
type BlockIdMismatchError struct {
	Slug        string
	PersistedID uint16
	DesiredID   uint16
}

func (e *BlockIdMismatchError) Error() string {
	return fmt.Sprintf("storage: block %q id mismatch: persisted=%d desired=%d", e.Slug, e.PersistedID, e.DesiredID)
}

// BlockIdMissingError is returned by ValidateBlockIDMap when a slug
// persisted in world_block_ids is absent from the desired map — the world
// was opened against an incompatible, smaller block registry.
type BlockIdMissingError struct {
	Slug string
}

func (e *BlockIdMissingError) Error() string {
	return fmt.Sprintf("storage: block %q persisted in world but missing from desired map", e.Slug)
}
