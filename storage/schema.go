package storage

// The DDL and statement text below is the on-disk contract: changing any
// of it changes what bytes a fresh world's .db file contains. Keep it
// verbatim rather than building it up programmatically, so a diff against
// the schema is a diff against these strings.

const sqlTableExists = `SELECT EXISTS(SELECT name FROM sqlite_master WHERE type='table' AND name='chunks');`

const sqlCreateChunksTable = `CREATE TABLE IF NOT EXISTS chunks (id INTEGER PRIMARY KEY, x INTEGER, z INTEGER, sections_data BLOB)`
const sqlCreateChunksIndex = `CREATE INDEX coordinate_index ON chunks (x, z)`

const sqlCreateWorldInfoTable = `CREATE TABLE IF NOT EXISTS world_info (seed TEXT, world_generator TEXT, world_macro BLOB);`
const sqlInsertWorldInfo = `INSERT INTO world_info (seed, world_generator, world_macro) VALUES (?, ?, ?)`
const sqlReadWorldInfo = `SELECT seed, world_generator, world_macro FROM world_info;`

const sqlSelectChunkID = `SELECT id FROM chunks WHERE x=? AND z=?;`
const sqlInsertChunkBlob = `INSERT INTO chunks (x, z, sections_data) VALUES (?, ?, zeroblob(?));`
const sqlUpdateChunkBlob = `UPDATE chunks SET sections_data = zeroblob(?) WHERE id=?`

const sqlCreateBlockIDsTable = `CREATE TABLE IF NOT EXISTS world_block_ids (block_id INTEGER UNIQUE, block_slug STRING);`
const sqlSelectBlockIDs = `SELECT block_id, block_slug FROM world_block_ids ORDER BY block_id;`
const sqlInsertBlockID = `INSERT INTO world_block_ids (block_id, block_slug) VALUES (?, ?);`

const sqlWALCheckpoint = `PRAGMA wal_checkpoint(PASSIVE);`
