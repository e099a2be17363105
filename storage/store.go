// Package storage is the per-world SQL-backed store: one SQLite file per
// world slug under <data_path>/worlds/, holding chunk blobs, a single
// metadata row, and an append-only block-id namespace.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/brilliance-games/worldcore"
	"github.com/brilliance-games/worldcore/worldlog"
)

// defaultBusyTimeout and defaultCheckpointInterval apply when a Settings
// value leaves the corresponding field at its zero value, so a caller that
// doesn't go through config.Config still gets sane SQLite behavior.
const (
	defaultBusyTimeout       = 5 * time.Second
	defaultCheckpointInterval = 30 * time.Second
)

// WorldStorageData is the metadata row read back by ScanWorlds: the world's
// identity plus its opaque macro document.
type WorldStorageData struct {
	Slug           string
	Seed           uint64
	WorldGenerator string
	WorldMacroData worldcore.WorldMacroData
}

// Store is a handle to one world's database file. A Store is single-writer:
// concurrent writers to the same file are not supported, matching the
// WAL single-writer/multi-reader model the schema is opened under. It holds
// exactly one zombiezen.com/go/sqlite connection, guarded by mu, rather than
// a database/sql pool, because the incremental BLOB I/O ReadChunkData and
// SaveChunkData depend on (Conn.OpenBlob) isn't reachable through the
// database/sql driver interface.
type Store struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	dbPath string
	log    *worldlog.Logger

	checkpointPeriod time.Duration
	checkpointCh     chan struct{}
	stopCh           chan struct{}
}

// Open attaches to (and lazily creates) the database file for slug under
// settings.DataPath/worlds/. It does not create the schema; call CreateNew
// for that.
func Open(settings Settings, slug string, log *worldlog.Logger) (*Store, error) {
	dir := filepath.Join(settings.DataPath, "worlds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IoError{Op: "create worlds directory", Path: dir, Err: err}
	}

	dbPath := filepath.Join(dir, slug+".db")
	conn, err := sqlite.OpenConn(dbPath, sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenWAL)
	if err != nil {
		return nil, &StorageError{Msg: err.Error()}
	}

	if err := sqlitex.ExecuteTransient(conn, `PRAGMA journal_mode=WAL;`, nil); err != nil {
		_ = conn.Close()
		return nil, &StorageError{Msg: fmt.Sprintf("enable WAL: %s", err)}
	}

	busyTimeout := settings.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	busyStmt := fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())
	if err := sqlitex.ExecuteTransient(conn, busyStmt, nil); err != nil {
		_ = conn.Close()
		return nil, &StorageError{Msg: fmt.Sprintf("set busy timeout: %s", err)}
	}

	checkpointPeriod := settings.CheckpointInterval
	if checkpointPeriod <= 0 {
		checkpointPeriod = defaultCheckpointInterval
	}

	return &Store{conn: conn, dbPath: dbPath, log: log, checkpointPeriod: checkpointPeriod}, nil
}

// EnableBackgroundCheckpoints starts a goroutine that runs PRAGMA
// wal_checkpoint(PASSIVE) on a timer (settings.CheckpointInterval, or
// defaultCheckpointInterval if unset) and also whenever TriggerCheckpoint
// coalesces a burst of requests, so a run of chunk saves doesn't each pay
// for its own WAL checkpoint.
func (s *Store) EnableBackgroundCheckpoints() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkpointCh != nil && s.stopCh != nil {
		return
	}
	s.checkpointCh = make(chan struct{}, 1)
	s.stopCh = make(chan struct{})

	go s.runCheckpointer(s.checkpointCh, s.stopCh, s.checkpointPeriod)
}

// DisableBackgroundCheckpoints stops the background checkpoint goroutine,
// if running.
func (s *Store) DisableBackgroundCheckpoints() {
	s.mu.Lock()
	stop := s.stopCh
	s.stopCh = nil
	s.checkpointCh = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// TriggerCheckpoint schedules a background checkpoint and returns
// immediately. It is a no-op when background checkpoints are disabled.
func (s *Store) TriggerCheckpoint() {
	s.mu.Lock()
	ch := s.checkpointCh
	s.mu.Unlock()

	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Store) runCheckpointer(checkpointCh, stopCh chan struct{}, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case _, ok := <-checkpointCh:
			if !ok {
				return
			}
		coalesce:
			for {
				select {
				case <-checkpointCh:
					continue
				default:
					break coalesce
				}
			}
			s.checkpoint()
		case <-ticker.C:
			s.checkpoint()
		case <-stopCh:
			return
		}
	}
}

func (s *Store) checkpoint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sqlitex.ExecuteTransient(s.conn, sqlWALCheckpoint, nil); err != nil {
		s.log.Warn("background wal checkpoint failed", map[string]any{"err": err.Error()})
	}
}

// Close releases the underlying database connection, stopping any
// background checkpoint loop first.
func (s *Store) Close() error {
	s.DisableBackgroundCheckpoints()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Close(); err != nil {
		return &StorageError{Msg: err.Error()}
	}
	return nil
}

// CreateNew creates the schema and writes the single world_info row if the
// chunks table doesn't already exist. It is a no-op on a world that has
// already been created.
func (s *Store) CreateNew(info WorldInfo, macro worldcore.WorldMacroData) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := tableExists(s.conn)
	if err != nil {
		return &StorageError{Msg: fmt.Sprintf("check schema: %s", err)}
	}
	if exists {
		return nil
	}

	endSave := sqlitex.Save(s.conn)
	defer func() { endSave(&err) }()

	if execErr := sqlitex.ExecuteTransient(s.conn, sqlCreateChunksTable, nil); execErr != nil {
		err = &StorageError{Msg: fmt.Sprintf("create chunks table: %s", execErr)}
		return err
	}
	if execErr := sqlitex.ExecuteTransient(s.conn, sqlCreateChunksIndex, nil); execErr != nil {
		err = &StorageError{Msg: fmt.Sprintf("create chunks index: %s", execErr)}
		return err
	}
	if execErr := sqlitex.ExecuteTransient(s.conn, sqlCreateWorldInfoTable, nil); execErr != nil {
		err = &StorageError{Msg: fmt.Sprintf("create world_info table: %s", execErr)}
		return err
	}

	macroBytes, compressErr := macro.Compress() // stored compressed: see DESIGN.md's note on the open question.
	if compressErr != nil {
		err = &StorageError{Msg: fmt.Sprintf("compress world macro: %s", compressErr)}
		return err
	}

	execErr := sqlitex.Execute(s.conn, sqlInsertWorldInfo, &sqlitex.ExecOptions{
		Args: []any{strconv.FormatUint(info.Seed, 10), info.WorldGenerator, macroBytes},
	})
	if execErr != nil {
		err = &StorageError{Msg: fmt.Sprintf("write world info: %s", execErr)}
		return err
	}

	s.log.Info("world db created", map[string]any{"path": s.dbPath, "slug": info.Slug})
	return nil
}

func tableExists(conn *sqlite.Conn) (bool, error) {
	var exists bool
	err := sqlitex.Execute(conn, sqlTableExists, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			exists = stmt.ColumnInt(0) != 0
			return nil
		},
	})
	return exists, err
}

// HasChunkData looks up the primary key of the chunk row at pos, if any.
func (s *Store) HasChunkData(pos worldcore.ChunkPosition) (id int64, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasChunkData(pos)
}

func (s *Store) hasChunkData(pos worldcore.ChunkPosition) (int64, bool, error) {
	var id int64
	found := false
	err := sqlitex.Execute(s.conn, sqlSelectChunkID, &sqlitex.ExecOptions{
		Args: []any{int64(pos.X), int64(pos.Z)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			id = stmt.ColumnInt64(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, false, &StorageError{Msg: fmt.Sprintf("lookup chunk (%d,%d): %s", pos.X, pos.Z, err)}
	}
	return id, found, nil
}

// ReadChunkData reads the full sections_data blob for the row with the
// given primary key, using incremental BLOB I/O rather than a bound SELECT
// parameter so the driver never copies the payload through the
// query-parameter path.
func (s *Store) ReadChunkData(id int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.conn.OpenBlob("main", "chunks", "sections_data", id, false)
	if err != nil {
		return nil, &StorageError{Msg: fmt.Sprintf("open chunk blob %d: %s", id, err)}
	}
	defer func() { _ = blob.Close() }()

	buf := make([]byte, int(blob.Size()))
	if _, err := io.ReadFull(blob, buf); err != nil {
		return nil, &StorageError{Msg: fmt.Sprintf("read chunk blob %d: %s", id, err)}
	}
	return buf, nil
}

// SaveChunkData upserts the chunk at pos: if a row already exists its blob
// is resized in place via zeroblob(?) and overwritten; otherwise a new row
// is inserted with a pre-sized empty blob, which is then streamed into.
// Either way the write is INSERT/UPDATE-then-stream, never a single bound
// BLOB parameter.
func (s *Store) SaveChunkData(pos worldcore.ChunkPosition, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, found, err := s.hasChunkData(pos)
	if err != nil {
		return 0, err
	}

	if found {
		err = sqlitex.Execute(s.conn, sqlUpdateChunkBlob, &sqlitex.ExecOptions{
			Args: []any{int64(len(data)), id},
		})
		if err != nil {
			return 0, &StorageError{Msg: fmt.Sprintf("resize chunk blob %d: %s", id, err)}
		}
	} else {
		err = sqlitex.Execute(s.conn, sqlInsertChunkBlob, &sqlitex.ExecOptions{
			Args: []any{int64(pos.X), int64(pos.Z), int64(len(data))},
		})
		if err != nil {
			return 0, &StorageError{Msg: fmt.Sprintf("insert chunk (%d,%d): %s", pos.X, pos.Z, err)}
		}
		id = s.conn.LastInsertRowID()
	}

	blob, err := s.conn.OpenBlob("main", "chunks", "sections_data", id, true)
	if err != nil {
		return 0, &StorageError{Msg: fmt.Sprintf("open chunk blob %d: %s", id, err)}
	}
	defer func() { _ = blob.Close() }()

	n, err := blob.Write(data)
	if err != nil {
		return 0, &StorageError{Msg: fmt.Sprintf("stream chunk blob %d: %s", id, err)}
	}
	if n != len(data) {
		return 0, &StorageError{Msg: fmt.Sprintf("short blob write: wrote %d of %d bytes", n, len(data))}
	}

	return id, nil
}

// Delete removes the underlying database file. The Store must not be used
// afterward.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.dbPath
	if err := s.conn.Close(); err != nil {
		return &StorageError{Msg: err.Error()}
	}
	if err := os.Remove(path); err != nil {
		return &IoError{Op: "delete world db", Path: path, Err: err}
	}
	s.log.Info("world db deleted", map[string]any{"path": path})
	return nil
}

// ScanWorlds lists every *.db file under settings.DataPath/worlds/, reads
// its single world_info row, and decompresses its macro blob. Non-.db
// entries are skipped silently. The directory is created if missing, so a
// scan of a fresh data path returns an empty slice rather than an error.
func ScanWorlds(settings Settings) ([]WorldStorageData, error) {
	dir := filepath.Join(settings.DataPath, "worlds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IoError{Op: "create worlds directory", Path: dir, Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IoError{Op: "read worlds directory", Path: dir, Err: err}
	}

	var worlds []WorldStorageData
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		slug := strings.TrimSuffix(entry.Name(), ".db")

		data, err := scanOneWorld(path, slug)
		if err != nil {
			return nil, err
		}
		worlds = append(worlds, data)
	}
	return worlds, nil
}

func scanOneWorld(path, slug string) (WorldStorageData, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return WorldStorageData{}, &StorageError{Msg: fmt.Sprintf("open %s: %s", path, err)}
	}
	defer func() { _ = conn.Close() }()

	var seedText, generator string
	var macroBytes []byte
	found := false
	err = sqlitex.Execute(conn, sqlReadWorldInfo, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			seedText = stmt.ColumnText(0)
			generator = stmt.ColumnText(1)
			macroBytes = make([]byte, stmt.ColumnLen(2))
			stmt.ColumnBytes(2, macroBytes)
			found = true
			return nil
		},
	})
	if err != nil {
		return WorldStorageData{}, &StorageError{Msg: fmt.Sprintf("read world_info of %s: %s", path, err)}
	}
	if !found {
		return WorldStorageData{}, &StorageError{Msg: fmt.Sprintf("read world_info of %s: no row", path)}
	}

	seed, err := strconv.ParseUint(seedText, 10, 64)
	if err != nil {
		return WorldStorageData{}, &StorageError{Msg: fmt.Sprintf("parse seed of %s: %s", path, err)}
	}

	macro, err := worldcore.DecompressWorldMacroData(macroBytes)
	if err != nil {
		return WorldStorageData{}, &StorageError{Msg: fmt.Sprintf("decode macro of %s: %s", path, err)}
	}

	return WorldStorageData{
		Slug:           slug,
		Seed:           seed,
		WorldGenerator: generator,
		WorldMacroData: macro,
	}, nil
}

// ValidateBlockIDMap reconciles the persisted world_block_ids table
// against desired: every persisted (id, slug) must still be present in
// desired with the same id, and every (id, slug) in desired not yet
// persisted is inserted. The namespace only ever grows.
func (s *Store) ValidateBlockIDMap(desired map[uint16]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sqlitex.ExecuteTransient(s.conn, sqlCreateBlockIDsTable, nil); err != nil {
		return &StorageError{Msg: fmt.Sprintf("create world_block_ids table: %s", err)}
	}

	type persistedID struct {
		id   uint16
		slug string
	}
	var persisted []persistedID
	err := sqlitex.Execute(s.conn, sqlSelectBlockIDs, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			persisted = append(persisted, persistedID{
				id:   uint16(stmt.ColumnInt64(0)),
				slug: stmt.ColumnText(1),
			})
			return nil
		},
	})
	if err != nil {
		return &StorageError{Msg: fmt.Sprintf("read world_block_ids: %s", err)}
	}

	existing := make(map[string]bool, len(persisted))
	for _, p := range persisted {
		desiredID, ok := findDesiredID(desired, p.slug)
		if !ok {
			return &BlockIdMissingError{Slug: p.slug}
		}
		if desiredID != p.id {
			return &BlockIdMismatchError{Slug: p.slug, PersistedID: p.id, DesiredID: desiredID}
		}
		existing[p.slug] = true
	}

	ids := make([]uint16, 0, len(desired))
	for id := range desired {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		slug := desired[id]
		if existing[slug] {
			continue
		}
		if err := sqlitex.Execute(s.conn, sqlInsertBlockID, &sqlitex.ExecOptions{
			Args: []any{int64(id), slug},
		}); err != nil {
			return &StorageError{Msg: fmt.Sprintf("insert block id %d %q: %s", id, slug, err)}
		}
	}
	return nil
}

func findDesiredID(desired map[uint16]string, slug string) (uint16, bool) {
	for id, s := range desired {
		if s == slug {
			return id, true
		}
	}
	return 0, false
}
