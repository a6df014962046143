package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"ereea.space/internal/persistence/snapshot"
	"ereea.space/internal/sim/tuning"
	"ereea.space/internal/sim/world"
)

const defaultQueue = 65536

// SQLiteIndex is a secondary, queryable index of a run. Writes are queued
// and applied by one goroutine in batched transactions; when the queue is
// full they are dropped and counted. The JSONL tick log stays the source of
// truth.
type SQLiteIndex struct {
	db    *sql.DB
	runID string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick     atomic.Uint64
	dropSnapshot atomic.Uint64
	dropRun      atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
	reqRunEnd
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	snapshot snapshotRow
	report   world.MissionReport
}

type snapshotRow struct {
	Tick        uint64
	Path        string
	Mission     string
	Exploration float64
	Robots      int
	Digest      string
}

// Stats reports queue pressure for metrics.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTickTotal     uint64 `json:"drop_tick_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
	DropRunTotal      uint64 `json:"drop_run_total"`
}

func OpenSQLite(path, runID string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:    db,
		runID: runID,
		ch:    make(chan req, defaultQueue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			tuning_digest TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			carves INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			end_tick INTEGER,
			complete_tick INTEGER,
			exploration REAL,
			conflicts INTEGER,
			robots INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			mission TEXT NOT NULL,
			exploration REAL NOT NULL,
			robots INTEGER NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS merges (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			robot_id INTEGER NOT NULL,
			adopted INTEGER NOT NULL,
			conflicts INTEGER NOT NULL,
			forced INTEGER NOT NULL,
			minerals INTEGER NOT NULL,
			scientific_data INTEGER NOT NULL,
			energy_cells INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick, robot_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_merges_robot ON merges(run_id, robot_id, tick);`,
		`CREATE TABLE IF NOT EXISTS spawns (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			robot_id INTEGER NOT NULL,
			robot_type TEXT NOT NULL,
			PRIMARY KEY (run_id, robot_id)
		);`,
		`CREATE TABLE IF NOT EXISTS recalls (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			robot_id INTEGER NOT NULL,
			from_x INTEGER NOT NULL,
			from_y INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick, robot_id)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			mission TEXT NOT NULL,
			exploration REAL NOT NULL,
			robots INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		DropRunTotal:      s.dropRun.Load(),
	}
}

// RecordRunStart writes the run row synchronously so later rows always
// have a parent.
func (s *SQLiteIndex) RecordRunStart(seed int64, tune tuning.Tuning, carves int) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs(run_id,seed,tuning_digest,tuning_json,carves,started_at) VALUES(?,?,?,?,?,?)`,
		s.runID, seed, hex.EncodeToString(sum[:]), string(b), carves,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// WriteTick makes the index usable as a world.TickLogger.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:        snap.Header.Tick,
		Path:        path,
		Mission:     snap.Mission,
		Exploration: snap.State.Station.ExplorationPercentage,
		Robots:      len(snap.State.Robots),
		Digest:      snap.Digest,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

func (s *SQLiteIndex) RecordRunEnd(rep world.MissionReport) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRunEnd, report: rep}:
	default:
		s.dropRun.Add(1)
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,mission,exploration,robots,digest,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertMerge, _ := s.db.Prepare(`INSERT OR REPLACE INTO merges(run_id,tick,robot_id,adopted,conflicts,forced,minerals,scientific_data,energy_cells) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertSpawn, _ := s.db.Prepare(`INSERT OR REPLACE INTO spawns(run_id,tick,robot_id,robot_type) VALUES(?,?,?,?)`)
	insertRecall, _ := s.db.Prepare(`INSERT OR REPLACE INTO recalls(run_id,tick,robot_id,from_x,from_y) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(run_id,tick,path,mission,exploration,robots,digest) VALUES(?,?,?,?,?,?,?)`)
	updateRun, _ := s.db.Prepare(`UPDATE runs SET ended_at=?, end_tick=?, complete_tick=?, exploration=?, conflicts=?, robots=? WHERE run_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertMerge, insertSpawn, insertRecall, insertSnapshot, updateRun} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			b, _ := json.Marshal(e)
			tick := int64(e.Tick)
			if !exec(insertTick, s.runID, tick, e.Mission, e.ExplorationPercentage, e.Robots, e.Digest, string(b)) {
				continue
			}
			for _, m := range e.Merges {
				if !exec(insertMerge, s.runID, tick, int64(m.RobotID), m.Adopted, m.Conflicts, boolInt(m.Forced),
					m.Cargo.Minerals, m.Cargo.ScientificData, m.Cargo.EnergyCells) {
					break
				}
			}
			for _, sp := range e.Spawns {
				if !exec(insertSpawn, s.runID, tick, int64(sp.RobotID), sp.RobotType) {
					break
				}
			}
			for _, rc := range e.Recalls {
				if !exec(insertRecall, s.runID, tick, int64(rc.RobotID), rc.From.X, rc.From.Y) {
					break
				}
			}

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, s.runID, int64(sn.Tick), sn.Path, sn.Mission, sn.Exploration, sn.Robots, sn.Digest)

		case reqRunEnd:
			rep := r.report
			exec(updateRun, time.Now().UTC().Format(time.RFC3339Nano), int64(rep.Tick), int64(rep.CompleteTick),
				rep.ExplorationPercentage, int64(rep.ConflictCount), rep.Robots, s.runID)
			// Run end is the last write of a run; make it durable now.
			commit()
			continue
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
