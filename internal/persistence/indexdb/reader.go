package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Reader runs queries for the admin tooling against an index file.
type Reader struct {
	db *sql.DB
}

type RunRow struct {
	RunID        string   `json:"run_id"`
	Seed         int64    `json:"seed"`
	Carves       int      `json:"carves"`
	StartedAt    string   `json:"started_at"`
	EndedAt      *string  `json:"ended_at,omitempty"`
	EndTick      *int64   `json:"end_tick,omitempty"`
	CompleteTick *int64   `json:"complete_tick,omitempty"`
	Exploration  *float64 `json:"exploration,omitempty"`
	Conflicts    *int64   `json:"conflicts,omitempty"`
	Robots       *int64   `json:"robots,omitempty"`
}

type SpawnRow struct {
	Tick      uint64 `json:"tick"`
	RobotID   uint64 `json:"robot_id"`
	RobotType string `json:"robot_type"`
}

type MergeRow struct {
	Tick           uint64 `json:"tick"`
	RobotID        uint64 `json:"robot_id"`
	Adopted        int    `json:"adopted"`
	Conflicts      int    `json:"conflicts"`
	Forced         bool   `json:"forced"`
	Minerals       int    `json:"minerals"`
	ScientificData int    `json:"scientific_data"`
	EnergyCells    int    `json:"energy_cells"`
}

type SnapshotRow struct {
	Tick        uint64  `json:"tick"`
	Path        string  `json:"path"`
	Mission     string  `json:"mission"`
	Exploration float64 `json:"exploration"`
	Robots      int     `json:"robots"`
	Digest      string  `json:"digest"`
}

func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

func (r *Reader) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT run_id,seed,carves,started_at,ended_at,end_tick,complete_tick,exploration,conflicts,robots
		FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var (
			x        RunRow
			ended    sql.NullString
			endTick  sql.NullInt64
			complete sql.NullInt64
			confl    sql.NullInt64
			robots   sql.NullInt64
			expl     sql.NullFloat64
		)
		if err := rows.Scan(&x.RunID, &x.Seed, &x.Carves, &x.StartedAt, &ended, &endTick, &complete, &expl, &confl, &robots); err != nil {
			return nil, err
		}
		if ended.Valid {
			x.EndedAt = &ended.String
		}
		if endTick.Valid {
			x.EndTick = &endTick.Int64
		}
		if complete.Valid {
			x.CompleteTick = &complete.Int64
		}
		if expl.Valid {
			x.Exploration = &expl.Float64
		}
		if confl.Valid {
			x.Conflicts = &confl.Int64
		}
		if robots.Valid {
			x.Robots = &robots.Int64
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *Reader) Spawns(ctx context.Context, runID string) ([]SpawnRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tick,robot_id,robot_type FROM spawns WHERE run_id=? ORDER BY tick,robot_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SpawnRow
	for rows.Next() {
		var x SpawnRow
		if err := rows.Scan(&x.Tick, &x.RobotID, &x.RobotType); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// Merges lists knowledge exchanges of a run; robotID 0 means every robot.
func (r *Reader) Merges(ctx context.Context, runID string, robotID uint64) ([]MergeRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tick,robot_id,adopted,conflicts,forced,minerals,scientific_data,energy_cells
		FROM merges WHERE run_id=? AND (?=0 OR robot_id=?) ORDER BY tick,robot_id`, runID, int64(robotID), int64(robotID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MergeRow
	for rows.Next() {
		var (
			x      MergeRow
			forced int
		)
		if err := rows.Scan(&x.Tick, &x.RobotID, &x.Adopted, &x.Conflicts, &forced, &x.Minerals, &x.ScientificData, &x.EnergyCells); err != nil {
			return nil, err
		}
		x.Forced = forced != 0
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *Reader) Snapshots(ctx context.Context, runID string) ([]SnapshotRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tick,path,mission,exploration,robots,digest FROM snapshots WHERE run_id=? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotRow
	for rows.Next() {
		var x SnapshotRow
		if err := rows.Scan(&x.Tick, &x.Path, &x.Mission, &x.Exploration, &x.Robots, &x.Digest); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}
