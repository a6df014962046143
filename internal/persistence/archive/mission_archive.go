package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"ereea.space/internal/persistence/snapshot"
)

// MissionTerminated is the mission label of a run's final snapshot.
const MissionTerminated = "Terminated"

type MissionArchiveMeta struct {
	RunID        string  `json:"run_id"`
	Seed         int64   `json:"seed"`
	CompleteTick uint64  `json:"complete_tick"`
	EndTick      uint64  `json:"end_tick"`
	Exploration  float64 `json:"exploration_percentage"`
	Robots       int     `json:"robots"`
	Conflicts    uint64  `json:"conflict_count"`
	Digest       string  `json:"digest"`
	Snapshot     string  `json:"snapshot"`
	CreatedAt    string  `json:"created_at"`
}

// ArchiveMissionSnapshot copies the final snapshot of a run into
// `runDir/archive/` next to a mission.json summary. Snapshots taken while
// the mission is still going are left alone and reported as not archived.
func ArchiveMissionSnapshot(runDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if snap.Mission != MissionTerminated {
		return "", false, nil
	}

	archiveDir := filepath.Join(runDir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	st := snap.State.Station
	meta := MissionArchiveMeta{
		RunID:        snap.Header.RunID,
		Seed:         snap.Seed,
		CompleteTick: snap.CompleteTick,
		EndTick:      snap.Header.Tick,
		Exploration:  st.ExplorationPercentage,
		Robots:       len(snap.State.Robots),
		Conflicts:    st.ConflictCount,
		Digest:       snap.Digest,
		Snapshot:     filepath.Base(dst),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return dst, true, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "mission.json"), b, 0o644); err != nil {
		return dst, true, err
	}
	return dst, true, nil
}

// ReadMissionMeta loads the summary written by ArchiveMissionSnapshot.
func ReadMissionMeta(runDir string) (MissionArchiveMeta, error) {
	var meta MissionArchiveMeta
	b, err := os.ReadFile(filepath.Join(runDir, "archive", "mission.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(b, &meta)
	return meta, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
