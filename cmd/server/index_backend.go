package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ereea.space/internal/persistence/indexdb"
)

// openRunIndex returns nil when indexing is disabled. Every index method
// is nil-safe, so callers never branch on it.
func openRunIndex(runDir, runID string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("EREEA_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		// One file per data dir so the admin CLI can list every run.
		dbPath := filepath.Join(filepath.Dir(filepath.Dir(runDir)), "index", "runs.sqlite")
		return indexdb.OpenSQLite(dbPath, runID)
	default:
		return nil, fmt.Errorf("unsupported EREEA_INDEX_BACKEND: %s", backend)
	}
}
