package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ereea.space/internal/persistence/snapshot"
	"ereea.space/internal/sim/view"
)

func newSnapshotCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Show an archived snapshot (default: latest of --run)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				if strings.TrimSpace(runID) == "" {
					return errors.New("need a snapshot path or --run")
				}
				p, err := latestSnapshot(filepath.Join(dataDir, "runs", runID, "snapshots"))
				if err != nil {
					return err
				}
				path = p
			}

			snap, err := snapshot.ReadSnapshot(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return outputJSON(out, snap.State)
			}
			st := snap.State.Station
			fmt.Fprintf(out, "run=%s tick=%d seed=%d mission=%s digest=%s\n",
				snap.Header.RunID, snap.Header.Tick, snap.Seed, snap.Mission, snap.Digest)
			fmt.Fprintf(out, "explored=%.1f%% robots=%d conflicts=%d energy=%d minerals=%d science=%d\n",
				st.ExplorationPercentage, st.RobotCount, st.ConflictCount, st.EnergyReserves, st.CollectedMinerals, st.CollectedScientificData)
			fmt.Fprint(out, view.Render(&snap.State, snap.State.Exploration.ExploredTiles))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id whose latest snapshot to show")
	return cmd
}

func latestSnapshot(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".snap.zst") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no snapshots in %s", dir)
	}
	// Names are zero-padded ticks.
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
