package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "ereea.space/internal/persistence/log"
	"ereea.space/internal/persistence/snapshot"
	"ereea.space/internal/sim/tuning"
	"ereea.space/internal/sim/view"
	"ereea.space/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst (supplies seed and tuning for -resim)")
		runDir     = flag.String("run", "", "run directory containing events/ (optional)")
		resim      = flag.Bool("resim", false, "re-simulate from the seed and compare digests")
		seed       = flag.Int64("seed", 0, "seed for -resim when no snapshot is given")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning for -resim when no snapshot is given")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" && *runDir == "" {
		fmt.Fprintln(os.Stderr, "need -snapshot and/or -run")
		os.Exit(2)
	}

	cfg := world.WorldConfig{Seed: *seed}
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d run=%s tick=%d seed=%d mission=%s explored=%.1f%% robots=%d\n",
			snap.Header.Version, snap.Header.RunID, snap.Header.Tick, snap.Seed, snap.Mission,
			snap.State.Station.ExplorationPercentage, len(snap.State.Robots))
		fmt.Print(view.Render(&snap.State, snap.State.Exploration.ExploredTiles))
		cfg = world.WorldConfig{RunID: snap.Header.RunID, Seed: snap.Seed, Tuning: snap.Tuning}
	} else if *resim {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		cfg.Tuning = t
	}

	if *runDir == "" {
		return
	}
	entries, err := loadEntries(*runDir, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read events:", err)
		os.Exit(1)
	}
	if err := verifyLog(entries); err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
	fmt.Printf("log ok: %d ticks\n", len(entries))

	if !*resim {
		return
	}
	w, err := world.New(cfg, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	checked, err := resimulate(w, entries)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}

func loadEntries(runDir string, toTick uint64) ([]world.TickLogEntry, error) {
	files, err := persistlog.TickFiles(runDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no events files found in %s", filepath.Join(runDir, "events"))
	}
	var out []world.TickLogEntry
	for _, path := range files {
		es, err := persistlog.ReadTicks(path)
		if err != nil {
			return nil, err
		}
		for _, e := range es {
			if toTick != 0 && e.Tick > toTick {
				return out, nil
			}
			out = append(out, e)
		}
	}
	return out, nil
}
