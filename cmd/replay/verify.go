package main

import (
	"fmt"

	"ereea.space/internal/sim/world"
)

// verifyLog checks the ordering a recorded run must have: ticks strictly
// increase and station exploration never shrinks.
func verifyLog(entries []world.TickLogEntry) error {
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.Tick <= prev.Tick {
			return fmt.Errorf("tick %d follows tick %d", cur.Tick, prev.Tick)
		}
		if cur.ExplorationPercentage < prev.ExplorationPercentage {
			return fmt.Errorf("exploration fell at tick %d: %.3f -> %.3f", cur.Tick, prev.ExplorationPercentage, cur.ExplorationPercentage)
		}
	}
	return nil
}

// resimulate steps a fresh world alongside the log and compares digests.
// The log must start at tick 1 and be contiguous.
func resimulate(w *world.World, entries []world.TickLogEntry) (uint64, error) {
	var checked uint64
	for _, e := range entries {
		if want := w.CurrentTick() + 1; e.Tick != want {
			return checked, fmt.Errorf("tick gap: want=%d got=%d", want, e.Tick)
		}
		tick, digest := w.StepOnce()
		if tick != e.Tick {
			return checked, fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, e.Tick)
		}
		if digest != e.Digest {
			return checked, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, e.Digest)
		}
		checked++
	}
	return checked, nil
}
