package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/persistence/snapshot"
	"ereea.space/internal/sim/robot"
	"ereea.space/internal/sim/station"
	"ereea.space/internal/sim/terrain"
	"ereea.space/internal/sim/tuning"
)

var (
	// ErrTickFailed wraps a panic recovered from inside a tick.
	ErrTickFailed = errors.New("tick failed")
	// ErrStopped is returned by queries issued after the loop has exited.
	ErrStopped = errors.New("world stopped")
)

type WorldConfig struct {
	RunID  string
	Seed   int64
	Tuning tuning.Tuning
}

type MissionState uint8

const (
	Running MissionState = iota
	MissionComplete
	Terminated
)

func (s MissionState) String() string {
	switch s {
	case Running:
		return "Running"
	case MissionComplete:
		return "MissionComplete"
	case Terminated:
		return "Terminated"
	}
	return fmt.Sprintf("MissionState(%d)", uint8(s))
}

// MissionReport is delivered once on Done when the last robot is home.
type MissionReport struct {
	RunID                   string  `json:"run_id"`
	Tick                    uint64  `json:"tick"`
	CompleteTick            uint64  `json:"complete_tick"`
	ExplorationPercentage   float64 `json:"exploration_percentage"`
	ConflictCount           uint64  `json:"conflict_count"`
	Robots                  int     `json:"robots"`
	EnergyReserves          int     `json:"energy_reserves"`
	CollectedMinerals       int     `json:"collected_minerals"`
	CollectedScientificData int     `json:"collected_scientific_data"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick                  uint64         `json:"tick"`
	Mission               string         `json:"mission"`
	ExplorationPercentage float64        `json:"exploration_percentage"`
	Robots                int            `json:"robots"`
	Merges                []MergeRecord  `json:"merges,omitempty"`
	Spawns                []SpawnRecord  `json:"spawns,omitempty"`
	Recalls               []RecallRecord `json:"recalls,omitempty"`
	Digest                string         `json:"digest"`
}

// MergeRecord is one knowledge exchange at the station.
type MergeRecord struct {
	RobotID   uint64      `json:"robot_id"`
	Adopted   int         `json:"adopted"`
	Conflicts int         `json:"conflicts"`
	Forced    bool        `json:"forced,omitempty"`
	Cargo     robot.Cargo `json:"cargo"`
}

type SpawnRecord struct {
	RobotID   uint64 `json:"robot_id"`
	RobotType string `json:"robot_type"`
}

// RecallRecord is an emergency return after a robot ran out of energy.
type RecallRecord struct {
	RobotID uint64      `json:"robot_id"`
	From    terrain.Pos `json:"from"`
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg  WorldConfig
	tune tuning.Tuning
	log  *log.Logger

	tick atomic.Uint64

	m       *terrain.Map
	gen     terrain.GenerationReport
	station *station.Station
	robots  []*robot.Robot
	rng     *rand.Rand

	mission       MissionState
	completeTick  uint64
	lastSpawnTick uint64

	stop     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
	queries  chan query
	done     chan MissionReport

	snapshots chan observerproto.StateMsg
	latest    atomic.Pointer[observerproto.StateMsg]
	dropped   atomic.Uint64
	dropWarn  rate.Sometimes

	tickLogger   TickLogger
	snapshotSink chan<- snapshot.SnapshotV1

	metrics atomic.Value
}

// New generates the map from cfg.Seed and commissions one robot of each
// type at the station.
func New(cfg WorldConfig, logger *log.Logger) (*World, error) {
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	mt := cfg.Tuning.Map
	m, gen, err := terrain.GenerateSeeded(
		terrain.Config{Size: mt.Size, ClearRadius: mt.ClearRadius},
		cfg.Seed, mt.NoiseFrequency, mt.NoiseAlpha, mt.NoiseBeta, mt.NoiseOctaves)
	if err != nil {
		return nil, fmt.Errorf("generate map: %w", err)
	}
	return NewWithMap(cfg, m, gen, logger), nil
}

// NewWithMap builds a world over an already generated map.
func NewWithMap(cfg WorldConfig, m *terrain.Map, gen terrain.GenerationReport, logger *log.Logger) *World {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	queue := cfg.Tuning.Tick.SnapshotQueue
	if queue < 1 {
		queue = 1
	}
	w := &World{
		cfg:       cfg,
		tune:      cfg.Tuning,
		log:       logger,
		m:         m,
		gen:       gen,
		station:   station.New(m.Station(), m.Size(), cfg.Tuning.Station, cfg.Tuning.Robot),
		rng:       rand.New(rand.NewSource(cfg.Seed + 1)),
		stop:      make(chan struct{}),
		exited:    make(chan struct{}),
		queries:   make(chan query),
		done:      make(chan MissionReport, 1),
		snapshots: make(chan observerproto.StateMsg, queue),
		dropWarn:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, typ := range robot.Types {
		r := w.station.Commission(typ)
		r.Survey(m, 0)
		w.robots = append(w.robots, r)
	}
	state := w.buildState()
	w.latest.Store(&state)
	w.updateMetrics(0)
	return w
}

func (w *World) RunID() string { return w.cfg.RunID }
func (w *World) Seed() int64   { return w.cfg.Seed }

func (w *World) Tuning() tuning.Tuning { return w.tune }

// Generation reports how much carving the map needed.
func (w *World) Generation() terrain.GenerationReport { return w.gen }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }
