package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid tuning")

type Tuning struct {
	Map     MapTuning     `yaml:"map" json:"map"`
	Tick    TickTuning    `yaml:"tick" json:"tick"`
	Station StationTuning `yaml:"station" json:"station"`
	Robot   RobotTuning   `yaml:"robot" json:"robot"`
}

type MapTuning struct {
	Size           int     `yaml:"size" json:"size"`
	ClearRadius    int     `yaml:"clear_radius" json:"clear_radius"`
	NoiseFrequency float64 `yaml:"noise_frequency" json:"noise_frequency"`
	NoiseAlpha     float64 `yaml:"noise_alpha" json:"noise_alpha"`
	NoiseBeta      float64 `yaml:"noise_beta" json:"noise_beta"`
	NoiseOctaves   int     `yaml:"noise_octaves" json:"noise_octaves"`
}

type TickTuning struct {
	IntervalMs             int     `yaml:"interval_ms" json:"interval_ms"`
	ExplorationGoalPercent float64 `yaml:"exploration_goal_percent" json:"exploration_goal_percent"`
	SpawnEveryTicks        int     `yaml:"spawn_every_ticks" json:"spawn_every_ticks"`
	// MaxRobots caps fleet growth; 0 means unbounded.
	MaxRobots          int `yaml:"max_robots" json:"max_robots"`
	SnapshotQueue      int `yaml:"snapshot_queue" json:"snapshot_queue"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks" json:"snapshot_every_ticks"`
	ShutdownGraceMs    int `yaml:"shutdown_grace_ms" json:"shutdown_grace_ms"`
}

type StationTuning struct {
	InitialEnergy    int `yaml:"initial_energy" json:"initial_energy"`
	SpawnEnergyCost  int `yaml:"spawn_energy_cost" json:"spawn_energy_cost"`
	SpawnMineralCost int `yaml:"spawn_mineral_cost" json:"spawn_mineral_cost"`
	EnergyCellValue  int `yaml:"energy_cell_value" json:"energy_cell_value"`
}

type RobotTuning struct {
	MaxEnergy          float64 `yaml:"max_energy" json:"max_energy"`
	MoveCost           float64 `yaml:"move_cost" json:"move_cost"`
	CollectCost        float64 `yaml:"collect_cost" json:"collect_cost"`
	CargoCapacity      int     `yaml:"cargo_capacity" json:"cargo_capacity"`
	SearchRadius       int     `yaml:"search_radius" json:"search_radius"`
	SensorRadius       int     `yaml:"sensor_radius" json:"sensor_radius"`
	ReportAfter        int     `yaml:"report_after" json:"report_after"`
	ReturnReserve      float64 `yaml:"return_reserve" json:"return_reserve"`
	EnergyTileRecharge float64 `yaml:"energy_tile_recharge" json:"energy_tile_recharge"`
	IdleRecoveryTicks  int     `yaml:"idle_recovery_ticks" json:"idle_recovery_ticks"`
}

func Defaults() Tuning {
	return Tuning{
		Map: MapTuning{
			Size:           20,
			ClearRadius:    2,
			NoiseFrequency: 4.0,
			NoiseAlpha:     2.0,
			NoiseBeta:      2.0,
			NoiseOctaves:   3,
		},
		Tick: TickTuning{
			IntervalMs:             300,
			ExplorationGoalPercent: 95.0,
			SpawnEveryTicks:        50,
			MaxRobots:              0,
			SnapshotQueue:          100,
			SnapshotEveryTicks:     100,
			ShutdownGraceMs:        5000,
		},
		Station: StationTuning{
			InitialEnergy:    100,
			SpawnEnergyCost:  50,
			SpawnMineralCost: 15,
			EnergyCellValue:  10,
		},
		Robot: RobotTuning{
			MaxEnergy:          100,
			MoveCost:           1,
			CollectCost:        2,
			CargoCapacity:      5,
			SearchRadius:       4,
			SensorRadius:       1,
			ReportAfter:        30,
			ReturnReserve:      5,
			EnergyTileRecharge: 20,
			IdleRecoveryTicks:  10,
		},
	}
}

// Load reads a tuning file on top of Defaults, so a partial file only
// overrides the keys it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.Map.Size < 1:
		return fmt.Errorf("%w: map.size=%d", ErrInvalid, t.Map.Size)
	case t.Map.ClearRadius < 0:
		return fmt.Errorf("%w: map.clear_radius=%d", ErrInvalid, t.Map.ClearRadius)
	case t.Map.NoiseOctaves < 1:
		return fmt.Errorf("%w: map.noise_octaves=%d", ErrInvalid, t.Map.NoiseOctaves)
	case t.Tick.IntervalMs <= 0:
		return fmt.Errorf("%w: tick.interval_ms=%d", ErrInvalid, t.Tick.IntervalMs)
	case t.Tick.ExplorationGoalPercent <= 0 || t.Tick.ExplorationGoalPercent > 100:
		return fmt.Errorf("%w: tick.exploration_goal_percent=%v", ErrInvalid, t.Tick.ExplorationGoalPercent)
	case t.Tick.SpawnEveryTicks < 1:
		return fmt.Errorf("%w: tick.spawn_every_ticks=%d", ErrInvalid, t.Tick.SpawnEveryTicks)
	case t.Tick.MaxRobots < 0:
		return fmt.Errorf("%w: tick.max_robots=%d", ErrInvalid, t.Tick.MaxRobots)
	case t.Tick.SnapshotQueue < 1:
		return fmt.Errorf("%w: tick.snapshot_queue=%d", ErrInvalid, t.Tick.SnapshotQueue)
	case t.Station.SpawnEnergyCost < 0 || t.Station.SpawnMineralCost < 0:
		return fmt.Errorf("%w: negative spawn cost", ErrInvalid)
	case t.Robot.MaxEnergy <= 0:
		return fmt.Errorf("%w: robot.max_energy=%v", ErrInvalid, t.Robot.MaxEnergy)
	case t.Robot.MoveCost < 0 || t.Robot.CollectCost < 0:
		return fmt.Errorf("%w: negative robot action cost", ErrInvalid)
	case t.Robot.CargoCapacity < 1:
		return fmt.Errorf("%w: robot.cargo_capacity=%d", ErrInvalid, t.Robot.CargoCapacity)
	case t.Robot.SensorRadius < 0:
		return fmt.Errorf("%w: robot.sensor_radius=%d", ErrInvalid, t.Robot.SensorRadius)
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration {
	return time.Duration(t.Tick.IntervalMs) * time.Millisecond
}

func (t Tuning) ShutdownGrace() time.Duration {
	return time.Duration(t.Tick.ShutdownGraceMs) * time.Millisecond
}
