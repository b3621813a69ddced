// Package plant wires the transport, control, and dispatch layers into one
// sortation line driven by a fixed-rate tick loop, supervised by a mode
// controller.
package plant

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sortlab/sortline/sim"
)

// Config carries every physical and timing parameter of the line.
type Config struct {
	Seed     int64
	TickRate sim.Freq

	// Intake loop.
	StationPositions []float64
	SpawnRates       []float64
	LoopLength       float64
	SwitchPos        float64
	LoopZone         float64
	IntakeFixtures   int
	CarrierJitter    float64

	// Belt grid.
	BeltRows    int
	BeltCols    int
	BeltLength  float64
	BeltGapFrac float64

	// Drain and holding lines.
	DrainLineLength float64
	HoldLineLength  float64
	UnloadLegLength float64

	// Unload loop.
	UnloadLoopLength float64
	UnloadCarriers   int
	UnloadZone       float64
	UnloadLoopSpeed  float64
	FeedPos          float64
	DepotPos         float64

	// Speeds and the drain deadline.
	SpeedCollect        float64
	SpeedDrainFloor     float64
	SpeedDrainLineFloor float64
	DrainWindow         sim.VTimeInSec
	DrainSafety         float64
	DrainSpacing        float64

	// Output lanes.
	LaneCount    int
	LaneCapacity int
	LaneHold     sim.VTimeInSec

	// Equipment timing.
	StationXferTime sim.VTimeInSec
	StationGuard    sim.VTimeInSec
	DepotXferTime   sim.VTimeInSec
	DepotGuard      sim.VTimeInSec
	FeederXferTime  sim.VTimeInSec
	FeederGuard     sim.VTimeInSec
	SorterXferTime  sim.VTimeInSec
	SorterGuard     sim.VTimeInSec

	// Scheduling.
	AgingThreshold int

	// Hand-off queues.
	FeedQueueCap int
	SortQueueCap int
}

// DefaultConfig returns the parameters of the reference line: four intake
// stations on a 120 m loop, a 7x6 belt grid, a 30 m drain line, and 42
// output lanes holding items for twelve hours.
func DefaultConfig() Config {
	return Config{
		Seed:     1,
		TickRate: 10 * sim.Hz,

		StationPositions: []float64{10, 30, 80, 100},
		SpawnRates:       []float64{1, 1, 1, 1},
		LoopLength:       120,
		SwitchPos:        60,
		LoopZone:         1.2,
		IntakeFixtures:   16,
		CarrierJitter:    0.05,

		BeltRows:    7,
		BeltCols:    6,
		BeltLength:  8,
		BeltGapFrac: 0.35,

		DrainLineLength: 30,
		HoldLineLength:  30,
		UnloadLegLength: 15,

		UnloadLoopLength: 120,
		UnloadCarriers:   16,
		UnloadZone:       1.5,
		UnloadLoopSpeed:  5.5,
		FeedPos:          5,
		DepotPos:         70,

		SpeedCollect:        1.0,
		SpeedDrainFloor:     2.0,
		SpeedDrainLineFloor: 4.0,
		DrainWindow:         900,
		DrainSafety:         1.2,
		DrainSpacing:        0.1,

		LaneCount:    42,
		LaneCapacity: 30,
		LaneHold:     12 * 3600,

		StationXferTime: 0.4,
		StationGuard:    2.0,
		DepotXferTime:   0.5,
		DepotGuard:      3.0,
		FeederXferTime:  0.45,
		FeederGuard:     1.0,
		SorterXferTime:  0.6,
		SorterGuard:     1.2,

		AgingThreshold: 2,

		FeedQueueCap: 4096,
		SortQueueCap: 4096,
	}
}

// LoadEnv overlays SORTLINE_* environment variables onto the config. A
// .env file in the working directory is honored if present.
func (c Config) LoadEnv() Config {
	_ = godotenv.Load()

	c.Seed = envInt64("SORTLINE_SEED", c.Seed)
	c.TickRate = sim.Freq(envFloat("SORTLINE_TICK_RATE", float64(c.TickRate)))
	c.DrainWindow = sim.VTimeInSec(
		envFloat("SORTLINE_DRAIN_WINDOW", float64(c.DrainWindow)))
	c.DrainSafety = envFloat("SORTLINE_DRAIN_SAFETY", c.DrainSafety)
	c.LaneHold = sim.VTimeInSec(
		envFloat("SORTLINE_LANE_HOLD", float64(c.LaneHold)))
	c.LaneCapacity = envInt("SORTLINE_LANE_CAPACITY", c.LaneCapacity)
	c.AgingThreshold = envInt("SORTLINE_AGING_THRESHOLD", c.AgingThreshold)
	c.SpeedCollect = envFloat("SORTLINE_SPEED_COLLECT", c.SpeedCollect)

	return c
}

func envFloat(key string, fallback float64) float64 {
	if s, ok := os.LookupEnv(key); ok {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if s, ok := os.LookupEnv(key); ok {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}

	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if s, ok := os.LookupEnv(key); ok {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}

	return fallback
}
