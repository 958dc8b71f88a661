package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// Config is the single configuration surface for a mindgrid session.
// All options are supplied at initialization; there is no runtime
// reconfiguration mid-run.
type Config struct {
	World     WorldConfig     `json:"world"`
	Memory    MemoryConfig    `json:"memory"`
	Grounding GroundingConfig `json:"grounding"`
	Affect    AffectConfig    `json:"affect"`
	Store     StoreConfig     `json:"store"`
	Runner    RunnerConfig    `json:"runner"`
	mu        sync.RWMutex
}

// WorldConfig controls the simulated grid environment.
type WorldConfig struct {
	Rows       int   `json:"rows" env:"MINDGRID_WORLD_ROWS"`
	Cols       int   `json:"cols" env:"MINDGRID_WORLD_COLS"`
	NumObjects int   `json:"num_objects" env:"MINDGRID_WORLD_NUM_OBJECTS"`
	Seed       int64 `json:"seed" env:"MINDGRID_WORLD_SEED"`
}

// MemoryConfig bounds the in-process memory stores.
type MemoryConfig struct {
	WorkingCapacity int `json:"working_capacity" env:"MINDGRID_MEMORY_WORKING_CAPACITY"`
	EpisodicCeiling int `json:"episodic_ceiling" env:"MINDGRID_MEMORY_EPISODIC_CEILING"`
}

// GroundingConfig tunes the symbol grounding engine. The threshold and
// distance values are deliberately configuration, not constants baked
// into the engine: they are meant to be tuned empirically per domain.
type GroundingConfig struct {
	ConfidenceThreshold float64 `json:"confidence_threshold" env:"MINDGRID_GROUNDING_CONFIDENCE_THRESHOLD"`
	ConfidenceIncrement float64 `json:"confidence_increment" env:"MINDGRID_GROUNDING_CONFIDENCE_INCREMENT"`
	InitialConfidence   float64 `json:"initial_confidence" env:"MINDGRID_GROUNDING_INITIAL_CONFIDENCE"`
	MaxHammingDistance  int     `json:"max_hamming_distance" env:"MINDGRID_GROUNDING_MAX_HAMMING_DISTANCE"`
	RotationInvariant   bool    `json:"rotation_invariant" env:"MINDGRID_GROUNDING_ROTATION_INVARIANT"`
}

// AffectConfig tunes the drive signals derived from episodic history.
type AffectConfig struct {
	BoredomStep      float64 `json:"boredom_step" env:"MINDGRID_AFFECT_BOREDOM_STEP"`
	NoveltyThreshold float64 `json:"novelty_threshold" env:"MINDGRID_AFFECT_NOVELTY_THRESHOLD"`
	BoredomCeiling   float64 `json:"boredom_ceiling" env:"MINDGRID_AFFECT_BOREDOM_CEILING"`
}

// StoreConfig controls the optional persistence collaborator.
type StoreConfig struct {
	Enabled bool   `json:"enabled" env:"MINDGRID_STORE_ENABLED"`
	Path    string `json:"path" env:"MINDGRID_STORE_PATH"`
}

// RunnerConfig controls autonomous (unattended) sessions.
type RunnerConfig struct {
	MaxTicks         int    `json:"max_ticks" env:"MINDGRID_RUNNER_MAX_TICKS"`
	TickIntervalMS   int    `json:"tick_interval_ms" env:"MINDGRID_RUNNER_TICK_INTERVAL_MS"`
	SnapshotSchedule string `json:"snapshot_schedule" env:"MINDGRID_RUNNER_SNAPSHOT_SCHEDULE"`
	SnapshotEvery    int    `json:"snapshot_every" env:"MINDGRID_RUNNER_SNAPSHOT_EVERY"`
}

func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			Rows:       5,
			Cols:       5,
			NumObjects: 2,
			Seed:       42,
		},
		Memory: MemoryConfig{
			WorkingCapacity: 7,
			EpisodicCeiling: 512,
		},
		Grounding: GroundingConfig{
			ConfidenceThreshold: 0.35,
			ConfidenceIncrement: 0.25,
			InitialConfidence:   0.4,
			MaxHammingDistance:  2,
			RotationInvariant:   false,
		},
		Affect: AffectConfig{
			BoredomStep:      0.1,
			NoveltyThreshold: 0.5,
			BoredomCeiling:   1.0,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "~/.mindgrid/state/mindgrid.db",
		},
		Runner: RunnerConfig{
			MaxTicks:         0, // unbounded until shutdown
			TickIntervalMS:   100,
			SnapshotSchedule: "",
			SnapshotEvery:    25,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate rejects configurations that would violate kernel invariants
// rather than letting them surface mid-run.
func (c *Config) Validate() error {
	if c.World.Rows < 1 || c.World.Cols < 1 {
		return fmt.Errorf("world dimensions must be at least 1x1, got %dx%d", c.World.Rows, c.World.Cols)
	}
	if c.World.NumObjects < 0 {
		return fmt.Errorf("num_objects must not be negative, got %d", c.World.NumObjects)
	}
	if c.World.NumObjects >= c.World.Rows*c.World.Cols {
		return fmt.Errorf("num_objects %d does not fit a %dx%d grid with an agent", c.World.NumObjects, c.World.Rows, c.World.Cols)
	}
	if c.Memory.WorkingCapacity < 1 {
		return fmt.Errorf("working_capacity must be at least 1, got %d", c.Memory.WorkingCapacity)
	}
	if c.Memory.EpisodicCeiling < 1 {
		return fmt.Errorf("episodic_ceiling must be at least 1, got %d", c.Memory.EpisodicCeiling)
	}
	if c.Grounding.ConfidenceThreshold < 0 || c.Grounding.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1], got %v", c.Grounding.ConfidenceThreshold)
	}
	if c.Grounding.ConfidenceIncrement <= 0 || c.Grounding.ConfidenceIncrement > 1 {
		return fmt.Errorf("confidence_increment must be in (0,1], got %v", c.Grounding.ConfidenceIncrement)
	}
	if c.Grounding.InitialConfidence < 0 || c.Grounding.InitialConfidence > 1 {
		return fmt.Errorf("initial_confidence must be in [0,1], got %v", c.Grounding.InitialConfidence)
	}
	if c.Grounding.MaxHammingDistance < 0 {
		return fmt.Errorf("max_hamming_distance must not be negative, got %d", c.Grounding.MaxHammingDistance)
	}
	return nil
}

// StorePath returns the persistence database path with ~ expanded.
func (c *Config) StorePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Store.Path)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
