package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig_World verifies grid defaults
func TestDefaultConfig_World(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.World.Rows != 5 || cfg.World.Cols != 5 {
		t.Errorf("World = %dx%d, want 5x5", cfg.World.Rows, cfg.World.Cols)
	}
	if cfg.World.NumObjects == 0 {
		t.Error("NumObjects should not be zero")
	}
	if cfg.World.Seed == 0 {
		t.Error("Seed should have a fixed default so runs reproduce")
	}
}

// TestDefaultConfig_Memory verifies memory bounds are set
func TestDefaultConfig_Memory(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Memory.WorkingCapacity == 0 {
		t.Error("WorkingCapacity should not be zero")
	}
	if cfg.Memory.EpisodicCeiling == 0 {
		t.Error("EpisodicCeiling should not be zero")
	}
}

// TestDefaultConfig_Grounding verifies grounding thresholds
func TestDefaultConfig_Grounding(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Grounding.ConfidenceThreshold <= 0 {
		t.Error("ConfidenceThreshold should be positive")
	}
	if cfg.Grounding.InitialConfidence < cfg.Grounding.ConfidenceThreshold {
		t.Error("a single teaching exposure should clear the threshold by default")
	}
	if cfg.Grounding.ConfidenceIncrement == 0 {
		t.Error("ConfidenceIncrement should not be zero")
	}
}

// TestDefaultConfig_Affect verifies drive signal defaults
func TestDefaultConfig_Affect(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Affect.BoredomStep == 0 {
		t.Error("BoredomStep should not be zero")
	}
	if cfg.Affect.NoveltyThreshold == 0 {
		t.Error("NoveltyThreshold should not be zero")
	}
	if cfg.Affect.BoredomCeiling != 1.0 {
		t.Errorf("BoredomCeiling = %v, want 1.0", cfg.Affect.BoredomCeiling)
	}
}

// TestDefaultConfig_Store verifies persistence defaults
func TestDefaultConfig_Store(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Store.Enabled {
		t.Error("Store should be enabled by default")
	}
	if cfg.Store.Path == "" {
		t.Error("Store path should not be empty")
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rows", func(c *Config) { c.World.Rows = 0 }},
		{"negative objects", func(c *Config) { c.World.NumObjects = -1 }},
		{"objects fill grid", func(c *Config) { c.World.NumObjects = c.World.Rows * c.World.Cols }},
		{"zero working capacity", func(c *Config) { c.Memory.WorkingCapacity = 0 }},
		{"zero episodic ceiling", func(c *Config) { c.Memory.EpisodicCeiling = 0 }},
		{"threshold above one", func(c *Config) { c.Grounding.ConfidenceThreshold = 1.5 }},
		{"zero increment", func(c *Config) { c.Grounding.ConfidenceIncrement = 0 }},
		{"negative hamming distance", func(c *Config) { c.Grounding.MaxHammingDistance = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing config file should fall back to defaults: %v", err)
	}
	if cfg.World.Rows != 5 {
		t.Errorf("Rows = %d, want default 5", cfg.World.Rows)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"world": {"rows": 9, "cols": 9, "num_objects": 3, "seed": 7}}`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.World.Rows != 9 || cfg.World.Cols != 9 {
		t.Errorf("World = %dx%d, want 9x9", cfg.World.Rows, cfg.World.Cols)
	}
	if cfg.World.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.World.Seed)
	}
	// Untouched sections keep their defaults.
	if cfg.Memory.WorkingCapacity != 7 {
		t.Errorf("WorkingCapacity = %d, want default 7", cfg.Memory.WorkingCapacity)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("MINDGRID_WORLD_SEED", "99")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.World.Seed != 99 {
		t.Errorf("Seed = %d, want env override 99", cfg.World.Seed)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.World.Rows = 11

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.World.Rows != 11 {
		t.Errorf("Rows = %d, want 11", loaded.World.Rows)
	}
}

func TestStorePath_ExpandsHome(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StorePath()
	if path == "" {
		t.Fatal("store path should not be empty")
	}
	if path[0] == '~' {
		t.Errorf("store path not expanded: %s", path)
	}
}
