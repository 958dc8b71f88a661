package experiments

import (
	"fmt"

	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/grounding"
	"github.com/dotsetgreg/mindgrid/pkg/logger"
	"github.com/dotsetgreg/mindgrid/pkg/mind"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// cloneConfig copies the option fields so a script can adjust them
// without touching the caller's configuration.
func cloneConfig(cfg *config.Config) *config.Config {
	return &config.Config{
		World:     cfg.World,
		Memory:    cfg.Memory,
		Grounding: cfg.Grounding,
		Affect:    cfg.Affect,
		Store:     cfg.Store,
		Runner:    cfg.Runner,
	}
}

// GroundingResult summarizes a scripted teaching session: two distinct
// shapes are taught under their labels, then the first shape is shown
// again unlabeled.
type GroundingResult struct {
	TaughtA     grounding.Result
	TaughtB     grounding.Result
	RecalledA   grounding.Result
	Ticks       int
	ConceptsNow int
}

// RunGrounding drives the teach-A / teach-B / recall-A script. Each
// shape is presented alone so the teaching scene is unambiguous.
func RunGrounding(cfg *config.Config, exposures int) (GroundingResult, error) {
	if exposures < 1 {
		exposures = 1
	}

	scriptCfg := cloneConfig(cfg)
	scriptCfg.World.NumObjects = 0
	k, err := mind.NewKernel(scriptCfg)
	if err != nil {
		return GroundingResult{}, fmt.Errorf("grounding experiment: %w", err)
	}
	defer k.Close()

	var out GroundingResult

	showAndTeach := func(shape world.Shape, label string) (grounding.Result, error) {
		k.World().PlaceAgent(world.Coord{Row: 1, Col: 1})
		k.World().PlaceObjects(world.Object{
			ID:       "subject",
			Kind:     "block",
			Position: world.Coord{Row: 1, Col: 2},
			Shape:    shape,
		})
		var last grounding.Result
		for i := 0; i < exposures; i++ {
			k.Teach(label)
			state, err := k.Step()
			if err != nil {
				return grounding.Result{}, err
			}
			out.Ticks = state.Tick
			if state.Grounding != nil {
				last = state.Grounding.Result
			}
		}
		return last, nil
	}

	if out.TaughtA, err = showAndTeach(world.ShapeA, "A"); err != nil {
		return GroundingResult{}, fmt.Errorf("teach A: %w", err)
	}
	if out.TaughtB, err = showAndTeach(world.ShapeB, "B"); err != nil {
		return GroundingResult{}, fmt.Errorf("teach B: %w", err)
	}

	// Re-show the first shape without a label and ask.
	k.World().PlaceAgent(world.Coord{Row: 1, Col: 1})
	k.World().PlaceObjects(world.Object{
		ID:       "subject",
		Kind:     "block",
		Position: world.Coord{Row: 1, Col: 2},
		Shape:    world.ShapeA,
	})
	state, err := k.Step()
	if err != nil {
		return GroundingResult{}, fmt.Errorf("recall A: %w", err)
	}
	out.Ticks = state.Tick
	out.RecalledA = k.Ask()
	out.ConceptsNow = state.ConceptCount

	logger.InfoCF("experiments", "Grounding script finished", map[string]interface{}{
		"recalled_known": out.RecalledA.Known,
		"recalled_label": out.RecalledA.Best.Label,
		"concepts":       out.ConceptsNow,
		"ticks":          out.Ticks,
	})
	return out, nil
}

// CuriosityResult traces the drive signals of an unattended run on a
// larger grid.
type CuriosityResult struct {
	Ticks          int
	PeakBoredom    float64
	FinalBoredom   float64
	BoredomResets  int
	DistinctCells  int
	SurpriseSpikes int
}

// RunCuriosity lets the kernel wander a grid for a fixed number of
// ticks and reports how the boredom/surprise cycle behaved: boredom
// should climb on familiar ground and collapse when exploration finds
// fresh cells.
func RunCuriosity(cfg *config.Config, ticks int) (CuriosityResult, error) {
	if ticks < 1 {
		ticks = 1
	}

	runCfg := cloneConfig(cfg)
	runCfg.World.Rows = 7
	runCfg.World.Cols = 7
	k, err := mind.NewKernel(runCfg)
	if err != nil {
		return CuriosityResult{}, fmt.Errorf("curiosity experiment: %w", err)
	}
	defer k.Close()

	var out CuriosityResult
	cells := make(map[world.Coord]bool)
	prevBoredom := 0.0
	for i := 0; i < ticks; i++ {
		state, err := k.Step()
		if err != nil {
			return CuriosityResult{}, fmt.Errorf("curiosity tick %d: %w", i, err)
		}
		out.Ticks = state.Tick
		cells[state.Observation.AgentPosition] = true

		if state.Affect.Boredom > out.PeakBoredom {
			out.PeakBoredom = state.Affect.Boredom
		}
		if prevBoredom > 0 && state.Affect.Boredom == 0 {
			out.BoredomResets++
		}
		if state.Affect.Surprise > 0.5 {
			out.SurpriseSpikes++
		}
		prevBoredom = state.Affect.Boredom
		out.FinalBoredom = state.Affect.Boredom
	}
	out.DistinctCells = len(cells)

	logger.InfoCF("experiments", "Curiosity run finished", map[string]interface{}{
		"ticks":          out.Ticks,
		"peak_boredom":   out.PeakBoredom,
		"boredom_resets": out.BoredomResets,
		"distinct_cells": out.DistinctCells,
	})
	return out, nil
}
