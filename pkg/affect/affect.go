package affect

import (
	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// Tracker derives drive signals from episodic history. It holds no
// mutable state of its own: every value it produces is a pure function
// of (history, current observation, surprise), so affect can always be
// reproduced exactly from the episodic log.
type Tracker struct {
	cfg config.AffectConfig
}

func NewTracker(cfg config.AffectConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// Surprise is the prediction-error signal: 1 when the predicted count
// of visible objects missed reality, 0 otherwise. Without a prediction
// there is nothing to be surprised about.
func Surprise(predicted, actual int, hadPrediction bool) float64 {
	if !hadPrediction || predicted == actual {
		return 0
	}
	return 1
}

// Compute derives the drive state for the current observation.
//
// Novelty is 1/(1+n) where n counts prior ticks spent on the current
// cell. Boredom accumulates by a fixed step for every consecutive tick
// below the novelty threshold and resets to zero on any novel
// observation or surprise. Curiosity is a derived urge to explore,
// rising with whichever of boredom or surprise is stronger.
func (t *Tracker) Compute(history []memory.EpisodicRecord, current world.Observation, surprise float64) memory.AffectSnapshot {
	visits := make(map[world.Coord]int, len(history))
	boredom := 0.0
	for _, rec := range history {
		pos := rec.Observation.AgentPosition
		novelty := 1.0 / (1.0 + float64(visits[pos]))
		if novelty < t.cfg.NoveltyThreshold {
			boredom = capAt(boredom+t.cfg.BoredomStep, t.cfg.BoredomCeiling)
		} else {
			boredom = 0
		}
		visits[pos]++
	}

	novelty := 1.0 / (1.0 + float64(visits[current.AgentPosition]))
	if novelty < t.cfg.NoveltyThreshold {
		boredom = capAt(boredom+t.cfg.BoredomStep, t.cfg.BoredomCeiling)
	} else {
		boredom = 0
	}
	if surprise > 0.1 {
		boredom = 0
	}

	urge := boredom
	if surprise > urge {
		urge = surprise
	}

	return memory.AffectSnapshot{
		Novelty:   novelty,
		Boredom:   boredom,
		Curiosity: capAt(0.5+0.5*urge, 1.0),
		Surprise:  surprise,
	}
}

func capAt(v, ceiling float64) float64 {
	if v > ceiling {
		return ceiling
	}
	return v
}
