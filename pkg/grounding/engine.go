package grounding

import (
	"errors"
	"sort"

	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/logger"
	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// ErrAmbiguous is reserved for a strict query mode where a confidence
// tie above the threshold fails instead of ranking. The engine never
// returns it today: ties surface the full candidate list.
var ErrAmbiguous = errors.New("grounding: multiple labels above threshold")

// Result is the outcome of a grounding query. An unknown pattern is a
// first-class result, not an error: Known is false and Candidates
// holds whatever fell below the threshold, for inspection.
type Result struct {
	Known      bool               `json:"known"`
	Best       memory.Candidate   `json:"best,omitempty"`
	Candidates []memory.Candidate `json:"candidates,omitempty"`
	Signature  string             `json:"signature"`
	Fuzzy      bool               `json:"fuzzy"`
	Distance   int                `json:"distance"`
}

// Engine maps observed patterns to symbolic labels and learns those
// mappings from repeated exposure. It owns no state beyond its
// configuration; all learned associations live in semantic memory.
type Engine struct {
	semantic *memory.SemanticMemory
	cfg      config.GroundingConfig
}

func NewEngine(semantic *memory.SemanticMemory, cfg config.GroundingConfig) *Engine {
	return &Engine{semantic: semantic, cfg: cfg}
}

// AssociateShape records one labeled exposure of a shape pattern.
func (e *Engine) AssociateShape(shape world.Shape, label string) memory.SemanticConcept {
	return e.associate(ShapeSignature(shape, e.cfg.RotationInvariant), label)
}

// AssociateTrajectory records one labeled exposure of a movement path.
func (e *Engine) AssociateTrajectory(moves []world.Action, label string) memory.SemanticConcept {
	return e.associate(TrajectorySignature(moves), label)
}

func (e *Engine) associate(signature, label string) memory.SemanticConcept {
	concept := e.semantic.Associate(signature, label, e.cfg.InitialConfidence, e.cfg.ConfidenceIncrement)
	logger.InfoCF("grounding", "Labeled exposure", map[string]interface{}{
		"signature":  signature,
		"label":      label,
		"confidence": concept.Confidence,
		"exposures":  concept.Exposures,
	})
	return concept
}

// QueryShape looks up the label for a shape pattern.
func (e *Engine) QueryShape(shape world.Shape) Result {
	return e.query(ShapeSignature(shape, e.cfg.RotationInvariant))
}

// QueryTrajectory looks up the label for a movement path.
func (e *Engine) QueryTrajectory(moves []world.Action) Result {
	return e.query(TrajectorySignature(moves))
}

// query tries an exact signature match first, then the nearest fuzzy
// match within the configured Hamming distance. The best candidate
// must clear the confidence threshold; otherwise the engine says it
// does not know rather than guessing.
func (e *Engine) query(signature string) Result {
	result := Result{Signature: signature, Distance: -1}

	candidates := e.semantic.Lookup(signature)
	if len(candidates) > 0 {
		result.Distance = 0
	} else {
		nearest, dist := e.nearestSignatures(signature)
		if dist >= 0 {
			result.Fuzzy = true
			result.Distance = dist
			candidates = e.collectCandidates(nearest)
		}
	}

	result.Candidates = candidates
	if len(candidates) > 0 && candidates[0].Confidence >= e.cfg.ConfidenceThreshold {
		result.Known = true
		result.Best = candidates[0]
	}

	logger.DebugCF("grounding", "Query", map[string]interface{}{
		"signature":  signature,
		"known":      result.Known,
		"fuzzy":      result.Fuzzy,
		"distance":   result.Distance,
		"candidates": len(candidates),
	})
	return result
}

// nearestSignatures returns every known signature at the smallest
// Hamming distance from sig, provided that distance is within the
// configured maximum. Distance -1 means nothing was close enough.
func (e *Engine) nearestSignatures(sig string) ([]string, int) {
	best := -1
	var nearest []string
	for _, known := range e.semantic.Signatures() {
		d := HammingDistance(sig, known)
		if d < 0 || d > e.cfg.MaxHammingDistance {
			continue
		}
		switch {
		case best == -1 || d < best:
			best = d
			nearest = []string{known}
		case d == best:
			nearest = append(nearest, known)
		}
	}
	sort.Strings(nearest)
	return nearest, best
}

// collectCandidates merges the candidate lists of several signatures,
// keeping each label's highest confidence, ranked like a single
// lookup: descending confidence, ties toward the most recently
// reinforced label.
func (e *Engine) collectCandidates(signatures []string) []memory.Candidate {
	bestByLabel := make(map[string]memory.Candidate)
	order := make([]string, 0)
	for _, sig := range signatures {
		for _, cand := range e.semantic.Lookup(sig) {
			prev, seen := bestByLabel[cand.Label]
			if !seen {
				order = append(order, cand.Label)
			}
			if !seen || cand.Confidence > prev.Confidence ||
				(cand.Confidence == prev.Confidence && cand.ReinforcedSeq > prev.ReinforcedSeq) {
				bestByLabel[cand.Label] = cand
			}
		}
	}

	out := make([]memory.Candidate, 0, len(order))
	for _, label := range order {
		out = append(out, bestByLabel[label])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ReinforcedSeq > out[j].ReinforcedSeq
	})
	return out
}
