package memory

import (
	"sort"
	"sync"
)

// SemanticConcept is a learned association between a canonical pattern
// signature and a symbolic label, with a confidence score in [0,1].
// Many signatures may map to the same label. Confidence moves only
// through explicit grounding updates.
type SemanticConcept struct {
	Signature     string  `json:"signature"`
	Label         string  `json:"label"`
	Confidence    float64 `json:"confidence"`
	Exposures     int     `json:"exposures"`
	ReinforcedSeq int64   `json:"reinforced_seq"`
}

// SemanticMemory stores pattern→label associations. Lookup is never a
// hard unique-key fetch: it returns every label known for a signature,
// ranked by confidence.
type SemanticMemory struct {
	mu       sync.RWMutex
	concepts map[string]map[string]*SemanticConcept // signature -> label -> concept
	seq      int64
}

func NewSemanticMemory() *SemanticMemory {
	return &SemanticMemory{
		concepts: make(map[string]map[string]*SemanticConcept),
	}
}

// Associate creates a concept at initial confidence, or strengthens an
// existing one by increment. Confidence is capped at 1.0. Returns the
// resulting concept value.
func (sm *SemanticMemory) Associate(signature, label string, initial, increment float64) SemanticConcept {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.seq++
	byLabel, ok := sm.concepts[signature]
	if !ok {
		byLabel = make(map[string]*SemanticConcept)
		sm.concepts[signature] = byLabel
	}

	concept, ok := byLabel[label]
	if !ok {
		concept = &SemanticConcept{
			Signature:  signature,
			Label:      label,
			Confidence: clampConfidence(initial),
		}
		byLabel[label] = concept
	} else {
		concept.Confidence = clampConfidence(concept.Confidence + increment)
	}
	concept.Exposures++
	concept.ReinforcedSeq = sm.seq
	return *concept
}

// Lookup returns the labels known for an exact signature, sorted by
// descending confidence; ties break toward the most recently
// reinforced label.
func (sm *SemanticMemory) Lookup(signature string) []Candidate {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	byLabel, ok := sm.concepts[signature]
	if !ok {
		return nil
	}

	ranked := make([]*SemanticConcept, 0, len(byLabel))
	for _, c := range byLabel {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].ReinforcedSeq > ranked[j].ReinforcedSeq
	})

	out := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, Candidate{Label: c.Label, Confidence: c.Confidence, ReinforcedSeq: c.ReinforcedSeq})
	}
	return out
}

// Signatures returns every known signature. Order is unspecified.
func (sm *SemanticMemory) Signatures() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sigs := make([]string, 0, len(sm.concepts))
	for sig := range sm.concepts {
		sigs = append(sigs, sig)
	}
	return sigs
}

// Concepts returns a copy of every stored concept.
func (sm *SemanticMemory) Concepts() []SemanticConcept {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var out []SemanticConcept
	for _, byLabel := range sm.concepts {
		for _, c := range byLabel {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Signature != out[j].Signature {
			return out[i].Signature < out[j].Signature
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Load restores previously persisted concepts, replacing the current
// contents. Used by the persistence collaborator at session start.
func (sm *SemanticMemory) Load(concepts []SemanticConcept) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.concepts = make(map[string]map[string]*SemanticConcept, len(concepts))
	sm.seq = 0
	for i := range concepts {
		c := concepts[i]
		c.Confidence = clampConfidence(c.Confidence)
		byLabel, ok := sm.concepts[c.Signature]
		if !ok {
			byLabel = make(map[string]*SemanticConcept)
			sm.concepts[c.Signature] = byLabel
		}
		byLabel[c.Label] = &c
		if c.ReinforcedSeq > sm.seq {
			sm.seq = c.ReinforcedSeq
		}
	}
}

// Len returns the number of stored concepts.
func (sm *SemanticMemory) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	n := 0
	for _, byLabel := range sm.concepts {
		n += len(byLabel)
	}
	return n
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
