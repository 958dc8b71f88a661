package memory

import "github.com/dotsetgreg/mindgrid/pkg/world"

// ItemKind classifies working memory items.
type ItemKind string

const (
	ItemObservation ItemKind = "observation"
	ItemFocus       ItemKind = "focus"
	ItemGrounding   ItemKind = "grounding"
	ItemThought     ItemKind = "thought"
)

// Item is one salient entry held in working memory.
type Item struct {
	Key     string   `json:"key"`
	Kind    ItemKind `json:"kind"`
	Tick    int      `json:"tick"`
	Content string   `json:"content"`
}

// AffectSnapshot is the drive state recorded alongside each episodic
// record. It is a value, frozen at the tick it describes.
type AffectSnapshot struct {
	Novelty   float64 `json:"novelty"`
	Boredom   float64 `json:"boredom"`
	Curiosity float64 `json:"curiosity"`
	Surprise  float64 `json:"surprise"`
}

// EpisodicRecord is one tick of lived history. Never mutated after
// creation.
type EpisodicRecord struct {
	Tick        int               `json:"tick"`
	Observation world.Observation `json:"observation"`
	Action      world.Action      `json:"action"`
	Affect      AffectSnapshot    `json:"affect"`
}

// Candidate is one scored label returned by a semantic lookup.
type Candidate struct {
	Label         string  `json:"label"`
	Confidence    float64 `json:"confidence"`
	ReinforcedSeq int64   `json:"reinforced_seq,omitempty"`
}
