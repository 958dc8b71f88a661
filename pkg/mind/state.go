package mind

import (
	"encoding/json"
	"time"

	"github.com/dotsetgreg/mindgrid/pkg/grounding"
	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// Version identifies the snapshot schema, not the binary.
const Version = "0.1.0"

// Phase is one stage of the kernel's per-tick state machine.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhasePerceiving      Phase = "perceiving"
	PhaseUpdating        Phase = "updating"
	PhaseActionSelecting Phase = "action_selecting"
	PhaseActing          Phase = "acting"
)

// Prediction is the kernel's naive forward model: before acting it
// guesses how many objects the next observation will contain. A miss
// becomes surprise on the following tick.
type Prediction struct {
	Action          world.Action `json:"action"`
	ExpectedVisible int          `json:"expected_visible"`
}

// GroundingAttempt records the most recent teach or ask interaction.
type GroundingAttempt struct {
	Tick   int              `json:"tick"`
	Kind   string           `json:"kind"` // "teach" or "ask"
	Label  string           `json:"label,omitempty"`
	Result grounding.Result `json:"result"`
}

// MindState is the full inspectable snapshot of the kernel at one
// tick. It is immutable once produced: a fresh instance is created
// every tick, chained to its predecessor through ParentStateID.
type MindState struct {
	StateID       string    `json:"state_id"`
	ParentStateID string    `json:"parent_state_id,omitempty"`
	SessionID     string    `json:"session_id"`
	Version       string    `json:"version"`
	Tick          int       `json:"tick"`
	CreatedAt     time.Time `json:"created_at"`

	Observation world.Observation     `json:"observation"`
	Working     []memory.Item         `json:"working_memory"`
	Affect      memory.AffectSnapshot `json:"affect"`
	LastAction  world.Action          `json:"last_action,omitempty"`
	Grounding   *GroundingAttempt     `json:"grounding,omitempty"`

	EpisodicLen     int `json:"episodic_len"`
	EpisodicEvicted int `json:"episodic_evicted"`
	ConceptCount    int `json:"concept_count"`
}

// JSON renders the snapshot in the serialization contract consumed by
// logging, persistence, and any external inspector.
func (s MindState) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
