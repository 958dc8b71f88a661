// mindgrid - A persistent cognitive control loop over a simulated grid world
// License: MIT
//
// Copyright (c) 2026 mindgrid contributors

package mind

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dotsetgreg/mindgrid/pkg/affect"
	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/grounding"
	"github.com/dotsetgreg/mindgrid/pkg/logger"
	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/world"
	"github.com/google/uuid"
)

// ErrKernelClosed is returned by Step after Close.
var ErrKernelClosed = errors.New("kernel closed")

// trajectoryWindow bounds how many recent moves feed a trajectory
// grounding pattern.
const trajectoryWindow = 5

// Kernel orchestrates one discrete time step: perceive, fold the
// observation into memory, recompute affect, optionally ground a
// pending label, select an action, act. The kernel exclusively owns
// the world and all memory subsystems for the duration of a tick.
type Kernel struct {
	cfg *config.Config

	world    *world.GridWorld
	working  *memory.WorkingMemory
	episodic *memory.EpisodicMemory
	semantic *memory.SemanticMemory
	skills   *memory.SkillRegistry
	grounder *grounding.Engine
	tracker  *affect.Tracker

	phase         Phase
	tick          int
	stateID       string
	sessionID     string
	lastObs       world.Observation
	lastAction    world.Action
	lastAffect    memory.AffectSnapshot
	prediction    *Prediction
	pendingLabel  string
	forcedAction  *world.Action
	lastGrounding *GroundingAttempt
	recentMoves   []world.Action
	visits        map[world.Coord]int
	closed        atomic.Bool
}

// NewKernel constructs a kernel from the configuration and resets the
// world with the configured seed.
func NewKernel(cfg *config.Config) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kernel config: %w", err)
	}

	working, err := memory.NewWorkingMemory(cfg.Memory.WorkingCapacity)
	if err != nil {
		return nil, fmt.Errorf("working memory: %w", err)
	}

	semantic := memory.NewSemanticMemory()
	k := &Kernel{
		cfg:       cfg,
		world:     world.New(cfg.World.Rows, cfg.World.Cols, cfg.World.NumObjects),
		working:   working,
		episodic:  memory.NewEpisodicMemory(cfg.Memory.EpisodicCeiling),
		semantic:  semantic,
		skills:    memory.NewSkillRegistry(),
		grounder:  grounding.NewEngine(semantic, cfg.Grounding),
		tracker:   affect.NewTracker(cfg.Affect),
		phase:     PhaseIdle,
		stateID:   uuid.NewString(),
		sessionID: uuid.NewString(),
		visits:    make(map[world.Coord]int),
	}

	k.skills.Register(&exploreSkill{})
	k.skills.Register(&seekObjectSkill{})

	k.lastObs = k.world.Reset(cfg.World.Seed)

	logger.InfoCF("mind", "Kernel initialized", map[string]interface{}{
		"session": k.sessionID,
		"grid":    fmt.Sprintf("%dx%d", cfg.World.Rows, cfg.World.Cols),
		"objects": cfg.World.NumObjects,
		"seed":    cfg.World.Seed,
		"skills":  k.skills.Count(),
	})
	return k, nil
}

// World exposes the environment for scenario setup (experiments and
// teaching sessions place exact scenes). External callers must not
// touch it while a Step is in flight.
func (k *Kernel) World() *world.GridWorld { return k.world }

// Semantic exposes learned concepts for persistence.
func (k *Kernel) Semantic() *memory.SemanticMemory { return k.semantic }

// Skills exposes the procedural registry so hosts can add routines.
func (k *Kernel) Skills() *memory.SkillRegistry { return k.skills }

// Episodic exposes the chronological log for replay and inspection.
func (k *Kernel) Episodic() *memory.EpisodicMemory { return k.episodic }

func (k *Kernel) SessionID() string { return k.sessionID }
func (k *Kernel) Tick() int         { return k.tick }

// Phase reports where in the tick state machine the kernel currently
// is. Outside an in-flight Step this is always PhaseIdle.
func (k *Kernel) Phase() Phase { return k.phase }

// Teach queues a label to be grounded against the currently visible
// shape during the next tick's Updating phase.
func (k *Kernel) Teach(label string) {
	k.pendingLabel = label
}

// Ask performs an immediate unlabeled grounding query against the
// single visible shaped object. With no shape in view the result is
// unknown.
func (k *Kernel) Ask() grounding.Result {
	shape, ok := singleVisibleShape(k.lastObs)
	if !ok {
		return grounding.Result{}
	}
	return k.grounder.QueryShape(shape)
}

// AskTrajectory queries the label of the recent movement path.
func (k *Kernel) AskTrajectory() grounding.Result {
	return k.grounder.QueryTrajectory(k.recentMoves)
}

// TeachTrajectory grounds the recent movement path under a label.
func (k *Kernel) TeachTrajectory(label string) memory.SemanticConcept {
	return k.grounder.AssociateTrajectory(k.recentMoves, label)
}

// ForceAction overrides action selection for the next tick. Used by
// interactive sessions where the operator steers directly.
func (k *Kernel) ForceAction(action world.Action) {
	k.forcedAction = &action
}

// Close requests shutdown. Subsequent Steps fail with ErrKernelClosed.
func (k *Kernel) Close() {
	if k.closed.CompareAndSwap(false, true) {
		logger.InfoCF("mind", "Kernel closed", map[string]interface{}{
			"session": k.sessionID,
			"ticks":   k.tick,
		})
	}
}

// Step runs one full tick of the control loop and returns the
// resulting immutable snapshot. Errors from collaborators are absorbed
// into a safe default action; the loop itself only fails once closed.
func (k *Kernel) Step() (MindState, error) {
	if k.closed.Load() {
		return MindState{}, ErrKernelClosed
	}

	// Perceiving: pull the current observation.
	k.phase = PhasePerceiving
	obs := k.world.Observe()

	surprise := 0.0
	if k.prediction != nil {
		surprise = affect.Surprise(k.prediction.ExpectedVisible, len(obs.VisibleObjects), true)
	}

	// Updating: fold the observation into memory, recompute affect,
	// resolve any pending grounding.
	k.phase = PhaseUpdating
	history := k.episodic.Query(nil).Collect()
	affectSnap := k.tracker.Compute(history, obs, surprise)

	k.working.Push(memory.Item{
		Key:     "observation",
		Kind:    memory.ItemObservation,
		Tick:    k.tick,
		Content: fmt.Sprintf("at (%d,%d) seeing %d objects", obs.AgentPosition.Row, obs.AgentPosition.Col, len(obs.VisibleObjects)),
	})
	if affectSnap.Boredom > 0.7 {
		k.working.Push(memory.Item{
			Key:     "focus",
			Kind:    memory.ItemFocus,
			Tick:    k.tick,
			Content: "bored: explore",
		})
	} else if affectSnap.Surprise > 0.5 {
		k.working.Push(memory.Item{
			Key:     "focus",
			Kind:    memory.ItemFocus,
			Tick:    k.tick,
			Content: "surprised: attend",
		})
	}

	if k.pendingLabel != "" {
		k.resolvePendingLabel(obs)
	}

	// ActionSelecting: a deterministic function of working memory and
	// affect. Collaborator failures degrade to the safe default here
	// rather than aborting the tick.
	k.phase = PhaseActionSelecting
	action := k.selectAction(obs, affectSnap)

	// Acting: submit the action. The world only rejects actions
	// outside the enumerated set, which selection never emits; if it
	// happens anyway, degrade to stay.
	k.phase = PhaseActing
	if _, err := k.world.Step(action); err != nil {
		logger.WarnCF("mind", "Action rejected, substituting stay", map[string]interface{}{
			"action": string(action),
			"error":  err.Error(),
		})
		action = world.ActionStay
		if _, err := k.world.Step(action); err != nil {
			return MindState{}, fmt.Errorf("stay action rejected: %w", err)
		}
	}

	k.episodic.Record(memory.EpisodicRecord{
		Tick:        k.tick,
		Observation: obs,
		Action:      action,
		Affect:      affectSnap,
	})
	k.visits[obs.AgentPosition]++
	if action != world.ActionStay {
		k.recentMoves = append(k.recentMoves, action)
		if len(k.recentMoves) > trajectoryWindow {
			k.recentMoves = k.recentMoves[len(k.recentMoves)-trajectoryWindow:]
		}
	}

	// Naive forward model: expect to keep seeing what is seen now.
	k.prediction = &Prediction{Action: action, ExpectedVisible: len(obs.VisibleObjects)}

	k.lastObs = obs
	k.lastAction = action
	k.lastAffect = affectSnap
	k.tick++

	parentID := k.stateID
	k.stateID = uuid.NewString()
	k.phase = PhaseIdle

	state := MindState{
		StateID:         k.stateID,
		ParentStateID:   parentID,
		SessionID:       k.sessionID,
		Version:         Version,
		Tick:            k.tick,
		CreatedAt:       time.Now().UTC(),
		Observation:     obs,
		Working:         k.working.Contents(),
		Affect:          affectSnap,
		LastAction:      action,
		Grounding:       k.lastGrounding,
		EpisodicLen:     k.episodic.Len(),
		EpisodicEvicted: k.episodic.Evicted(),
		ConceptCount:    k.semantic.Len(),
	}
	return state, nil
}

// resolvePendingLabel grounds the queued label against the single
// visible shaped object. Zero or multiple shaped objects make the
// teaching scene ambiguous; the label is dropped and the attempt is
// recorded as not known.
func (k *Kernel) resolvePendingLabel(obs world.Observation) {
	label := k.pendingLabel
	k.pendingLabel = ""

	attempt := &GroundingAttempt{Tick: k.tick, Kind: "teach", Label: label}
	shape, ok := singleVisibleShape(obs)
	if ok {
		concept := k.grounder.AssociateShape(shape, label)
		attempt.Result = k.grounder.QueryShape(shape)
		k.working.Push(memory.Item{
			Key:     "grounding",
			Kind:    memory.ItemGrounding,
			Tick:    k.tick,
			Content: fmt.Sprintf("learned %q at confidence %.2f", label, concept.Confidence),
		})
	} else {
		logger.WarnCF("mind", "Teaching scene ambiguous", map[string]interface{}{
			"label":   label,
			"visible": len(obs.VisibleObjects),
		})
		k.working.Push(memory.Item{
			Key:     "grounding",
			Kind:    memory.ItemGrounding,
			Tick:    k.tick,
			Content: fmt.Sprintf("could not ground %q: no single shape in view", label),
		})
	}
	k.lastGrounding = attempt
}

// selectAction picks the next action. Priorities: attend to surprise,
// focus on a nearby shape, seek a visible object, otherwise explore.
// Any skill failure falls back to stay.
func (k *Kernel) selectAction(obs world.Observation, snap memory.AffectSnapshot) world.Action {
	if k.forcedAction != nil {
		action := *k.forcedAction
		k.forcedAction = nil
		return action
	}

	sc := memory.SkillContext{
		Tick:        k.tick,
		Observation: obs,
		Affect:      snap,
		Working:     k.working.Contents(),
		Visits:      k.visits,
	}

	if snap.Surprise > 0.5 {
		return world.ActionStay
	}
	if shapeNearby(obs) && snap.Boredom < 0.5 {
		return world.ActionStay
	}

	skill := "explore"
	if len(obs.VisibleObjects) > 0 && snap.Boredom < 0.5 {
		skill = "move-to-nearest-object"
	}

	action, err := k.skills.Invoke(skill, sc)
	if err != nil {
		logger.WarnCF("mind", "Action selection degraded to stay", map[string]interface{}{
			"skill": skill,
			"error": err.Error(),
		})
		return world.ActionStay
	}
	return action
}

// Snapshot builds an inspection snapshot of the current state without
// advancing the tick. The returned value follows the same contract as
// Step's result but reuses the current state id.
func (k *Kernel) Snapshot() MindState {
	return MindState{
		StateID:         k.stateID,
		SessionID:       k.sessionID,
		Version:         Version,
		Tick:            k.tick,
		CreatedAt:       time.Now().UTC(),
		Observation:     k.lastObs,
		Working:         k.working.Contents(),
		Affect:          k.lastAffect,
		LastAction:      k.lastAction,
		Grounding:       k.lastGrounding,
		EpisodicLen:     k.episodic.Len(),
		EpisodicEvicted: k.episodic.Evicted(),
		ConceptCount:    k.semantic.Len(),
	}
}

func singleVisibleShape(obs world.Observation) (world.Shape, bool) {
	var found world.Shape
	count := 0
	for _, obj := range obs.VisibleObjects {
		if !obj.Shape.Empty() {
			found = obj.Shape
			count++
		}
	}
	if count != 1 {
		return world.Shape{}, false
	}
	return found, true
}

func shapeNearby(obs world.Observation) bool {
	for _, obj := range obs.VisibleObjects {
		if obj.Shape.Empty() {
			continue
		}
		if abs(obj.RelPosition.Row)+abs(obj.RelPosition.Col) <= 2 {
			return true
		}
	}
	return false
}
