package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dotsetgreg/mindgrid/pkg/logger"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// Skill is a named reusable routine that proposes the next action from
// the kernel's current view. Skills are invoked by action selection,
// they are not a passive store.
type Skill interface {
	Name() string
	Description() string
	Propose(sc SkillContext) (world.Action, error)
}

// SkillContext is what a skill may read when proposing an action.
type SkillContext struct {
	Tick        int
	Observation world.Observation
	Affect      AffectSnapshot
	Working     []Item
	Visits      map[world.Coord]int
}

// SkillRegistry is the procedural memory: a registry of named skills.
type SkillRegistry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

func NewSkillRegistry() *SkillRegistry {
	return &SkillRegistry{skills: make(map[string]Skill)}
}

// Register adds or replaces a skill under its name.
func (r *SkillRegistry) Register(skill Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[skill.Name()] = skill
}

// Get returns the named skill.
func (r *SkillRegistry) Get(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	skill, ok := r.skills[name]
	return skill, ok
}

// Invoke runs the named skill against the given context. An
// unregistered name fails with ErrSkillNotFound.
func (r *SkillRegistry) Invoke(name string, sc SkillContext) (world.Action, error) {
	skill, ok := r.Get(name)
	if !ok {
		logger.WarnCF("skills", "Skill not found", map[string]interface{}{
			"skill": name,
		})
		return "", fmt.Errorf("%w: %q", ErrSkillNotFound, name)
	}

	action, err := skill.Propose(sc)
	if err != nil {
		logger.ErrorCF("skills", "Skill invocation failed", map[string]interface{}{
			"skill": name,
			"error": err.Error(),
		})
		return "", err
	}

	logger.DebugCF("skills", "Skill proposed action", map[string]interface{}{
		"skill":  name,
		"action": string(action),
	})
	return action, nil
}

// List returns registered skill names in sorted order.
func (r *SkillRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered skills.
func (r *SkillRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}
