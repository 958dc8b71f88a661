package memory

import (
	"errors"
	"testing"

	"github.com/dotsetgreg/mindgrid/pkg/world"
)

type fixedSkill struct {
	name   string
	action world.Action
}

func (s *fixedSkill) Name() string        { return s.name }
func (s *fixedSkill) Description() string { return "always proposes the same action" }
func (s *fixedSkill) Propose(sc SkillContext) (world.Action, error) {
	return s.action, nil
}

func TestSkillRegistry_RegisterAndInvoke(t *testing.T) {
	r := NewSkillRegistry()
	r.Register(&fixedSkill{name: "go-up", action: world.ActionUp})

	action, err := r.Invoke("go-up", SkillContext{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if action != world.ActionUp {
		t.Fatalf("expected up, got %v", action)
	}
}

func TestSkillRegistry_UnknownSkillFails(t *testing.T) {
	r := NewSkillRegistry()

	_, err := r.Invoke("missing", SkillContext{})
	if err == nil {
		t.Fatalf("expected error for unknown skill")
	}
	if !errors.Is(err, ErrSkillNotFound) {
		t.Fatalf("expected ErrSkillNotFound, got %v", err)
	}
}

func TestSkillRegistry_ListSortedAndCount(t *testing.T) {
	r := NewSkillRegistry()
	r.Register(&fixedSkill{name: "zeta", action: world.ActionStay})
	r.Register(&fixedSkill{name: "alpha", action: world.ActionStay})

	names := r.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("unexpected skill list: %v", names)
	}
	if r.Count() != 2 {
		t.Fatalf("expected 2 skills, got %d", r.Count())
	}
}
