package mind

import (
	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// Built-in procedural skills. All proposals are deterministic
// functions of the skill context; ties break in a fixed direction
// order so identical histories always produce identical behavior.

var directionOrder = []world.Action{world.ActionUp, world.ActionDown, world.ActionLeft, world.ActionRight}

// exploreSkill proposes the step onto the least-visited neighboring
// cell, pulling the agent toward territory it has not covered.
type exploreSkill struct{}

func (s *exploreSkill) Name() string        { return "explore" }
func (s *exploreSkill) Description() string { return "move toward the least-visited neighboring cell" }

func (s *exploreSkill) Propose(sc memory.SkillContext) (world.Action, error) {
	pos := sc.Observation.AgentPosition
	rows := len(sc.Observation.Grid)
	if rows == 0 {
		return world.ActionStay, nil
	}
	cols := len(sc.Observation.Grid[0])

	best := world.ActionStay
	bestVisits := -1
	for _, dir := range directionOrder {
		next := neighbor(pos, dir)
		if next.Row < 0 || next.Row >= rows || next.Col < 0 || next.Col >= cols {
			continue
		}
		if sc.Observation.Grid[next.Row][next.Col] == world.SymbolObject {
			continue
		}
		v := sc.Visits[next]
		if bestVisits == -1 || v < bestVisits {
			best = dir
			bestVisits = v
		}
	}
	return best, nil
}

// seekObjectSkill moves toward the nearest visible object, reducing
// the larger axis delta first. Adjacent to the object it stays put:
// occupied cells block entry anyway.
type seekObjectSkill struct{}

func (s *seekObjectSkill) Name() string { return "move-to-nearest-object" }
func (s *seekObjectSkill) Description() string {
	return "step toward the nearest visible object"
}

func (s *seekObjectSkill) Propose(sc memory.SkillContext) (world.Action, error) {
	var nearest *world.VisibleObject
	nearestDist := 0
	for i := range sc.Observation.VisibleObjects {
		obj := &sc.Observation.VisibleObjects[i]
		d := abs(obj.RelPosition.Row) + abs(obj.RelPosition.Col)
		if nearest == nil || d < nearestDist {
			nearest = obj
			nearestDist = d
		}
	}
	if nearest == nil || nearestDist <= 1 {
		return world.ActionStay, nil
	}

	dr, dc := nearest.RelPosition.Row, nearest.RelPosition.Col
	if abs(dr) >= abs(dc) {
		if dr < 0 {
			return world.ActionUp, nil
		}
		return world.ActionDown, nil
	}
	if dc < 0 {
		return world.ActionLeft, nil
	}
	return world.ActionRight, nil
}

func neighbor(pos world.Coord, dir world.Action) world.Coord {
	switch dir {
	case world.ActionUp:
		pos.Row--
	case world.ActionDown:
		pos.Row++
	case world.ActionLeft:
		pos.Col--
	case world.ActionRight:
		pos.Col++
	}
	return pos
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
