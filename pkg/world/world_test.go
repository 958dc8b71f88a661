package world

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestReset_SameSeedSameLayout(t *testing.T) {
	w1 := New(5, 5, 2)
	w2 := New(5, 5, 2)

	obs1 := w1.Reset(42)
	obs2 := w2.Reset(42)

	if !reflect.DeepEqual(obs1, obs2) {
		t.Fatalf("same seed produced different initial observations:\n%v\n%v", obs1, obs2)
	}
}

func TestReset_DifferentSeedsDiverge(t *testing.T) {
	// Not guaranteed for every seed pair in a tiny grid, but stable for
	// this pair on a 9x9 with 3 objects.
	w1 := New(9, 9, 3)
	w2 := New(9, 9, 3)

	obs1 := w1.Reset(1)
	obs2 := w2.Reset(2)

	if reflect.DeepEqual(obs1, obs2) {
		t.Fatalf("seeds 1 and 2 produced identical layouts")
	}
}

func TestStep_DeterministicObservationSequence(t *testing.T) {
	actions := []Action{ActionUp, ActionLeft, ActionDown, ActionDown, ActionRight, ActionStay, ActionUp}

	run := func() []Observation {
		w := New(6, 7, 3)
		seq := []Observation{w.Reset(1234)}
		for _, a := range actions {
			obs, err := w.Step(a)
			if err != nil {
				t.Fatalf("unexpected step error: %v", err)
			}
			seq = append(seq, obs)
		}
		return seq
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs with identical seed and actions diverged")
	}
}

func TestStep_InvalidActionFails(t *testing.T) {
	w := New(5, 5, 0)
	w.Reset(1)

	_, err := w.Step(Action("jump"))
	if err == nil {
		t.Fatalf("expected error for invalid action")
	}
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestStep_BoundaryClamps(t *testing.T) {
	w := New(5, 5, 0)
	w.Reset(1)
	w.PlaceAgent(Coord{Row: 0, Col: 0})

	obs, err := w.Step(ActionUp)
	if err != nil {
		t.Fatalf("boundary move must not error: %v", err)
	}
	if obs.AgentPosition != (Coord{Row: 0, Col: 0}) {
		t.Fatalf("expected clamped position (0,0), got %v", obs.AgentPosition)
	}
	if obs.Orientation != ActionUp {
		t.Fatalf("orientation should follow the attempted move, got %v", obs.Orientation)
	}

	obs, err = w.Step(ActionLeft)
	if err != nil {
		t.Fatalf("boundary move must not error: %v", err)
	}
	if obs.AgentPosition != (Coord{Row: 0, Col: 0}) {
		t.Fatalf("expected clamped position (0,0), got %v", obs.AgentPosition)
	}
}

func TestStep_OccupiedCellBlocks(t *testing.T) {
	w := New(5, 5, 0)
	w.Reset(1)
	w.PlaceAgent(Coord{Row: 2, Col: 2})
	w.PlaceObjects(Object{ID: "obj-1", Kind: "block", Position: Coord{Row: 2, Col: 3}})

	obs, err := w.Step(ActionRight)
	if err != nil {
		t.Fatalf("blocked move must not error: %v", err)
	}
	if obs.AgentPosition != (Coord{Row: 2, Col: 2}) {
		t.Fatalf("expected move into object to be blocked, got %v", obs.AgentPosition)
	}
}

func TestScenario_Seed42SingleObject(t *testing.T) {
	w := New(5, 5, 0)
	w.Reset(42)
	w.PlaceAgent(Coord{Row: 2, Col: 2})
	w.PlaceObjects(Object{ID: "obj-1", Kind: "block", Position: Coord{Row: 4, Col: 0}})

	var obs Observation
	var err error
	for _, a := range []Action{ActionUp, ActionUp, ActionRight, ActionRight} {
		obs, err = w.Step(a)
		if err != nil {
			t.Fatalf("step %v: %v", a, err)
		}
	}

	if obs.AgentPosition != (Coord{Row: 0, Col: 4}) {
		t.Fatalf("expected final position (0,4), got %v", obs.AgentPosition)
	}
	if len(obs.VisibleObjects) != 1 {
		t.Fatalf("expected exactly one visible object, got %d", len(obs.VisibleObjects))
	}
	vo := obs.VisibleObjects[0]
	if vo.ID != "obj-1" {
		t.Fatalf("expected obj-1, got %s", vo.ID)
	}
	if vo.AbsPosition != (Coord{Row: 4, Col: 0}) {
		t.Fatalf("expected abs position (4,0), got %v", vo.AbsPosition)
	}
	if vo.RelPosition != (Coord{Row: 4, Col: -4}) {
		t.Fatalf("expected rel position (4,-4), got %v", vo.RelPosition)
	}
}

func TestObserve_GridSnapshotIsCopy(t *testing.T) {
	w := New(3, 3, 0)
	w.Reset(1)
	w.PlaceAgent(Coord{Row: 1, Col: 1})

	obs := w.Observe()
	obs.Grid[0][0] = SymbolObject

	fresh := w.Observe()
	if fresh.Grid[0][0] != SymbolEmpty {
		t.Fatalf("mutating an observation leaked into the world")
	}
}

func TestGridString_Render(t *testing.T) {
	w := New(3, 3, 0)
	w.Reset(1)
	w.PlaceAgent(Coord{Row: 0, Col: 0})
	w.PlaceObjects(Object{ID: "obj-1", Kind: "block", Position: Coord{Row: 2, Col: 2}})

	want := "A . .\n. . .\n. . O"
	if got := w.GridString(); got != want {
		t.Fatalf("grid render mismatch:\n%q\nwant:\n%q", got, want)
	}
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"up", "down", "left", "right", "stay"} {
		if _, err := ParseAction(valid); err != nil {
			t.Fatalf("ParseAction(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseAction("teleport"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for teleport, got %v", err)
	}
}

func TestSymbol_JSONRoundTrip(t *testing.T) {
	grid := [][]Symbol{{SymbolAgent, SymbolEmpty}, {SymbolEmpty, SymbolObject}}

	data, err := json.Marshal(grid)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[["A","."],[".","O"]]` {
		t.Fatalf("unexpected grid encoding: %s", data)
	}

	var back [][]Symbol
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(grid, back) {
		t.Fatalf("round trip mismatch: %v", back)
	}
}
