package affect

import (
	"testing"

	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

func testConfig() config.AffectConfig {
	return config.AffectConfig{
		BoredomStep:      0.125, // binary-exact for equality assertions
		NoveltyThreshold: 0.5,
		BoredomCeiling:   1.0,
	}
}

func obsAt(row, col int) world.Observation {
	return world.Observation{AgentPosition: world.Coord{Row: row, Col: col}}
}

func recAt(tick, row, col int) memory.EpisodicRecord {
	return memory.EpisodicRecord{Tick: tick, Observation: obsAt(row, col)}
}

func TestCompute_FreshCellIsNovel(t *testing.T) {
	tr := NewTracker(testConfig())

	snap := tr.Compute(nil, obsAt(0, 0), 0)
	if snap.Novelty != 1.0 {
		t.Fatalf("first visit should be fully novel, got %v", snap.Novelty)
	}
	if snap.Boredom != 0 {
		t.Fatalf("novel observation must reset boredom, got %v", snap.Boredom)
	}
}

func TestCompute_RevisitsLowerNovelty(t *testing.T) {
	tr := NewTracker(testConfig())
	history := []memory.EpisodicRecord{recAt(1, 0, 0), recAt(2, 0, 0)}

	snap := tr.Compute(history, obsAt(0, 0), 0)
	want := 1.0 / 3.0
	if snap.Novelty != want {
		t.Fatalf("expected novelty %v after two prior visits, got %v", want, snap.Novelty)
	}
}

func TestCompute_BoredomAccumulates(t *testing.T) {
	tr := NewTracker(testConfig())

	// Four consecutive ticks on the same cell. Novelty at each tick is
	// 1, 1/2, 1/3, 1/4; only the last two fall strictly below the 0.5
	// threshold, so boredom steps twice.
	history := []memory.EpisodicRecord{recAt(1, 0, 0), recAt(2, 0, 0), recAt(3, 0, 0)}
	snap := tr.Compute(history, obsAt(0, 0), 0)

	if snap.Boredom != 0.25 {
		t.Fatalf("expected boredom 0.25 after two sub-threshold ticks, got %v", snap.Boredom)
	}
}

func TestCompute_BoredomResetsOnNovelCell(t *testing.T) {
	tr := NewTracker(testConfig())
	history := []memory.EpisodicRecord{recAt(1, 0, 0), recAt(2, 0, 0), recAt(3, 0, 0)}

	snap := tr.Compute(history, obsAt(4, 4), 0)
	if snap.Boredom != 0 {
		t.Fatalf("moving to a fresh cell must reset boredom, got %v", snap.Boredom)
	}
	if snap.Novelty != 1.0 {
		t.Fatalf("fresh cell should be fully novel, got %v", snap.Novelty)
	}
}

func TestCompute_BoredomCapped(t *testing.T) {
	tr := NewTracker(testConfig())

	var history []memory.EpisodicRecord
	for i := 1; i <= 20; i++ {
		history = append(history, recAt(i, 0, 0))
	}

	snap := tr.Compute(history, obsAt(0, 0), 0)
	if snap.Boredom != 1.0 {
		t.Fatalf("boredom must cap at the ceiling, got %v", snap.Boredom)
	}
}

func TestCompute_SurpriseResetsBoredom(t *testing.T) {
	tr := NewTracker(testConfig())
	var history []memory.EpisodicRecord
	for i := 1; i <= 10; i++ {
		history = append(history, recAt(i, 0, 0))
	}

	snap := tr.Compute(history, obsAt(0, 0), 1.0)
	if snap.Boredom != 0 {
		t.Fatalf("surprise must reset boredom, got %v", snap.Boredom)
	}
	if snap.Surprise != 1.0 {
		t.Fatalf("surprise should pass through, got %v", snap.Surprise)
	}
	if snap.Curiosity != 1.0 {
		t.Fatalf("full surprise should max curiosity, got %v", snap.Curiosity)
	}
}

func TestCompute_DeterministicFromHistory(t *testing.T) {
	tr := NewTracker(testConfig())
	history := []memory.EpisodicRecord{recAt(1, 0, 0), recAt(2, 0, 1), recAt(3, 0, 0), recAt(4, 0, 0)}

	a := tr.Compute(history, obsAt(0, 0), 0)
	b := tr.Compute(history, obsAt(0, 0), 0)
	if a != b {
		t.Fatalf("affect must be a pure function of history: %+v vs %+v", a, b)
	}
}

func TestSurprise(t *testing.T) {
	if got := Surprise(2, 2, true); got != 0 {
		t.Fatalf("accurate prediction should not surprise, got %v", got)
	}
	if got := Surprise(0, 1, true); got != 1 {
		t.Fatalf("missed prediction should surprise, got %v", got)
	}
	if got := Surprise(0, 5, false); got != 0 {
		t.Fatalf("no prediction means no surprise, got %v", got)
	}
}
