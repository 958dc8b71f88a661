package grounding

import (
	"testing"

	"github.com/dotsetgreg/mindgrid/pkg/world"
)

func TestShapeSignature_Canonical(t *testing.T) {
	got := ShapeSignature(world.ShapeA, false)
	if got != "shape:.#./###/#.#" {
		t.Fatalf("unexpected signature for shape A: %q", got)
	}
}

func TestShapeSignature_TranslationInvariant(t *testing.T) {
	topLeft := world.Shape{"#..", "##.", "..."}
	shifted := world.Shape{".#.", ".##", "..."}

	a := ShapeSignature(topLeft, false)
	b := ShapeSignature(shifted, false)
	if a != b {
		t.Fatalf("translated shapes should share a signature: %q vs %q", a, b)
	}
}

func TestShapeSignature_NotRotationInvariantByDefault(t *testing.T) {
	horizontal := world.Shape{"##.", "...", "..."}
	vertical := world.Shape{"#..", "#..", "..."}

	if ShapeSignature(horizontal, false) == ShapeSignature(vertical, false) {
		t.Fatalf("rotated shapes should differ without rotation invariance")
	}
}

func TestShapeSignature_RotationInvariantWhenConfigured(t *testing.T) {
	horizontal := world.Shape{"##.", "...", "..."}
	vertical := world.Shape{"#..", "#..", "..."}

	a := ShapeSignature(horizontal, true)
	b := ShapeSignature(vertical, true)
	if a != b {
		t.Fatalf("rotated shapes should share a signature when configured: %q vs %q", a, b)
	}
}

func TestShapeSignature_EmptyShape(t *testing.T) {
	got := ShapeSignature(world.Shape{}, false)
	if got != "shape:.../.../..." {
		t.Fatalf("unexpected empty-shape signature: %q", got)
	}
}

func TestTrajectorySignature_DropsStay(t *testing.T) {
	a := TrajectorySignature([]world.Action{world.ActionUp, world.ActionUp, world.ActionRight})
	b := TrajectorySignature([]world.Action{world.ActionUp, world.ActionStay, world.ActionUp, world.ActionRight})
	if a != b {
		t.Fatalf("stay actions should not affect trajectory signatures: %q vs %q", a, b)
	}
	if a != "traj:up>up>right" {
		t.Fatalf("unexpected trajectory signature: %q", a)
	}
}

func TestHammingDistance(t *testing.T) {
	a := "shape:.#./###/#.#"
	b := "shape:.#./###/###"
	if d := HammingDistance(a, b); d != 1 {
		t.Fatalf("expected distance 1, got %d", d)
	}
	if d := HammingDistance(a, a); d != 0 {
		t.Fatalf("expected distance 0, got %d", d)
	}
	if d := HammingDistance(a, "traj:up>up"); d != -1 {
		t.Fatalf("cross-kind signatures must be incomparable, got %d", d)
	}
}
