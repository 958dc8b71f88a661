package grounding

import (
	"strings"

	"github.com/dotsetgreg/mindgrid/pkg/world"
)

// Signature prefixes keep the two pattern kinds in disjoint namespaces
// so a trajectory can never fuzzy-match a shape.
const (
	shapePrefix      = "shape:"
	trajectoryPrefix = "traj:"
)

// ShapeSignature canonicalizes a 3x3 shape into a stable string form.
// The pattern is cropped to the bounding box of its filled cells and
// re-anchored at the top-left of the frame, which makes the signature
// invariant to translation inside the frame. Rotation invariance is
// opt-in: when enabled, the smallest encoding of the four rotations is
// used.
func ShapeSignature(shape world.Shape, rotationInvariant bool) string {
	cells := cropShape(shape)
	if rotationInvariant {
		best := encodeCells(cells)
		for i := 0; i < 3; i++ {
			cells = rotateCells(cells)
			if enc := encodeCells(cells); enc < best {
				best = enc
			}
		}
		return shapePrefix + best
	}
	return shapePrefix + encodeCells(cells)
}

// TrajectorySignature canonicalizes a movement path into its relative
// move sequence, which is translation-invariant by construction. Stay
// actions carry no spatial information and are dropped.
func TrajectorySignature(moves []world.Action) string {
	parts := make([]string, 0, len(moves))
	for _, m := range moves {
		if m == world.ActionStay {
			continue
		}
		parts = append(parts, string(m))
	}
	return trajectoryPrefix + strings.Join(parts, ">")
}

// SameKind reports whether two signatures describe the same pattern
// kind and may therefore be compared for similarity.
func SameKind(a, b string) bool {
	return kindOf(a) == kindOf(b) && kindOf(a) != ""
}

func kindOf(sig string) string {
	switch {
	case strings.HasPrefix(sig, shapePrefix):
		return shapePrefix
	case strings.HasPrefix(sig, trajectoryPrefix):
		return trajectoryPrefix
	default:
		return ""
	}
}

// HammingDistance counts differing positions between two signatures of
// the same kind. Signatures of different lengths or kinds are
// incomparable and return -1.
func HammingDistance(a, b string) int {
	if !SameKind(a, b) || len(a) != len(b) {
		return -1
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// cropShape extracts the bounding box of filled cells, re-anchored at
// the top-left of the 3x3 frame. An empty shape yields an empty frame.
func cropShape(shape world.Shape) [][]bool {
	minR, minC := 3, 3
	maxR, maxC := -1, -1
	for r := 0; r < 3; r++ {
		for c := 0; c < len(shape[r]) && c < 3; c++ {
			if shape[r][c] == '#' {
				if r < minR {
					minR = r
				}
				if r > maxR {
					maxR = r
				}
				if c < minC {
					minC = c
				}
				if c > maxC {
					maxC = c
				}
			}
		}
	}

	cells := make([][]bool, 3)
	for r := range cells {
		cells[r] = make([]bool, 3)
	}
	if maxR < 0 {
		return cells
	}
	for r := minR; r <= maxR; r++ {
		for c := minC; c <= maxC; c++ {
			if c < len(shape[r]) && shape[r][c] == '#' {
				cells[r-minR][c-minC] = true
			}
		}
	}
	return cells
}

func rotateCells(cells [][]bool) [][]bool {
	// Rotate the full 3x3 frame clockwise, then re-anchor top-left so
	// the result stays translation-canonical.
	rotated := make([][]bool, 3)
	for r := range rotated {
		rotated[r] = make([]bool, 3)
		for c := range rotated[r] {
			rotated[r][c] = cells[2-c][r]
		}
	}
	return anchorTopLeft(rotated)
}

func anchorTopLeft(cells [][]bool) [][]bool {
	minR, minC := 3, 3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if cells[r][c] {
				if r < minR {
					minR = r
				}
				if c < minC {
					minC = c
				}
			}
		}
	}
	if minR == 3 {
		return cells
	}

	out := make([][]bool, 3)
	for r := range out {
		out[r] = make([]bool, 3)
	}
	for r := minR; r < 3; r++ {
		for c := minC; c < 3; c++ {
			out[r-minR][c-minC] = cells[r][c]
		}
	}
	return out
}

func encodeCells(cells [][]bool) string {
	var b strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			b.WriteByte('/')
		}
		for c := 0; c < 3; c++ {
			if cells[r][c] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}
