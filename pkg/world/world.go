package world

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// Action is one of the fixed movement commands the agent may issue.
type Action string

const (
	ActionUp    Action = "up"
	ActionDown  Action = "down"
	ActionLeft  Action = "left"
	ActionRight Action = "right"
	ActionStay  Action = "stay"
)

// ErrInvalidAction is returned by Step for any action outside the
// enumerated set. The call fails; the world state is unchanged.
var ErrInvalidAction = errors.New("invalid action")

// Actions lists every valid action in a fixed order.
func Actions() []Action {
	return []Action{ActionUp, ActionDown, ActionLeft, ActionRight, ActionStay}
}

// ParseAction converts a raw string into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionUp, ActionDown, ActionLeft, ActionRight, ActionStay:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Symbol is one cell of the rendered grid. The alphabet is closed:
// anything else is a bug, never data.
type Symbol byte

const (
	SymbolEmpty  Symbol = '.'
	SymbolAgent  Symbol = 'A'
	SymbolObject Symbol = 'O'
)

// MarshalJSON renders the symbol as a one-character string so grid
// snapshots stay human-readable in state dumps (a bare byte slice
// would base64-encode).
func (s Symbol) MarshalJSON() ([]byte, error) {
	return []byte{'"', byte(s), '"'}, nil
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	if len(data) != 3 || data[0] != '"' || data[2] != '"' {
		return fmt.Errorf("invalid grid symbol %s", data)
	}
	switch Symbol(data[1]) {
	case SymbolEmpty, SymbolAgent, SymbolObject:
		*s = Symbol(data[1])
		return nil
	default:
		return fmt.Errorf("unknown grid symbol %q", data[1])
	}
}

// Coord is a (row, col) grid position.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Shape is a 3x3 visual pattern carried by an object, rendered with
// '#' for filled cells and '.' for empty ones. The zero value means
// the object has no shape.
type Shape [3]string

// Empty reports whether the shape is unset.
func (s Shape) Empty() bool {
	return s == Shape{}
}

// Letter-like patterns used in grounding scenarios.
var (
	ShapeA = Shape{".#.", "###", "#.#"}
	ShapeB = Shape{"##.", "###", "##."}
)

// Object is a thing placed in the grid.
type Object struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Position Coord  `json:"position"`
	Shape    Shape  `json:"shape,omitempty"`
}

// VisibleObject is an object as seen from the agent's position.
type VisibleObject struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	AbsPosition Coord  `json:"abs_position"`
	RelPosition Coord  `json:"rel_position"`
	Shape       Shape  `json:"shape,omitempty"`
}

// Observation is what the agent perceives at one time step. It is a
// value snapshot: mutating it never affects the world.
type Observation struct {
	AgentPosition  Coord           `json:"agent_position"`
	Orientation    Action          `json:"orientation"`
	VisibleObjects []VisibleObject `json:"visible_objects"`
	Grid           [][]Symbol      `json:"grid"`
}

// GridWorld is a deterministic 2D simulated environment. All
// randomness is confined to Reset: given the same seed and the same
// action sequence, two worlds produce identical observation sequences.
type GridWorld struct {
	rows       int
	cols       int
	numObjects int

	agentPos    Coord
	orientation Action
	objects     []Object
}

// New creates a world with the given dimensions and object count.
// Reset must be called before the first Step.
func New(rows, cols, numObjects int) *GridWorld {
	return &GridWorld{
		rows:        rows,
		cols:        cols,
		numObjects:  numObjects,
		orientation: ActionUp,
	}
}

func (w *GridWorld) Rows() int { return w.rows }
func (w *GridWorld) Cols() int { return w.cols }

// Reset re-randomizes agent and object placement from the seed and
// returns the initial observation. Identical seeds produce identical
// layouts; no randomness survives past this call.
func (w *GridWorld) Reset(seed int64) Observation {
	rng := rand.New(rand.NewSource(seed))

	w.orientation = ActionUp
	w.agentPos = Coord{Row: rng.Intn(w.rows), Col: rng.Intn(w.cols)}

	occupied := map[Coord]bool{w.agentPos: true}
	w.objects = make([]Object, 0, w.numObjects)
	for i := 0; i < w.numObjects; i++ {
		pos := sampleEmptyCell(rng, w.rows, w.cols, occupied)
		occupied[pos] = true
		w.objects = append(w.objects, Object{
			ID:       fmt.Sprintf("obj-%d", i+1),
			Kind:     "block",
			Position: pos,
		})
	}

	return w.Observe()
}

// Step applies one action and returns the resulting observation.
// Moving into a boundary or an occupied cell is not an error: the
// position simply does not change.
func (w *GridWorld) Step(action Action) (Observation, error) {
	switch action {
	case ActionUp, ActionDown, ActionLeft, ActionRight:
		w.moveAgent(action)
	case ActionStay:
		// no movement, orientation unchanged
	default:
		return Observation{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return w.Observe(), nil
}

// Observe returns the agent's current view of the world.
func (w *GridWorld) Observe() Observation {
	visible := make([]VisibleObject, 0, len(w.objects))
	for _, obj := range w.objects {
		visible = append(visible, VisibleObject{
			ID:          obj.ID,
			Kind:        obj.Kind,
			AbsPosition: obj.Position,
			RelPosition: Coord{
				Row: obj.Position.Row - w.agentPos.Row,
				Col: obj.Position.Col - w.agentPos.Col,
			},
			Shape: obj.Shape,
		})
	}

	return Observation{
		AgentPosition:  w.agentPos,
		Orientation:    w.orientation,
		VisibleObjects: visible,
		Grid:           w.renderGrid(),
	}
}

// PlaceObjects replaces the current object set. Used by teaching
// scenarios and experiments that need exact scenes.
func (w *GridWorld) PlaceObjects(objects ...Object) {
	w.objects = append([]Object(nil), objects...)
}

// PlaceAgent forces the agent to a position, clamped into the grid.
func (w *GridWorld) PlaceAgent(pos Coord) {
	w.agentPos = clamp(pos, w.rows, w.cols)
}

func (w *GridWorld) moveAgent(direction Action) {
	next := w.agentPos
	switch direction {
	case ActionUp:
		next.Row--
	case ActionDown:
		next.Row++
	case ActionLeft:
		next.Col--
	case ActionRight:
		next.Col++
	}
	next = clamp(next, w.rows, w.cols)

	// Occupied cells block movement; the step becomes a no-op.
	for _, obj := range w.objects {
		if obj.Position == next {
			next = w.agentPos
			break
		}
	}

	w.agentPos = next
	w.orientation = direction
}

func (w *GridWorld) renderGrid() [][]Symbol {
	grid := make([][]Symbol, w.rows)
	for r := range grid {
		grid[r] = make([]Symbol, w.cols)
		for c := range grid[r] {
			grid[r][c] = SymbolEmpty
		}
	}
	for _, obj := range w.objects {
		grid[obj.Position.Row][obj.Position.Col] = SymbolObject
	}
	grid[w.agentPos.Row][w.agentPos.Col] = SymbolAgent
	return grid
}

// GridString renders the grid as human-readable text, one row per line.
func (w *GridWorld) GridString() string {
	grid := w.renderGrid()
	var b strings.Builder
	for r, row := range grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, sym := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(byte(sym))
		}
	}
	return b.String()
}

func clamp(pos Coord, rows, cols int) Coord {
	if pos.Row < 0 {
		pos.Row = 0
	}
	if pos.Row > rows-1 {
		pos.Row = rows - 1
	}
	if pos.Col < 0 {
		pos.Col = 0
	}
	if pos.Col > cols-1 {
		pos.Col = cols - 1
	}
	return pos
}

func sampleEmptyCell(rng *rand.Rand, rows, cols int, occupied map[Coord]bool) Coord {
	for {
		pos := Coord{Row: rng.Intn(rows), Col: rng.Intn(cols)}
		if !occupied[pos] {
			return pos
		}
	}
}
