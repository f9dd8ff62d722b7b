package grid

import "math"

// collisionMargin shrinks queried boxes inward so bodies flush against a wall
// do not snag on the neighbouring cell.
var collisionMargin = math.Floor(TileSize * 0.1)

// Outcome classifies the result of a box query.
type Outcome int

const (
	// Open means every covered cell is in bounds and passable.
	Open Outcome = iota
	// Blocked means a covered cell lies outside the grid.
	Blocked
	// TileHit means a covered cell holds a non-passable kind.
	TileHit
)

func (o Outcome) String() string {
	switch o {
	case Open:
		return "open"
	case Blocked:
		return "blocked"
	case TileHit:
		return "tile"
	default:
		return "unknown"
	}
}

// Hit describes the first obstruction found by QueryBox.
type Hit struct {
	Outcome Outcome
	Cell    Cell
	Kind    Kind
}

// Obstructed reports whether the query found anything that stops movement.
func (h Hit) Obstructed() bool {
	return h.Outcome != Open
}

// QueryBox tests the axis-aligned square with top-left (x, y) and edge size
// against the grid. Cells are scanned in row-major order and the first
// out-of-bounds or non-passable cell wins.
func (g *Grid) QueryBox(x, y, size float64) Hit {
	c1 := int(math.Floor((x + collisionMargin) / TileSize))
	r1 := int(math.Floor((y + collisionMargin) / TileSize))
	c2 := int(math.Floor((x + size - collisionMargin) / TileSize))
	r2 := int(math.Floor((y + size - collisionMargin) / TileSize))

	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			kind, ok := g.At(r, c)
			if !ok {
				return Hit{Outcome: Blocked, Cell: Cell{Row: r, Col: c}}
			}
			if !kind.Passable() {
				return Hit{Outcome: TileHit, Cell: Cell{Row: r, Col: c}, Kind: kind}
			}
		}
	}
	return Hit{Outcome: Open}
}

// Box is an axis-aligned square given by its top-left corner and edge length.
type Box struct {
	X    float64
	Y    float64
	Size float64
}

// BoxesOverlap reports whether two boxes intersect.
func BoxesOverlap(a, b Box) bool {
	return a.X < b.X+b.Size &&
		a.X+a.Size > b.X &&
		a.Y < b.Y+b.Size &&
		a.Y+a.Size > b.Y
}

// WithinSquare reports whether (px, py) lies strictly within half-extent of
// (cx, cy) on both axes.
func WithinSquare(cx, cy, px, py, halfExtent float64) bool {
	return math.Abs(cx-px) < halfExtent && math.Abs(cy-py) < halfExtent
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampToArena keeps a tile-sized body's top-left corner inside the arena.
func ClampToArena(x, y float64) (float64, float64) {
	return Clamp(x, 0, ArenaSize-TileSize), Clamp(y, 0, ArenaSize-TileSize)
}
