package grid

import (
	"errors"
	"fmt"
)

// ErrDimensions is returned when a layout does not match the configured size.
var ErrDimensions = errors.New("grid: layout dimensions mismatch")

// Grid is the destructible terrain of a match. Its dimensions never change
// after construction.
type Grid struct {
	size  int
	cells []Kind
}

// New returns an empty square grid with size cells per edge.
func New(size int) *Grid {
	if size < 1 {
		size = 1
	}
	return &Grid{size: size, cells: make([]Kind, size*size)}
}

// FromMatrix builds a grid from row-major tile values. The matrix must be
// square with size rows.
func FromMatrix(rows [][]int, size int) (*Grid, error) {
	if len(rows) != size {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrDimensions, size, len(rows))
	}
	g := New(size)
	for r, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensions, r, len(row), size)
		}
		for c, value := range row {
			g.cells[r*size+c] = Kind(value)
		}
	}
	return g, nil
}

// Size reports the number of cells per edge.
func (g *Grid) Size() int {
	if g == nil {
		return 0
	}
	return g.size
}

// InBounds reports whether the cell lies inside the grid.
func (g *Grid) InBounds(r, c int) bool {
	return g != nil && r >= 0 && c >= 0 && r < g.size && c < g.size
}

// At returns the tile at (r, c). Out-of-bounds lookups report Steel and false
// so callers treating the result as terrain see an impassable cell.
func (g *Grid) At(r, c int) (Kind, bool) {
	if !g.InBounds(r, c) {
		return Steel, false
	}
	return g.cells[r*g.size+c], true
}

// Set overwrites the tile at (r, c) without side effects. It reports false for
// out-of-bounds cells.
func (g *Grid) Set(r, c int, kind Kind) bool {
	if !g.InBounds(r, c) {
		return false
	}
	g.cells[r*g.size+c] = kind
	return true
}

// DestroyTile applies a bullet impact to (r, c) and returns the resulting kind
// and whether the tile changed. Brick cracks, cracked brick and crates clear,
// and steel clears only for piercing impacts.
func (g *Grid) DestroyTile(r, c int, piercing bool) (Kind, bool) {
	current, ok := g.At(r, c)
	if !ok {
		return current, false
	}
	if !current.Destructible() && !(piercing && current == Steel) {
		return current, false
	}
	next := Empty
	if current == Brick {
		next = BrickCracked
	}
	g.cells[r*g.size+c] = next
	return next, true
}

// Matrix returns the grid as row-major tile values.
func (g *Grid) Matrix() [][]int {
	if g == nil {
		return nil
	}
	rows := make([][]int, g.size)
	for r := range rows {
		row := make([]int, g.size)
		for c := range row {
			row[c] = int(g.cells[r*g.size+c])
		}
		rows[r] = row
	}
	return rows
}

// Count returns the number of cells holding kind.
func (g *Grid) Count(kind Kind) int {
	if g == nil {
		return 0
	}
	total := 0
	for _, k := range g.cells {
		if k == kind {
			total++
		}
	}
	return total
}
