package grid

import (
	"fmt"
	"math/rand"
	"strings"
)

var glyphKinds = map[rune]Kind{
	'.': Empty,
	'B': Brick,
	'b': BrickCracked,
	'S': Steel,
	'*': Bush,
	'~': Water,
	'C': Crate,
	'P': SpawnPoint,
	'H': BasePlayer,
	'E': BaseEnemy,
}

// Parse reads a text layout with one row per line. Blank lines and lines
// starting with '#' are ignored.
func Parse(text string, size int) (*Grid, error) {
	rows := make([]string, 0, size)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) != size {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrDimensions, size, len(rows))
	}
	g := New(size)
	for r, row := range rows {
		glyphs := []rune(row)
		if len(glyphs) != size {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensions, r, len(glyphs), size)
		}
		for c, glyph := range glyphs {
			kind, ok := glyphKinds[glyph]
			if !ok {
				return nil, fmt.Errorf("grid: unknown glyph %q at row %d column %d", glyph, r, c)
			}
			g.cells[r*size+c] = kind
		}
	}
	return g, nil
}

// String renders the grid in the Parse format.
func (g *Grid) String() string {
	if g == nil {
		return ""
	}
	glyphs := make(map[Kind]rune, len(glyphKinds))
	for glyph, kind := range glyphKinds {
		glyphs[kind] = glyph
	}
	var b strings.Builder
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			glyph, ok := glyphs[g.cells[r*g.size+c]]
			if !ok {
				glyph = '?'
			}
			b.WriteRune(glyph)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// GenerateConfig tunes the procedural layout.
type GenerateConfig struct {
	BrickClusters int
	SteelBlocks   int
	WaterPools    int
	BushPatches   int
	Crates        int
}

// DefaultGenerateConfig returns the densities used for standard matches.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		BrickClusters: 18,
		SteelBlocks:   6,
		WaterPools:    3,
		BushPatches:   6,
		Crates:        8,
	}
}

// Generate builds a left-right mirrored layout with every spawn cell and its
// neighbourhood cleared so tanks can turn on arrival.
func Generate(rng *rand.Rand, cfg GenerateConfig) *Grid {
	g := New(Size)
	half := (Size + 1) / 2

	place := func(kind Kind, count, maxExtent int) {
		if rng == nil {
			return
		}
		for i := 0; i < count; i++ {
			r := rng.Intn(Size)
			c := rng.Intn(half)
			w := 1 + rng.Intn(maxExtent)
			h := 1 + rng.Intn(maxExtent)
			for dr := 0; dr < h; dr++ {
				for dc := 0; dc < w; dc++ {
					g.setMirrored(r+dr, c+dc, kind)
				}
			}
		}
	}

	place(Brick, cfg.BrickClusters, 3)
	place(Water, cfg.WaterPools, 2)
	place(Bush, cfg.BushPatches, 2)
	place(Steel, cfg.SteelBlocks, 1)
	place(Crate, cfg.Crates, 1)

	for _, spawn := range SpawnCells {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				g.Set(spawn.Row+dr, spawn.Col+dc, Empty)
			}
		}
	}
	for _, spawn := range SpawnCells {
		g.Set(spawn.Row, spawn.Col, SpawnPoint)
	}
	return g
}

func (g *Grid) setMirrored(r, c int, kind Kind) {
	g.Set(r, c, kind)
	g.Set(r, g.size-1-c, kind)
}
