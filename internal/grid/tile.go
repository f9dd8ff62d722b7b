package grid

import "fmt"

const (
	// TileSize is the edge length of one cell in arena units.
	TileSize = 40.0
	// Size is the number of cells along each edge of the arena.
	Size = 21
	// ArenaSize is the edge length of the playable arena in units.
	ArenaSize = TileSize * Size
	// HalfTile is the offset from a body's top-left corner to its centre.
	HalfTile = TileSize / 2
)

// Kind enumerates tile contents. Values match the wire representation used by
// tileDestroyed messages and level files.
type Kind int

const (
	Empty          Kind = 0
	Brick          Kind = 1
	Steel          Kind = 2
	Bush           Kind = 3
	Water          Kind = 4
	Crate          Kind = 5
	SpawnPoint     Kind = 6
	BasePlayer     Kind = 9
	BasePlayerDead Kind = 10
	BrickCracked   Kind = 11
	BaseEnemy      Kind = 13
	BaseEnemyDead  Kind = 14
)

// Passable reports whether bodies and bullets may occupy a tile of this kind.
func (k Kind) Passable() bool {
	switch k {
	case Empty, Bush, SpawnPoint, Water:
		return true
	default:
		return false
	}
}

// Destructible reports whether a non-piercing bullet changes this kind.
func (k Kind) Destructible() bool {
	return k == Brick || k == BrickCracked || k == Crate
}

// Valid reports whether k is a recognised kind.
func (k Kind) Valid() bool {
	switch k {
	case Empty, Brick, Steel, Bush, Water, Crate, SpawnPoint,
		BasePlayer, BasePlayerDead, BrickCracked, BaseEnemy, BaseEnemyDead:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Brick:
		return "brick"
	case Steel:
		return "steel"
	case Bush:
		return "bush"
	case Water:
		return "water"
	case Crate:
		return "crate"
	case SpawnPoint:
		return "spawn"
	case BasePlayer:
		return "base_player"
	case BasePlayerDead:
		return "base_player_dead"
	case BrickCracked:
		return "brick_cracked"
	case BaseEnemy:
		return "base_enemy"
	case BaseEnemyDead:
		return "base_enemy_dead"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell addresses a tile by row and column.
type Cell struct {
	Row int `json:"r"`
	Col int `json:"c"`
}

// Origin returns the top-left arena coordinate of the cell.
func (c Cell) Origin() (float64, float64) {
	return float64(c.Col) * TileSize, float64(c.Row) * TileSize
}

// SpawnCells lists the fixed respawn candidates in priority order. Ties during
// respawn selection resolve to the earliest entry.
var SpawnCells = []Cell{
	{0, 0}, {0, 10}, {0, 20},
	{5, 0}, {5, 20},
	{10, 0}, {10, 20},
	{15, 0}, {15, 20},
	{20, 0}, {20, 10}, {20, 20},
	{5, 5}, {5, 15},
	{15, 5}, {15, 15},
}
