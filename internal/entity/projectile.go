package entity

import (
	"math"

	"github.com/ShangTsung3/battle-city-pro/internal/grid"
)

const (
	// BulletCollisionSize is the edge of the box tested against the grid.
	BulletCollisionSize = 4.0
	// BulletHitRadius is the half-extent of the square hit test against bodies.
	BulletHitRadius = grid.TileSize * 0.4
	// MuzzleOffset is the distance from the owner's centre to a new bullet.
	MuzzleOffset = grid.TileSize * 0.4
)

// Bullet is a projectile in flight.
type Bullet struct {
	ID       string
	OwnerID  string
	X        float64
	Y        float64
	Angle    float64
	Speed    float64
	Piercing bool
}

// BulletSpeed returns the per-tick speed granted by a bullet level.
func BulletSpeed(level int) float64 {
	return 2 + float64(level)*0.5
}

// FireCooldown returns the milliseconds between shots at a bullet level.
func FireCooldown(level int) float64 {
	return 400 - float64(level-1)*80
}

// Advance moves the bullet one tick along its heading.
func (b *Bullet) Advance() {
	b.X += math.Cos(b.Angle) * b.Speed
	b.Y += math.Sin(b.Angle) * b.Speed
}

// OutOfArena reports whether the bullet has left the arena.
func (b *Bullet) OutOfArena() bool {
	return b.X < 0 || b.X > grid.ArenaSize || b.Y < 0 || b.Y > grid.ArenaSize
}

// Hits reports whether the bullet is inside the combatant's hit square.
func (b *Bullet) Hits(c *Combatant) bool {
	cx, cy := c.Center()
	return grid.WithinSquare(cx, cy, b.X, b.Y, BulletHitRadius)
}
