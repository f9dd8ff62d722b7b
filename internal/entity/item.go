package entity

import (
	"math"
	"math/rand"

	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
)

const (
	// CrateItemLife is the lifetime of items dropped by destroyed crates.
	CrateItemLife = 900
	// SupplyItemLife is the lifetime of items delivered by supply drops.
	SupplyItemLife = 1800
	// PickupRadius is the centre distance below which an item is collected.
	PickupRadius = grid.TileSize * 0.6
	// ArmorShieldTicks is the shield granted by an armor pickup.
	ArmorShieldTicks = 600
	// PiercingTicks is the piercing duration granted by a piercing pickup.
	PiercingTicks = 900
	// PickupScore is awarded to the human for every collected item.
	PickupScore = 100
)

// ItemKind identifies a pickup's effect.
type ItemKind string

const (
	ItemStar     ItemKind = "star"
	ItemArmor    ItemKind = "armor"
	ItemSpeed    ItemKind = "speed"
	ItemPiercing ItemKind = "piercing"
)

// ItemKinds lists every pickup in the order random selection draws from.
var ItemKinds = []ItemKind{ItemStar, ItemArmor, ItemSpeed, ItemPiercing}

// RandomItemKind draws a pickup kind uniformly.
func RandomItemKind(r *rand.Rand) ItemKind {
	return ItemKinds[rng.Intn(r, len(ItemKinds))]
}

// Item is a pickup lying in the arena. Position is the top-left of its
// tile-sized footprint.
type Item struct {
	ID   string
	X    float64
	Y    float64
	Kind ItemKind
	Life int
}

// InReach reports whether c is close enough to collect the item.
func (it *Item) InReach(c *Combatant) bool {
	cx, cy := c.Center()
	return math.Hypot(cx-(it.X+grid.HalfTile), cy-(it.Y+grid.HalfTile)) < PickupRadius
}

// ApplyTo grants the item's effect to c.
func (it *Item) ApplyTo(c *Combatant) {
	switch it.Kind {
	case ItemStar:
		c.BulletLevel++
		if c.BulletLevel > MaxBulletLevel {
			c.BulletLevel = MaxBulletLevel
		}
	case ItemArmor:
		c.ShieldTime = ArmorShieldTicks
	case ItemSpeed:
		c.SpeedLevel = MaxSpeedLevel
	case ItemPiercing:
		c.PiercingTime = PiercingTicks
	}
}
