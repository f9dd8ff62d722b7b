package entity

import (
	"math"

	"github.com/ShangTsung3/battle-city-pro/internal/grid"
)

const (
	// MaxCombatants caps the roster of a match.
	MaxCombatants = 16
	// StartingLives is the number of lives every combatant begins with.
	StartingLives = 3
	// RespawnShieldTicks is the shield granted after every life loss.
	RespawnShieldTicks = 240
	// SoloHumanShieldTicks is the opening shield of the solo human.
	SoloHumanShieldTicks = 180
	// MaxBulletLevel caps star upgrades.
	MaxBulletLevel = 4
	// MaxSpeedLevel caps speed upgrades.
	MaxSpeedLevel = 2
	// BodyCollisionSize is the edge of the box tested against the grid when
	// a combatant moves.
	BodyCollisionSize = grid.TileSize * 0.85
)

// Control identifies who drives a combatant.
type Control int

const (
	// ControlHuman is the local player.
	ControlHuman Control = iota
	// ControlAgent is an autonomous agent simulated locally.
	ControlAgent
	// ControlRemote is a player mirrored from the network.
	ControlRemote
)

func (c Control) String() string {
	switch c {
	case ControlHuman:
		return "human"
	case ControlAgent:
		return "agent"
	case ControlRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// AgentMode is the tagged state of an autonomous agent.
type AgentMode int

const (
	ModePatrolling AgentMode = iota
	ModeHunting
	ModeAvoidingObstacle
	ModeAvoidingZone
)

func (m AgentMode) String() string {
	switch m {
	case ModePatrolling:
		return "patrolling"
	case ModeHunting:
		return "hunting"
	case ModeAvoidingObstacle:
		return "avoiding_obstacle"
	case ModeAvoidingZone:
		return "avoiding_zone"
	default:
		return "unknown"
	}
}

// Blackboard stores per-agent steering memory.
type Blackboard struct {
	Mode        AgentMode
	Timer       float64
	TargetAngle float64
	TargetID    string
}

// Combatant is a tank. Position is the top-left of its tile-sized body.
type Combatant struct {
	ID        string
	Name      string
	Color     string
	Preset    string
	Control   Control
	X         float64
	Y         float64
	Angle     float64
	Health    int
	MaxHealth int
	Lives     int

	ShieldTime   int
	PiercingTime int
	BulletLevel  int
	SpeedLevel   int
	HitFlash     int

	Eliminated   bool
	Connected    bool
	NextFireTick uint64

	AI Blackboard
}

// Center returns the centre of the combatant's body.
func (c *Combatant) Center() (float64, float64) {
	return c.X + grid.HalfTile, c.Y + grid.HalfTile
}

// Alive reports whether the combatant still participates in the match.
func (c *Combatant) Alive() bool {
	return c != nil && !c.Eliminated
}

// Shielded reports whether incoming bullets and airstrikes are absorbed.
func (c *Combatant) Shielded() bool {
	return c.ShieldTime > 0
}

// Human reports whether the combatant is the local player.
func (c *Combatant) Human() bool {
	return c != nil && c.Control == ControlHuman
}

// DistanceTo returns the distance between the centres of two combatants.
func (c *Combatant) DistanceTo(other *Combatant) float64 {
	return math.Hypot(other.X-c.X, other.Y-c.Y)
}

// CenterDistance returns the distance from the combatant's centre to (x, y).
func (c *Combatant) CenterDistance(x, y float64) float64 {
	cx, cy := c.Center()
	return math.Hypot(cx-x, cy-y)
}

// TickBuffs counts down the shield and piercing timers.
func (c *Combatant) TickBuffs() {
	if c.ShieldTime > 0 {
		c.ShieldTime--
	}
	if c.PiercingTime > 0 {
		c.PiercingTime--
	}
}

// Restore returns the combatant to full health after a lost life and strips
// upgrades.
func (c *Combatant) Restore() {
	c.Health = c.MaxHealth
	c.ShieldTime = RespawnShieldTicks
	c.BulletLevel = 1
	c.SpeedLevel = 1
	c.PiercingTime = 0
}

// PlaceAt moves the combatant's top-left corner to (x, y).
func (c *Combatant) PlaceAt(x, y float64) {
	c.X = x
	c.Y = y
}
