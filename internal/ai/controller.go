// Package ai steers autonomous tanks. Each decision is a pure function of the
// agent, its surroundings and a random stream; Step composes them in order.
package ai

import (
	"math"
	"math/rand"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/zone"
)

const (
	// DetectRange is the distance within which an enemy is hunted.
	DetectRange = grid.TileSize * 5
	HuntSpeed   = 0.18
	PatrolSpeed = 0.1
	// TurnRate is the largest heading change per tick, in radians.
	TurnRate = 0.03
	// FireArc is the heading error below which an agent may shoot.
	FireArc          = 0.2
	HuntFireChance   = 0.02
	PatrolFireChance = 0.005
	// ZoneEdgeRatio is the fraction of the zone radius beyond which agents
	// head back toward the centre.
	ZoneEdgeRatio = 0.8

	huntTimerMin     = 10
	huntTimerSpan    = 20
	patrolTimerMin   = 60
	patrolTimerSpan  = 120
	obstacleTimer    = 15
	zoneTimer        = 30
	obstacleTurnBase = math.Pi / 2
)

// AcquireTarget returns the nearest other non-eliminated, unshielded
// combatant when it lies within DetectRange.
func AcquireTarget(self *entity.Combatant, combatants []*entity.Combatant) (*entity.Combatant, bool) {
	var nearest *entity.Combatant
	nearestDist := math.Inf(1)
	for _, other := range combatants {
		if other == self || other.ID == self.ID || !other.Alive() || other.Shielded() {
			continue
		}
		if d := self.DistanceTo(other); d < nearestDist {
			nearestDist = d
			nearest = other
		}
	}
	if nearest == nil || nearestDist >= DetectRange {
		return nil, false
	}
	return nearest, true
}

// Steer counts the blackboard timer down and picks a desired heading: toward
// the target when one is acquired, otherwise a fresh random heading each time
// the patrol timer runs out.
func Steer(bb entity.Blackboard, self, target *entity.Combatant, r *rand.Rand) entity.Blackboard {
	bb.Timer--
	if target != nil {
		bb.TargetAngle = math.Atan2(target.Y-self.Y, target.X-self.X)
		bb.Timer = rng.Between(r, huntTimerMin, huntTimerMin+huntTimerSpan)
		bb.Mode = entity.ModeHunting
		bb.TargetID = target.ID
		return bb
	}
	bb.TargetID = ""
	if bb.Timer <= 0 {
		bb.TargetAngle = rng.Angle(r)
		bb.Timer = rng.Between(r, patrolTimerMin, patrolTimerMin+patrolTimerSpan)
		bb.Mode = entity.ModePatrolling
	} else if bb.Mode == entity.ModeHunting {
		bb.Mode = entity.ModePatrolling
	}
	return bb
}

// Contain overrides the desired heading with one toward the zone centre when
// the agent strays past ZoneEdgeRatio of the radius.
func Contain(bb entity.Blackboard, self *entity.Combatant, z zone.Zone) entity.Blackboard {
	if z.DistanceFromCenter(self) <= z.Radius*ZoneEdgeRatio {
		return bb
	}
	cx, cy := self.Center()
	bb.TargetAngle = math.Atan2(z.CenterY-cy, z.CenterX-cx)
	bb.Timer = zoneTimer
	bb.Mode = entity.ModeAvoidingZone
	return bb
}

// TurnToward rotates angle toward desired by at most TurnRate. It returns the
// new angle and the signed heading error measured before turning.
func TurnToward(angle, desired float64) (float64, float64) {
	diff := math.Remainder(desired-angle, 2*math.Pi)
	step := math.Min(math.Abs(diff), TurnRate)
	if diff < 0 {
		step = -step
	}
	return angle + step, diff
}

// ShouldFire rolls the per-tick fire chance once the heading has settled.
func ShouldFire(headingError float64, hunting bool, r *rand.Rand) bool {
	if math.Abs(headingError) >= FireArc {
		return false
	}
	chance := PatrolFireChance
	if hunting {
		chance = HuntFireChance
	}
	return rng.Float(r) < chance
}

// Move advances the agent along its heading. A blocked move leaves the
// position unchanged and turns the desired heading by a random obtuse angle.
func Move(self *entity.Combatant, g *grid.Grid, speed float64, r *rand.Rand) bool {
	dx := math.Cos(self.Angle) * speed
	dy := math.Sin(self.Angle) * speed
	moved := !g.QueryBox(self.X+dx, self.Y+dy, entity.BodyCollisionSize).Obstructed()
	if moved {
		self.X += dx
		self.Y += dy
	} else {
		self.AI.TargetAngle += obstacleTurnBase + rng.Float(r)*math.Pi
		self.AI.Timer = obstacleTimer
		self.AI.Mode = entity.ModeAvoidingObstacle
	}
	self.X, self.Y = grid.ClampToArena(self.X, self.Y)
	return moved
}

// Decision is what the engine must carry out after an agent step.
type Decision struct {
	Fire   bool
	Target *entity.Combatant
	Moved  bool
}

// Step runs one controller tick for an agent: acquire, steer, contain, turn,
// move and decide whether to fire. Buff timers and item pickup belong to the
// caller.
func Step(self *entity.Combatant, combatants []*entity.Combatant, g *grid.Grid, z zone.Zone, r *rand.Rand) Decision {
	if !self.Alive() || self.Control != entity.ControlAgent {
		return Decision{}
	}
	target, hunting := AcquireTarget(self, combatants)
	self.AI = Steer(self.AI, self, target, r)
	self.AI = Contain(self.AI, self, z)

	var headingError float64
	self.Angle, headingError = TurnToward(self.Angle, self.AI.TargetAngle)

	speed := PatrolSpeed
	if hunting {
		speed = HuntSpeed
	}
	moved := Move(self, g, speed, r)

	return Decision{
		Fire:   ShouldFire(headingError, hunting, r),
		Target: target,
		Moved:  moved,
	}
}
