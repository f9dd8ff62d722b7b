package zone

import (
	"math"
	"math/rand"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
)

const (
	// StartRadius is the radius of the zone when a match begins.
	StartRadius = grid.ArenaSize * 0.9
	// FirstTargetRadius is the radius the zone shrinks to first.
	FirstTargetRadius = grid.ArenaSize * 0.65
	// MinRadius floors successive target radii.
	MinRadius = grid.TileSize * 4
	// ShrinkStep is the per-tick radius reduction while shrinking.
	ShrinkStep = 0.15
	// CenterStep is the per-tick, per-axis centre movement while shrinking.
	CenterStep = 0.3
	// ArrivalTolerance is how close the radius must get to its target before
	// the zone pauses.
	ArrivalTolerance = 1.0
	// FirstPauseTicks is the dwell after the first shrink.
	FirstPauseTicks = 3000
	// PauseTicks is the dwell after every later shrink.
	PauseTicks = 2400
	// ShrinkFactor scales the previous target to obtain the next one.
	ShrinkFactor = 0.75
	// CenterOffsetRatio bounds the random centre shift relative to the new
	// target radius.
	CenterOffsetRatio = 0.35
	// DamageInterval is the number of ticks between damage pulses.
	DamageInterval = 30
	// DamagePerPulse is dealt to every combatant outside the radius.
	DamagePerPulse = 1
	// DamageHitFlash is the hit flash applied by a pulse.
	DamageHitFlash = 8
	// RespawnRatio bounds respawn distance from the centre after a zone death.
	RespawnRatio = 0.5
	// RespawnAttempts bounds the search for open ground after a zone death.
	RespawnAttempts = 32
)

// Phase is the zone's current behaviour.
type Phase int

const (
	Shrinking Phase = iota
	Paused
)

func (p Phase) String() string {
	if p == Paused {
		return "paused"
	}
	return "shrinking"
}

// Zone is the circular safe area.
type Zone struct {
	CenterX       float64
	CenterY       float64
	TargetCenterX float64
	TargetCenterY float64
	Radius        float64
	TargetRadius  float64
	PauseTimer    int
	DamageTimer   int
	Phase         Phase
	Cycle         int
}

// New returns the zone at the start of a match.
func New() Zone {
	center := grid.ArenaSize / 2
	return Zone{
		CenterX:       center,
		CenterY:       center,
		TargetCenterX: center,
		TargetCenterY: center,
		Radius:        StartRadius,
		TargetRadius:  FirstTargetRadius,
		PauseTimer:    FirstPauseTicks,
		Phase:         Shrinking,
	}
}

// Transition reports a phase change that happened during Step.
type Transition struct {
	From Phase
	To   Phase
}

// Result is the outcome of one zone tick.
type Result struct {
	Damage     []entity.Damage
	Transition *Transition
}

// Step advances the zone by one tick and returns damage for combatants caught
// outside the radius. It never mutates combatants.
func (z *Zone) Step(r *rand.Rand, combatants []*entity.Combatant) Result {
	var result Result
	before := z.Phase

	if z.Radius <= z.TargetRadius+ArrivalTolerance {
		z.Phase = Paused
		z.PauseTimer--
		if z.PauseTimer <= 0 {
			z.retarget(r)
		}
	} else {
		z.Phase = Shrinking
		z.Radius = math.Max(z.TargetRadius, z.Radius-ShrinkStep)
		z.CenterX = approach(z.CenterX, z.TargetCenterX, CenterStep)
		z.CenterY = approach(z.CenterY, z.TargetCenterY, CenterStep)
	}

	if z.Phase != before {
		result.Transition = &Transition{From: before, To: z.Phase}
	}

	z.DamageTimer++
	if z.DamageTimer >= DamageInterval {
		z.DamageTimer = 0
		for _, c := range combatants {
			if !c.Alive() || !z.Outside(c) {
				continue
			}
			result.Damage = append(result.Damage, entity.Damage{
				TargetID: c.ID,
				Amount:   DamagePerPulse,
				HitFlash: DamageHitFlash,
				Killer:   scoring.KillerZone,
			})
		}
	}
	return result
}

func (z *Zone) retarget(r *rand.Rand) {
	z.TargetRadius = math.Max(MinRadius, z.TargetRadius*ShrinkFactor)
	z.PauseTimer = PauseTicks
	z.Phase = Shrinking
	z.Cycle++

	x, y := rng.PointInDisc(r, z.CenterX, z.CenterY, z.TargetRadius*CenterOffsetRatio)
	margin := z.TargetRadius
	z.TargetCenterX = grid.Clamp(x, margin, grid.ArenaSize-margin)
	z.TargetCenterY = grid.Clamp(y, margin, grid.ArenaSize-margin)
}

func approach(current, target, step float64) float64 {
	diff := target - current
	if math.Abs(diff) <= step {
		return target
	}
	if diff > 0 {
		return current + step
	}
	return current - step
}

// DistanceFromCenter returns how far c's centre is from the zone centre.
func (z Zone) DistanceFromCenter(c *entity.Combatant) float64 {
	return c.CenterDistance(z.CenterX, z.CenterY)
}

// Outside reports whether c's centre lies beyond the radius.
func (z Zone) Outside(c *entity.Combatant) bool {
	return z.DistanceFromCenter(c) > z.Radius
}

// RespawnPoint picks a top-left position on open ground whose centre lies
// within half the radius of the zone centre. ok is false when
// RespawnAttempts draws found no open spot.
func (z Zone) RespawnPoint(g *grid.Grid, r *rand.Rand) (x, y float64, ok bool) {
	for i := 0; i < RespawnAttempts; i++ {
		cx, cy := rng.PointInDisc(r, z.CenterX, z.CenterY, z.Radius*RespawnRatio)
		x, y = grid.ClampToArena(cx-grid.HalfTile, cy-grid.HalfTile)
		if !g.QueryBox(x, y, entity.BodyCollisionSize).Obstructed() {
			return x, y, true
		}
	}
	return 0, 0, false
}
