package hazard

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
	"github.com/ShangTsung3/battle-city-pro/internal/zone"
)

const (
	// AirstrikeSpawnRatio bounds airstrike placement relative to the zone radius.
	AirstrikeSpawnRatio = 0.7
	// SupplySpawnRatio bounds supply drop placement relative to the zone radius.
	SupplySpawnRatio = 0.6
	// InnerDamage is dealt within half the blast radius.
	InnerDamage = 3
	// OuterDamage is dealt in the outer half of the blast radius.
	OuterDamage = 2
	// BlastHitFlash is the hit flash applied by a detonation.
	BlastHitFlash = 12
)

// Interval is a random delay range in ticks.
type Interval struct {
	Min  float64
	Span float64
}

// Draw returns a delay in [Min, Min+Span).
func (i Interval) Draw(r *rand.Rand) int {
	return int(i.Min + rng.Float(r)*i.Span)
}

// Timing configures when hazards appear.
type Timing struct {
	FirstAirstrike Interval
	Airstrike      Interval
	FirstSupply    Interval
	Supply         Interval
}

// DefaultTiming returns the standard hazard cadence.
func DefaultTiming() Timing {
	return Timing{
		FirstAirstrike: Interval{Min: 600, Span: 300},
		Airstrike:      Interval{Min: 600, Span: 600},
		FirstSupply:    Interval{Min: 360, Span: 240},
		Supply:         Interval{Min: 480, Span: 300},
	}
}

// Scheduler owns pending airstrikes and supply drops.
type Scheduler struct {
	Timing        Timing
	NextAirstrike int
	NextSupply    int
	Airstrikes    []*entity.Airstrike
	Drops         []*entity.SupplyDrop
}

// NewScheduler arms both hazards with their opening delays.
func NewScheduler(r *rand.Rand, timing Timing) Scheduler {
	return Scheduler{
		Timing:        timing,
		NextAirstrike: timing.FirstAirstrike.Draw(r),
		NextSupply:    timing.FirstSupply.Draw(r),
	}
}

// Result is the outcome of one scheduler tick.
type Result struct {
	Damage    []entity.Damage
	Items     []*entity.Item
	Armed     []*entity.Airstrike
	Detonated []*entity.Airstrike
	Dropped   []*entity.SupplyDrop
	Landed    []*entity.SupplyDrop
}

// Step advances both hazards by one tick. Spawns are placed relative to the
// current zone; combatants are only read.
func (s *Scheduler) Step(r *rand.Rand, z zone.Zone, combatants []*entity.Combatant) Result {
	var result Result

	s.NextAirstrike--
	if s.NextAirstrike <= 0 {
		x, y := rng.PointInDisc(r, z.CenterX, z.CenterY, z.Radius*AirstrikeSpawnRatio)
		strike := &entity.Airstrike{
			ID:       uuid.NewString(),
			X:        x,
			Y:        y,
			Radius:   entity.AirstrikeRadius,
			Timer:    entity.AirstrikeWarningTicks,
			MaxTimer: entity.AirstrikeWarningTicks,
		}
		s.Airstrikes = append(s.Airstrikes, strike)
		s.NextAirstrike = s.Timing.Airstrike.Draw(r)
		result.Armed = append(result.Armed, strike)
	}

	pending := s.Airstrikes[:0]
	for _, strike := range s.Airstrikes {
		strike.Timer--
		if strike.Timer > 0 {
			pending = append(pending, strike)
			continue
		}
		result.Damage = append(result.Damage, blast(strike, combatants)...)
		result.Detonated = append(result.Detonated, strike)
	}
	s.Airstrikes = pending

	s.NextSupply--
	if s.NextSupply <= 0 {
		x, y := rng.PointInDisc(r, z.CenterX, z.CenterY, z.Radius*SupplySpawnRatio)
		drop := &entity.SupplyDrop{
			ID:      uuid.NewString(),
			X:       x,
			Y:       y,
			Timer:   entity.SupplyFallTicks,
			Falling: true,
		}
		s.Drops = append(s.Drops, drop)
		s.NextSupply = s.Timing.Supply.Draw(r)
		result.Dropped = append(result.Dropped, drop)
	}

	falling := s.Drops[:0]
	for _, drop := range s.Drops {
		drop.Timer--
		if drop.Timer > 0 {
			falling = append(falling, drop)
			continue
		}
		drop.Falling = false
		result.Items = append(result.Items, &entity.Item{
			ID:   uuid.NewString(),
			X:    drop.X - grid.HalfTile,
			Y:    drop.Y - grid.HalfTile,
			Kind: entity.RandomItemKind(r),
			Life: entity.SupplyItemLife,
		})
		result.Landed = append(result.Landed, drop)
	}
	s.Drops = falling

	return result
}

func blast(strike *entity.Airstrike, combatants []*entity.Combatant) []entity.Damage {
	var damage []entity.Damage
	for _, c := range combatants {
		if !c.Alive() || c.Shielded() {
			continue
		}
		dist := c.CenterDistance(strike.X, strike.Y)
		if dist >= strike.Radius {
			continue
		}
		amount := OuterDamage
		if dist < strike.Radius*0.5 {
			amount = InnerDamage
		}
		damage = append(damage, entity.Damage{
			TargetID: c.ID,
			Amount:   amount,
			HitFlash: BlastHitFlash,
			Killer:   scoring.KillerAirstrike,
		})
	}
	return damage
}
