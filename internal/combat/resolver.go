package combat

import (
	"context"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
	"github.com/ShangTsung3/battle-city-pro/internal/state"
	"github.com/ShangTsung3/battle-city-pro/logging"
	loggingcombat "github.com/ShangTsung3/battle-city-pro/logging/combat"
	"github.com/ShangTsung3/battle-city-pro/logging/lifecycle"
)

const (
	// BulletHitFlash is the flash applied by a bullet hit.
	BulletHitFlash = 8
	// DefaultTickRate converts cooldowns when none is configured.
	DefaultTickRate = 60
)

// Hooks observe resolver outcomes. Every hook is optional.
type Hooks struct {
	// OnFire runs for every spawned bullet.
	OnFire func(bullet *entity.Bullet, owner *entity.Combatant)
	// OnTileDestroyed runs when a bullet changes a tile. Owner is nil when
	// the shooter is not in the roster.
	OnTileDestroyed func(cell grid.Cell, kind grid.Kind, owner *entity.Combatant)
	// OnLifeLost runs after a combatant loses a life, once it has been
	// respawned or eliminated.
	OnLifeLost func(victim *entity.Combatant)
	// OnScore runs with the points earned by a kill credited to the human.
	OnScore func(points int)
	// OnItemSpawned runs when a crate releases an item.
	OnItemSpawned func(item *entity.Item)
}

// Resolver owns projectile resolution and the shared life-loss path.
type Resolver struct {
	TickRate  int
	RNG       *rand.Rand
	Hooks     Hooks
	Publisher logging.Publisher
}

// NewResolver returns a resolver with the given tick rate and random stream.
func NewResolver(tickRate int, r *rand.Rand, pub logging.Publisher) *Resolver {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Resolver{TickRate: tickRate, RNG: r, Publisher: pub}
}

// CooldownTicks converts the fire cooldown of a bullet level into ticks,
// rounding up so the interval is never shorter than the millisecond value.
func CooldownTicks(level, tickRate int) uint64 {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	ticks := math.Ceil(entity.FireCooldown(level) * float64(tickRate) / 1000)
	if ticks < 1 {
		ticks = 1
	}
	return uint64(ticks)
}

// Fire spawns a bullet from c when its cooldown has elapsed.
func (r *Resolver) Fire(ctx context.Context, s *state.State, c *entity.Combatant) (*entity.Bullet, bool) {
	if r == nil || !c.Alive() || s.Tick < c.NextFireTick {
		return nil, false
	}
	c.NextFireTick = s.Tick + CooldownTicks(c.BulletLevel, r.TickRate)

	cx, cy := c.Center()
	bullet := &entity.Bullet{
		ID:       uuid.NewString(),
		OwnerID:  c.ID,
		X:        cx + math.Cos(c.Angle)*entity.MuzzleOffset,
		Y:        cy + math.Sin(c.Angle)*entity.MuzzleOffset,
		Angle:    c.Angle,
		Speed:    entity.BulletSpeed(c.BulletLevel),
		Piercing: c.PiercingTime > 0,
	}
	s.Bullets = append(s.Bullets, bullet)

	loggingcombat.ShotFired(ctx, r.Publisher, s.Tick, ref(c), loggingcombat.ShotPayload{
		BulletID: bullet.ID,
		Level:    c.BulletLevel,
		Piercing: bullet.Piercing,
		Angle:    bullet.Angle,
	}, nil)
	if r.Hooks.OnFire != nil {
		r.Hooks.OnFire(bullet, c)
	}
	return bullet, true
}

// AdvanceBullets moves every bullet one tick and resolves impacts in order.
func (r *Resolver) AdvanceBullets(ctx context.Context, s *state.State) {
	if len(s.Bullets) == 0 {
		return
	}
	bullets := s.Bullets
	s.Bullets = make([]*entity.Bullet, 0, len(bullets))
	for _, bullet := range bullets {
		if r.stepBullet(ctx, s, bullet) {
			s.Bullets = append(s.Bullets, bullet)
		}
	}
}

// stepBullet reports whether the bullet survives the tick.
func (r *Resolver) stepBullet(ctx context.Context, s *state.State, b *entity.Bullet) bool {
	b.Advance()
	if b.OutOfArena() {
		return false
	}

	half := entity.BulletCollisionSize / 2
	hit := s.Grid.QueryBox(b.X-half, b.Y-half, entity.BulletCollisionSize)
	switch hit.Outcome {
	case grid.Blocked:
		return false
	case grid.TileHit:
		r.impactTile(ctx, s, b, hit)
		return false
	}

	for _, c := range s.Combatants {
		if !c.Alive() || c.ID == b.OwnerID || !b.Hits(c) {
			continue
		}
		owner, _ := s.Combatant(b.OwnerID)
		if c.Shielded() {
			loggingcombat.ShieldAbsorbed(ctx, r.Publisher, s.Tick, ownerRef(owner, b.OwnerID), ref(c), nil)
			return false
		}
		c.Health--
		c.HitFlash = BulletHitFlash
		loggingcombat.Hit(ctx, r.Publisher, s.Tick, ownerRef(owner, b.OwnerID), ref(c), loggingcombat.HitPayload{
			Amount:       1,
			TargetHealth: c.Health,
			Source:       "bullet",
		}, nil)
		if c.Health <= 0 {
			r.loseLife(ctx, s, c, owner, "")
		}
		return false
	}
	return true
}

func (r *Resolver) impactTile(ctx context.Context, s *state.State, b *entity.Bullet, hit grid.Hit) {
	newKind, changed := s.Grid.DestroyTile(hit.Cell.Row, hit.Cell.Col, b.Piercing)
	if !changed {
		return
	}
	owner, _ := s.Combatant(b.OwnerID)

	payload := loggingcombat.TilePayload{
		Row:  hit.Cell.Row,
		Col:  hit.Cell.Col,
		From: hit.Kind.String(),
		To:   newKind.String(),
	}
	if hit.Kind == grid.Crate {
		x, y := hit.Cell.Origin()
		item := &entity.Item{
			ID:   uuid.NewString(),
			X:    x,
			Y:    y,
			Kind: entity.RandomItemKind(r.RNG),
			Life: entity.CrateItemLife,
		}
		s.AddItem(item)
		payload.Reward = string(item.Kind)
		if r.Hooks.OnItemSpawned != nil {
			r.Hooks.OnItemSpawned(item)
		}
	}
	loggingcombat.TileDestroyed(ctx, r.Publisher, s.Tick, ownerRef(owner, b.OwnerID), payload, nil)
	if r.Hooks.OnTileDestroyed != nil {
		r.Hooks.OnTileDestroyed(hit.Cell, newKind, owner)
	}
}

// ApplyDamage routes a damage intent from the zone or a hazard through the
// shared life-loss path. Intents for unknown or eliminated combatants are
// ignored.
func (r *Resolver) ApplyDamage(ctx context.Context, s *state.State, d entity.Damage) {
	c, ok := s.Combatant(d.TargetID)
	if !ok || !c.Alive() || d.Amount <= 0 {
		return
	}
	c.Health -= d.Amount
	c.HitFlash = d.HitFlash
	loggingcombat.Hit(ctx, r.Publisher, s.Tick, logging.EntityRef{ID: d.Killer, Kind: logging.EntityKindHazard}, ref(c), loggingcombat.HitPayload{
		Amount:       d.Amount,
		TargetHealth: c.Health,
		Source:       d.Killer,
	}, nil)
	if c.Health <= 0 {
		r.loseLife(ctx, s, c, nil, d.Killer)
	}
}

// loseLife takes a life from victim. A resolvable shooter is credited through
// the ledger; an environmental killer only reaches the feed; with neither the
// kill is anonymous.
func (r *Resolver) loseLife(ctx context.Context, s *state.State, victim, shooter *entity.Combatant, environment string) {
	victim.Lives--

	payload := loggingcombat.KillPayload{Killer: environment}
	switch {
	case shooter != nil:
		result := s.Ledger.RecordKill(s.Tick, shooter.ID, shooter.Name, victim.ID, victim.Name)
		payload.Killer = shooter.ID
		payload.Bounty = result.Bounty
		payload.Revenge = result.Revenge
		if shooter.Human() {
			payload.Points = result.Points()
			if r.Hooks.OnScore != nil {
				r.Hooks.OnScore(payload.Points)
			}
		}
	case environment != "":
		s.Ledger.RecordEnvironmentalKill(s.Tick, environment, victim.Name)
	}

	if victim.Lives <= 0 {
		victim.Lives = 0
		victim.Eliminated = true
		payload.Eliminated = true
		lifecycle.Eliminated(ctx, r.Publisher, s.Tick, ref(victim), nil)
	} else {
		var x, y float64
		placed := false
		if environment == scoring.KillerZone {
			x, y, placed = s.Zone.RespawnPoint(s.Grid, r.RNG)
		}
		if !placed {
			x, y = RespawnPosition(s)
		}
		victim.PlaceAt(x, y)
		victim.Restore()
		lifecycle.Respawned(ctx, r.Publisher, s.Tick, ref(victim), lifecycle.RespawnPayload{
			X:         x,
			Y:         y,
			LivesLeft: victim.Lives,
		}, nil)
	}
	payload.LivesLeft = victim.Lives
	actor := logging.EntityRef{ID: environment, Kind: logging.EntityKindHazard}
	if shooter != nil {
		actor = ref(shooter)
	} else if environment == "" {
		actor = logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
	loggingcombat.Kill(ctx, r.Publisher, s.Tick, actor, ref(victim), payload, nil)

	if r.Hooks.OnLifeLost != nil {
		r.Hooks.OnLifeLost(victim)
	}
}

// RespawnPosition picks the spawn cell whose minimum distance to every alive
// combatant is largest. Ties keep the earlier candidate.
func RespawnPosition(s *state.State) (float64, float64) {
	best := grid.SpawnCells[0]
	bestDist := -1.0
	for _, cell := range grid.SpawnCells {
		x, y := cell.Origin()
		nearest := math.Inf(1)
		for _, c := range s.Combatants {
			if !c.Alive() {
				continue
			}
			nearest = math.Min(nearest, math.Hypot(x-c.X, y-c.Y))
		}
		if nearest > bestDist {
			bestDist = nearest
			best = cell
		}
	}
	return best.Origin()
}

func ref(c *entity.Combatant) logging.EntityRef {
	if c == nil {
		return logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
	kind := logging.EntityKindAgent
	switch c.Control {
	case entity.ControlHuman:
		kind = logging.EntityKindHuman
	case entity.ControlRemote:
		kind = logging.EntityKindRemote
	}
	return logging.EntityRef{ID: c.ID, Kind: kind}
}

func ownerRef(owner *entity.Combatant, id string) logging.EntityRef {
	if owner != nil {
		return ref(owner)
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindUnknown}
}

// EntityRef exposes the logging identity of a combatant for other packages.
func EntityRef(c *entity.Combatant) logging.EntityRef {
	return ref(c)
}
