package combat

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/hazard"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
	"github.com/ShangTsung3/battle-city-pro/internal/state"
	loggingcombat "github.com/ShangTsung3/battle-city-pro/logging/combat"
	"github.com/ShangTsung3/battle-city-pro/logging/sinks"
)

func newTank(id string, control entity.Control, x, y float64) *entity.Combatant {
	return &entity.Combatant{
		ID:          id,
		Name:        strings.ToUpper(id),
		Control:     control,
		X:           x,
		Y:           y,
		Health:      2,
		MaxHealth:   2,
		Lives:       entity.StartingLives,
		BulletLevel: 1,
		SpeedLevel:  1,
	}
}

type fixture struct {
	state    *state.State
	resolver *Resolver
	events   *sinks.Memory
	scores   []int
	lost     []string
}

func newFixture(t *testing.T, combatants ...*entity.Combatant) *fixture {
	t.Helper()
	f := &fixture{events: sinks.NewMemory()}
	f.state = state.New(grid.New(grid.Size), combatants, "a", hazard.Scheduler{})
	f.resolver = NewResolver(60, rand.New(rand.NewSource(1)), f.events)
	f.resolver.Hooks.OnScore = func(points int) { f.scores = append(f.scores, points) }
	f.resolver.Hooks.OnLifeLost = func(victim *entity.Combatant) { f.lost = append(f.lost, victim.ID) }
	return f
}

func (f *fixture) shoot(owner string, x, y float64) {
	f.state.Bullets = append(f.state.Bullets, &entity.Bullet{ID: "shot", OwnerID: owner, X: x, Y: y, Speed: 3})
}

func TestShieldAbsorbsBullet(t *testing.T) {
	victim := newTank("b", entity.ControlAgent, 400, 400)
	victim.ShieldTime = 10
	f := newFixture(t, newTank("a", entity.ControlHuman, 100, 100), victim)

	f.shoot("a", 405, 420)
	f.resolver.AdvanceBullets(context.Background(), f.state)

	if victim.Health != 2 {
		t.Fatalf("expected shield to absorb the hit, health=%d", victim.Health)
	}
	if len(f.state.Bullets) != 0 {
		t.Fatalf("expected bullet to be destroyed")
	}
	if len(f.events.OfType(loggingcombat.EventShieldAbsorbed)) != 1 {
		t.Fatalf("expected shield absorbed event")
	}
}

func TestBulletDamagesAndFlashes(t *testing.T) {
	victim := newTank("b", entity.ControlAgent, 400, 400)
	f := newFixture(t, newTank("a", entity.ControlHuman, 100, 100), victim)

	f.shoot("a", 405, 420)
	f.resolver.AdvanceBullets(context.Background(), f.state)

	if victim.Health != 1 || victim.HitFlash != BulletHitFlash {
		t.Fatalf("expected health 1 and flash %d, got %d/%d", BulletHitFlash, victim.Health, victim.HitFlash)
	}
	if victim.Lives != entity.StartingLives {
		t.Fatalf("non-fatal hit should not cost a life")
	}
}

func TestOwnerIsNeverHitByOwnBullet(t *testing.T) {
	owner := newTank("a", entity.ControlHuman, 400, 400)
	f := newFixture(t, owner)

	f.shoot("a", 405, 420)
	f.resolver.AdvanceBullets(context.Background(), f.state)

	if owner.Health != 2 || len(f.state.Bullets) != 1 {
		t.Fatalf("expected bullet to pass through its owner")
	}
}

func TestFatalHitRespawnsAndScores(t *testing.T) {
	shooter := newTank("a", entity.ControlHuman, 340, 400)
	victim := newTank("b", entity.ControlAgent, 400, 400)
	victim.Health = 1
	victim.BulletLevel = 3
	victim.PiercingTime = 50
	f := newFixture(t, shooter, victim)

	f.shoot("a", 405, 420)
	f.resolver.AdvanceBullets(context.Background(), f.state)

	if victim.Lives != 2 || victim.Eliminated {
		t.Fatalf("expected one life lost, got lives=%d eliminated=%v", victim.Lives, victim.Eliminated)
	}
	// (0,20) and (20,20) tie on distance; the earlier candidate wins.
	if victim.X != 800 || victim.Y != 0 {
		t.Fatalf("expected respawn at (800,0), got (%v,%v)", victim.X, victim.Y)
	}
	if victim.Health != victim.MaxHealth || victim.ShieldTime != entity.RespawnShieldTicks {
		t.Fatalf("expected restored health and shield, got %d/%d", victim.Health, victim.ShieldTime)
	}
	if victim.BulletLevel != 1 || victim.PiercingTime != 0 {
		t.Fatalf("expected upgrades stripped, got level=%d piercing=%d", victim.BulletLevel, victim.PiercingTime)
	}
	if got := f.state.Ledger.Kills("a"); got != 1 {
		t.Fatalf("expected shooter kill credited, got %d", got)
	}
	feed := f.state.Ledger.Feed()
	if len(feed) != 1 || feed[0].Killer != "A" || feed[0].Victim != "B" {
		t.Fatalf("unexpected kill feed %+v", feed)
	}
	if len(f.scores) != 1 || f.scores[0] != scoring.ScoreKill {
		t.Fatalf("expected human score %d, got %v", scoring.ScoreKill, f.scores)
	}
	if len(f.lost) != 1 || f.lost[0] != "b" {
		t.Fatalf("expected life-lost hook for b, got %v", f.lost)
	}
}

func TestLastLifeEliminatesPermanently(t *testing.T) {
	victim := newTank("b", entity.ControlAgent, 400, 400)
	victim.Health = 1
	victim.Lives = 1
	f := newFixture(t, newTank("a", entity.ControlAgent, 100, 100), victim)
	ctx := context.Background()

	f.resolver.ApplyDamage(ctx, f.state, entity.Damage{TargetID: "b", Amount: 1, Killer: scoring.KillerAirstrike})
	if !victim.Eliminated || victim.Lives != 0 {
		t.Fatalf("expected elimination, got lives=%d eliminated=%v", victim.Lives, victim.Eliminated)
	}

	f.resolver.ApplyDamage(ctx, f.state, entity.Damage{TargetID: "b", Amount: 5, Killer: scoring.KillerAirstrike})
	f.shoot("a", victim.X+5, victim.Y+20)
	f.resolver.AdvanceBullets(ctx, f.state)
	if victim.Lives != 0 || !victim.Eliminated || len(f.lost) != 1 {
		t.Fatalf("eliminated combatant must not be hurt again")
	}
	if len(f.state.Bullets) != 1 {
		t.Fatalf("bullets should pass eliminated combatants")
	}
	if f.state.Ledger.Feed()[0].Killer != scoring.KillerAirstrike {
		t.Fatalf("expected airstrike kill feed entry")
	}
	if len(f.scores) != 0 {
		t.Fatalf("environmental kills never score")
	}
}

func TestUnresolvableOwnerIsAnonymous(t *testing.T) {
	victim := newTank("b", entity.ControlAgent, 400, 400)
	victim.Health = 1
	f := newFixture(t, victim)

	f.shoot("gone", 405, 420)
	f.resolver.AdvanceBullets(context.Background(), f.state)

	if victim.Lives != 2 {
		t.Fatalf("expected life lost, got %d", victim.Lives)
	}
	if len(f.state.Ledger.Feed()) != 0 || f.state.Ledger.Kills("gone") != 0 {
		t.Fatalf("anonymous kills must not reach the ledger")
	}
}

func TestZoneKillRespawnsOnOpenGround(t *testing.T) {
	victim := newTank("b", entity.ControlAgent, 0, 0)
	f := newFixture(t, victim)
	f.state.Grid = grid.Generate(rng.New("zone-kill", rng.LabelLayout), grid.DefaultGenerateConfig())

	for i := 0; i < 100; i++ {
		victim.Health = 1
		victim.Lives = entity.StartingLives
		f.resolver.ApplyDamage(context.Background(), f.state, entity.Damage{TargetID: "b", Amount: 1, Killer: scoring.KillerZone})
		if hit := f.state.Grid.QueryBox(victim.X, victim.Y, entity.BodyCollisionSize); hit.Obstructed() {
			t.Fatalf("respawn %d at %v,%v overlaps terrain %+v", i, victim.X, victim.Y, hit)
		}
	}
}

func TestZoneKillRespawnsInsideZone(t *testing.T) {
	victim := newTank("b", entity.ControlAgent, 0, 0)
	victim.Health = 1
	f := newFixture(t, victim)
	f.state.Zone.Radius = 200

	f.resolver.ApplyDamage(context.Background(), f.state, entity.Damage{TargetID: "b", Amount: 1, HitFlash: 8, Killer: scoring.KillerZone})

	if got := f.state.Zone.DistanceFromCenter(victim); got > f.state.Zone.Radius*0.5+1e-9 {
		t.Fatalf("expected respawn within half the zone radius, got distance %v", got)
	}
	if f.state.Ledger.Feed()[0].Killer != scoring.KillerZone {
		t.Fatalf("expected ZONE feed entry")
	}
	if f.state.Ledger.Bounty() != "" || f.state.Ledger.Kills(scoring.KillerZone) != 0 {
		t.Fatalf("zone kills must not touch kill counts")
	}
}

func TestTileImpacts(t *testing.T) {
	tests := []struct {
		name     string
		kind     grid.Kind
		piercing bool
		want     grid.Kind
		items    int
	}{
		{name: "brick cracks", kind: grid.Brick, want: grid.BrickCracked},
		{name: "cracked brick clears", kind: grid.BrickCracked, want: grid.Empty},
		{name: "crate drops item", kind: grid.Crate, want: grid.Empty, items: 1},
		{name: "steel holds", kind: grid.Steel, want: grid.Steel},
		{name: "piercing clears steel", kind: grid.Steel, piercing: true, want: grid.Empty},
		{name: "base marker holds", kind: grid.BasePlayer, want: grid.BasePlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, newTank("a", entity.ControlHuman, 0, 0))
			f.state.Grid.Set(5, 5, tt.kind)
			var destroyed []grid.Cell
			f.resolver.Hooks.OnTileDestroyed = func(cell grid.Cell, _ grid.Kind, owner *entity.Combatant) {
				if owner == nil || owner.ID != "a" {
					t.Fatalf("expected owner a")
				}
				destroyed = append(destroyed, cell)
			}
			f.state.Bullets = append(f.state.Bullets, &entity.Bullet{ID: "x", OwnerID: "a", X: 205, Y: 220, Speed: 3, Piercing: tt.piercing})

			f.resolver.AdvanceBullets(context.Background(), f.state)

			if got, _ := f.state.Grid.At(5, 5); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if len(f.state.Bullets) != 0 {
				t.Fatalf("expected bullet destroyed on impact")
			}
			if len(f.state.Items) != tt.items {
				t.Fatalf("expected %d items, got %d", tt.items, len(f.state.Items))
			}
			if tt.items == 1 {
				item := f.state.Items[0]
				if item.X != 200 || item.Y != 200 || item.Life != entity.CrateItemLife {
					t.Fatalf("unexpected crate item %+v", item)
				}
			}
			changed := tt.kind != tt.want
			if changed != (len(destroyed) == 1) {
				t.Fatalf("expected tile hook only on change, got %v", destroyed)
			}
		})
	}
}

func TestFireCooldown(t *testing.T) {
	shooter := newTank("a", entity.ControlHuman, 400, 400)
	shooter.PiercingTime = 5
	f := newFixture(t, shooter)
	ctx := context.Background()

	bullet, ok := f.resolver.Fire(ctx, f.state, shooter)
	if !ok {
		t.Fatalf("expected first shot to fire")
	}
	if bullet.X != 420+entity.MuzzleOffset || bullet.Y != 420 || !bullet.Piercing {
		t.Fatalf("unexpected bullet %+v", bullet)
	}
	if bullet.Speed != entity.BulletSpeed(1) {
		t.Fatalf("unexpected speed %v", bullet.Speed)
	}
	if _, ok := f.resolver.Fire(ctx, f.state, shooter); ok {
		t.Fatalf("expected cooldown to gate the second shot")
	}
	f.state.Tick += CooldownTicks(1, 60)
	if _, ok := f.resolver.Fire(ctx, f.state, shooter); !ok {
		t.Fatalf("expected shot after cooldown")
	}
}

func TestCooldownTicks(t *testing.T) {
	cases := map[int]uint64{1: 24, 2: 20, 3: 15, 4: 10}
	for level, want := range cases {
		if got := CooldownTicks(level, 60); got != want {
			t.Errorf("CooldownTicks(%d) = %d, want %d", level, got, want)
		}
	}
}

func TestRespawnPositionMaximisesDistance(t *testing.T) {
	f := newFixture(t, newTank("a", entity.ControlAgent, 0, 0))
	x, y := RespawnPosition(f.state)
	if x != 800 || y != 800 {
		t.Fatalf("expected far corner, got (%v,%v)", x, y)
	}
}
