package hazard

import (
	"math"
	"testing"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
	"github.com/ShangTsung3/battle-city-pro/internal/zone"
)

func TestOpeningDelaysWithinRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := NewScheduler(rng.New("open", string(rune('a'+i))), DefaultTiming())
		if s.NextAirstrike < 600 || s.NextAirstrike >= 900 {
			t.Fatalf("unexpected first airstrike delay %d", s.NextAirstrike)
		}
		if s.NextSupply < 360 || s.NextSupply >= 600 {
			t.Fatalf("unexpected first supply delay %d", s.NextSupply)
		}
	}
}

func TestAirstrikeLifecycle(t *testing.T) {
	r := rng.New("strike", rng.LabelHazards)
	s := Scheduler{Timing: DefaultTiming(), NextAirstrike: 1, NextSupply: 1 << 30}
	z := zone.New()

	res := s.Step(r, z, nil)
	if len(res.Armed) != 1 || len(s.Airstrikes) != 1 {
		t.Fatalf("expected an armed airstrike, got %+v", res)
	}
	strike := s.Airstrikes[0]
	if d := math.Hypot(strike.X-z.CenterX, strike.Y-z.CenterY); d >= z.Radius*AirstrikeSpawnRatio {
		t.Fatalf("expected spawn within %.0f%% of the zone, got distance %f", AirstrikeSpawnRatio*100, d)
	}
	if s.NextAirstrike < 600 || s.NextAirstrike >= 1200 {
		t.Fatalf("expected re-arm in [600, 1200), got %d", s.NextAirstrike)
	}

	inner := &entity.Combatant{ID: "inner", X: strike.X - grid.HalfTile, Y: strike.Y - grid.HalfTile}
	outer := &entity.Combatant{ID: "outer", X: strike.X + strike.Radius*0.75 - grid.HalfTile, Y: strike.Y - grid.HalfTile}
	shielded := &entity.Combatant{ID: "shielded", X: inner.X, Y: inner.Y, ShieldTime: 10}
	far := &entity.Combatant{ID: "far", X: strike.X + strike.Radius*2, Y: strike.Y}
	all := []*entity.Combatant{inner, outer, shielded, far}

	s.NextAirstrike = 1 << 30
	for i := 0; i < entity.AirstrikeWarningTicks-2; i++ {
		if res := s.Step(r, z, all); len(res.Damage) != 0 {
			t.Fatalf("expected no damage during the warning window")
		}
	}
	res = s.Step(r, z, all)
	if len(res.Detonated) != 1 || len(s.Airstrikes) != 0 {
		t.Fatalf("expected detonation after the warning window, got %+v", res)
	}
	got := map[string]int{}
	for _, d := range res.Damage {
		if d.Killer != scoring.KillerAirstrike || d.HitFlash != BlastHitFlash {
			t.Fatalf("unexpected damage intent %+v", d)
		}
		got[d.TargetID] = d.Amount
	}
	if got["inner"] != InnerDamage || got["outer"] != OuterDamage {
		t.Fatalf("unexpected damage split %+v", got)
	}
	if _, ok := got["shielded"]; ok {
		t.Fatalf("expected shielded combatant to be immune")
	}
	if _, ok := got["far"]; ok {
		t.Fatalf("expected combatant outside the blast to be spared")
	}
}

func TestSupplyDropMaterialisesItem(t *testing.T) {
	r := rng.New("supply", rng.LabelHazards)
	s := Scheduler{Timing: DefaultTiming(), NextAirstrike: 1 << 30, NextSupply: 1}
	z := zone.New()

	res := s.Step(r, z, nil)
	if len(res.Dropped) != 1 {
		t.Fatalf("expected a supply drop, got %+v", res)
	}
	drop := s.Drops[0]
	if d := math.Hypot(drop.X-z.CenterX, drop.Y-z.CenterY); d >= z.Radius*SupplySpawnRatio {
		t.Fatalf("expected drop within %.0f%% of the zone, got distance %f", SupplySpawnRatio*100, d)
	}
	if s.NextSupply < 480 || s.NextSupply >= 780 {
		t.Fatalf("expected re-arm in [480, 780), got %d", s.NextSupply)
	}

	for i := 0; i < entity.SupplyFallTicks-2; i++ {
		if res := s.Step(r, z, nil); len(res.Items) != 0 {
			t.Fatalf("expected no item while falling")
		}
	}
	res = s.Step(r, z, nil)
	if len(res.Items) != 1 || len(s.Drops) != 0 {
		t.Fatalf("expected one landed item, got %+v", res)
	}
	item := res.Items[0]
	if item.Life != entity.SupplyItemLife {
		t.Fatalf("expected item life %d, got %d", entity.SupplyItemLife, item.Life)
	}
	if item.X != drop.X-grid.HalfTile || item.Y != drop.Y-grid.HalfTile {
		t.Fatalf("expected item centred on the drop")
	}
}
