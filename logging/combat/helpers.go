package combat

import (
	"context"

	"github.com/ShangTsung3/battle-city-pro/logging"
)

const (
	// EventShotFired is emitted when a combatant spawns a bullet.
	EventShotFired logging.EventType = "combat.shot_fired"
	// EventHit is emitted when a bullet or blast removes health.
	EventHit logging.EventType = "combat.hit"
	// EventShieldAbsorbed is emitted when a shield swallows a hit.
	EventShieldAbsorbed logging.EventType = "combat.shield_absorbed"
	// EventKill is emitted when a combatant loses a life.
	EventKill logging.EventType = "combat.kill"
	// EventTileDestroyed is emitted when a bullet changes a tile.
	EventTileDestroyed logging.EventType = "combat.tile_destroyed"
)

type ShotPayload struct {
	BulletID string  `json:"bulletId"`
	Level    int     `json:"level"`
	Piercing bool    `json:"piercing,omitempty"`
	Angle    float64 `json:"angle"`
}

type HitPayload struct {
	Amount       int    `json:"amount"`
	TargetHealth int    `json:"targetHealth"`
	Source       string `json:"source,omitempty"`
}

// KillPayload records the victim's remaining lives and the award the killer
// received.
type KillPayload struct {
	Killer     string `json:"killer"`
	LivesLeft  int    `json:"livesLeft"`
	Eliminated bool   `json:"eliminated,omitempty"`
	Points     int    `json:"points,omitempty"`
	Bounty     bool   `json:"bounty,omitempty"`
	Revenge    bool   `json:"revenge,omitempty"`
}

type TilePayload struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reward string `json:"reward,omitempty"`
}

// ShotFired publishes a debug event for every spawned bullet.
func ShotFired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ShotPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventShotFired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// Hit publishes a damage event against a single target.
func Hit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload HitPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

func ShieldAbsorbed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventShieldAbsorbed,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Extra:    extra,
	})
}

// Kill publishes a life-loss event. Eliminations are raised to warn so they
// stand out in the console.
func Kill(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload KillPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	if payload.Eliminated {
		severity = logging.SeverityWarn
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventKill,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: severity,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

func TileDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TilePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTileDestroyed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}
