package lifecycle

import (
	"context"

	"github.com/ShangTsung3/battle-city-pro/logging"
)

const (
	// EventMatchStarted is emitted once the roster is placed.
	EventMatchStarted logging.EventType = "lifecycle.match_started"
	// EventMatchEnded is emitted when a winner is decided or the human falls.
	EventMatchEnded logging.EventType = "lifecycle.match_ended"
	// EventRespawned is emitted when a combatant re-enters after a life loss.
	EventRespawned logging.EventType = "lifecycle.respawned"
	// EventEliminated is emitted when a combatant runs out of lives.
	EventEliminated logging.EventType = "lifecycle.eliminated"
	// EventItemCollected is emitted when a combatant picks up an item.
	EventItemCollected logging.EventType = "lifecycle.item_collected"
	// EventRosterChanged is emitted when a remote peer joins or leaves.
	EventRosterChanged logging.EventType = "lifecycle.roster_changed"
)

type MatchStartedPayload struct {
	Seed       string `json:"seed"`
	Combatants int    `json:"combatants"`
	Humans     int    `json:"humans"`
	Networked  bool   `json:"networked,omitempty"`
	Bricks     int    `json:"bricks"`
	Crates     int    `json:"crates"`
}

type MatchEndedPayload struct {
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
	Ticks  uint64 `json:"ticks"`
}

type RespawnPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	LivesLeft int     `json:"livesLeft"`
}

type ItemPayload struct {
	ItemID string `json:"itemId"`
	Kind   string `json:"kind"`
}

type RosterPayload struct {
	Change string `json:"change"`
	Name   string `json:"name,omitempty"`
}

func MatchStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload MatchStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchStarted,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

func MatchEnded(ctx context.Context, pub logging.Publisher, tick uint64, payload MatchEndedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchEnded,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

func Respawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RespawnPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRespawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

func Eliminated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEliminated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Extra:    extra,
	})
}

func ItemCollected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ItemPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventItemCollected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

func RosterChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RosterPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRosterChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}
