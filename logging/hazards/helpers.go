package hazards

import (
	"context"

	"github.com/ShangTsung3/battle-city-pro/logging"
)

const (
	// EventZonePhase is emitted when the zone switches between shrinking and paused.
	EventZonePhase logging.EventType = "hazards.zone_phase"
	// EventAirstrikeArmed is emitted when a strike begins its warning countdown.
	EventAirstrikeArmed logging.EventType = "hazards.airstrike_armed"
	// EventAirstrikeDetonated is emitted when a strike resolves its blast.
	EventAirstrikeDetonated logging.EventType = "hazards.airstrike_detonated"
	// EventSupplyDropped is emitted when a supply crate starts falling.
	EventSupplyDropped logging.EventType = "hazards.supply_dropped"
	// EventSupplyLanded is emitted when a crate lands and becomes an item.
	EventSupplyLanded logging.EventType = "hazards.supply_landed"
)

type ZonePhasePayload struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Cycle        int     `json:"cycle"`
	Radius       float64 `json:"radius"`
	TargetRadius float64 `json:"targetRadius"`
}

type AirstrikePayload struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Victims int     `json:"victims,omitempty"`
}

type SupplyPayload struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Item string  `json:"item,omitempty"`
}

func ZonePhase(ctx context.Context, pub logging.Publisher, tick uint64, payload ZonePhasePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventZonePhase,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryHazards,
		Payload:  payload,
		Extra:    extra,
	})
}

func AirstrikeArmed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AirstrikePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAirstrikeArmed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryHazards,
		Payload:  payload,
		Extra:    extra,
	})
}

func AirstrikeDetonated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AirstrikePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAirstrikeDetonated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryHazards,
		Payload:  payload,
		Extra:    extra,
	})
}

func SupplyDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SupplyPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSupplyDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryHazards,
		Payload:  payload,
		Extra:    extra,
	})
}

func SupplyLanded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SupplyPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSupplyLanded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryHazards,
		Payload:  payload,
		Extra:    extra,
	})
}
