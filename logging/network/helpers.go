package network

import (
	"context"

	"github.com/ShangTsung3/battle-city-pro/logging"
)

const (
	// EventConnected is emitted when a transport reaches its relay.
	EventConnected logging.EventType = "network.connected"
	// EventDisconnected is emitted when a transport loses its relay.
	EventDisconnected logging.EventType = "network.disconnected"
	// EventInboundDropped is emitted when the inbox overflows.
	EventInboundDropped logging.EventType = "network.inbound_dropped"
	// EventDecodeFailed is emitted for frames that cannot be decoded.
	EventDecodeFailed logging.EventType = "network.decode_failed"
	// EventOutboundDropped is emitted when a send fails or is discarded.
	EventOutboundDropped logging.EventType = "network.outbound_dropped"
)

type ConnectionPayload struct {
	Transport string `json:"transport"`
	Endpoint  string `json:"endpoint,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type DropPayload struct {
	MessageType string `json:"messageType,omitempty"`
	Reason      string `json:"reason"`
	Count       int    `json:"count,omitempty"`
}

func Connected(ctx context.Context, pub logging.Publisher, tick uint64, payload ConnectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventConnected,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPeer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

func Disconnected(ctx context.Context, pub logging.Publisher, tick uint64, payload ConnectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDisconnected,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPeer},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

func InboundDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload DropPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventInboundDropped,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPeer},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

func DecodeFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload DropPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDecodeFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPeer},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

func OutboundDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload DropPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventOutboundDropped,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPeer},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}
