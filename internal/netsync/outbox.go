package netsync

import (
	"context"
	"errors"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
	netlog "github.com/ShangTsung3/battle-city-pro/logging/network"
)

const (
	// PositionInterval is the minimum simulation time between position
	// updates, in milliseconds.
	PositionInterval = 50

	outboundSentMetricKey    = "netsync_outbound_sent_total"
	outboundDroppedMetricKey = "netsync_outbound_dropped_total"
)

// ErrClosed is returned by transports after Close.
var ErrClosed = errors.New("netsync: transport closed")

// ErrQueueFull is returned by transports whose send queue is saturated.
var ErrQueueFull = errors.New("netsync: send queue full")

// Sender delivers outbound messages. Implementations must not block.
type Sender interface {
	Send(msg proto.Message) error
}

// Transport is a relay link. Inbound messages are pushed into the inbox the
// transport was built with.
type Transport interface {
	Sender
	Close() error
}

// Outbox publishes the local human's state changes. Every send is fire and
// forget: failures are counted and logged, never retried.
type Outbox struct {
	sender    Sender
	tickRate  int
	publisher logging.Publisher
	metrics   telemetry.Metrics

	lastPosition uint64
	sentPosition bool
}

// NewOutbox returns an outbox sending through sender. A nil sender yields an
// outbox that discards everything.
func NewOutbox(sender Sender, tickRate int, publisher logging.Publisher, metrics telemetry.Metrics) *Outbox {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Outbox{sender: sender, tickRate: tickRate, publisher: publisher, metrics: metrics}
}

// Position sends the full replicated state of c unless one was sent less than
// PositionInterval ago. It reports whether a message went out.
func (o *Outbox) Position(ctx context.Context, tick uint64, c *entity.Combatant) bool {
	if o == nil || o.sender == nil || c == nil {
		return false
	}
	if o.sentPosition {
		elapsed := (tick - o.lastPosition) * 1000 / uint64(o.tickRate)
		if elapsed < PositionInterval {
			return false
		}
	}
	o.lastPosition = tick
	o.sentPosition = true
	o.send(ctx, tick, proto.UpdatePosition{PositionFields: Position(c)})
	return true
}

// BulletFired announces a shot by the local human.
func (o *Outbox) BulletFired(ctx context.Context, tick uint64, b *entity.Bullet) {
	if o == nil || o.sender == nil || b == nil {
		return
	}
	o.send(ctx, tick, proto.BulletFired{
		ID:         b.ID,
		X:          b.X,
		Y:          b.Y,
		Angle:      b.Angle,
		Speed:      b.Speed,
		IsPiercing: b.Piercing,
	})
}

// TileDestroyed announces a grid change caused by the local human.
func (o *Outbox) TileDestroyed(ctx context.Context, tick uint64, cell grid.Cell, kind grid.Kind) {
	if o == nil || o.sender == nil {
		return
	}
	o.send(ctx, tick, proto.TileDestroyed{Row: cell.Row, Col: cell.Col, Tile: int(kind)})
}

// PlayerDeath announces that the local human lost a life.
func (o *Outbox) PlayerDeath(ctx context.Context, tick uint64, c *entity.Combatant) {
	if o == nil || o.sender == nil || c == nil {
		return
	}
	o.send(ctx, tick, proto.PlayerDeath{PlayerID: c.ID, Lives: c.Lives, IsEliminated: c.Eliminated})
}

func (o *Outbox) send(ctx context.Context, tick uint64, msg proto.Message) {
	if err := o.sender.Send(msg); err != nil {
		if o.metrics != nil {
			o.metrics.Add(outboundDroppedMetricKey, 1)
		}
		netlog.OutboundDropped(ctx, o.publisher, tick, netlog.DropPayload{
			MessageType: string(msg.MessageType()),
			Reason:      err.Error(),
		}, nil)
		return
	}
	if o.metrics != nil {
		o.metrics.Add(outboundSentMetricKey, 1)
	}
}
