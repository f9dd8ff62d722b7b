// Package natsbus replaces the websocket relay with a NATS subject. Every
// participant publishes on the same subject and filters out its own frames,
// so the fan-out matches the relay's.
package natsbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
	netlog "github.com/ShangTsung3/battle-city-pro/logging/network"
)

const (
	transportName = "nats"

	// DefaultSubject carries every frame of a match.
	DefaultSubject = "arena.match"

	// SenderHeader names the publishing participant.
	SenderHeader = "Arena-Sender"
	// CodecHeader names the codec of the message body.
	CodecHeader = "Arena-Codec"

	decodeFailedMetricKey = "natsbus_decode_failed_total"
)

// Receiver accepts decoded inbound messages.
type Receiver interface {
	Push(msg proto.Message) bool
}

// Config describes the NATS connection and the identity stamped on frames.
type Config struct {
	URL       string
	Subject   string
	ID        string
	Name      string
	Codec     proto.Codec
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

// Bus is a netsync.Transport over a NATS subject.
type Bus struct {
	conn      *nats.Conn
	sub       *nats.Subscription
	subject   string
	id        string
	name      string
	codec     proto.Codec
	receiver  Receiver
	publisher logging.Publisher
	metrics   telemetry.Metrics

	mu     sync.Mutex
	closed bool
}

var _ netsync.Transport = (*Bus)(nil)

// Connect dials cfg.URL and subscribes to the match subject.
func Connect(ctx context.Context, cfg Config, receiver Receiver) (*Bus, error) {
	if cfg.ID == "" {
		return nil, errors.New("natsbus: participant id is required")
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	codec := cfg.Codec
	if codec == nil {
		codec = proto.JSON
	}

	b := &Bus{
		subject:   subject,
		id:        cfg.ID,
		name:      cfg.Name,
		codec:     codec,
		receiver:  receiver,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
	}

	conn, err := nats.Connect(url,
		nats.Name("arena-"+cfg.ID),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			reason := "disconnected"
			if err != nil {
				reason = err.Error()
			}
			netlog.Disconnected(context.Background(), b.publisher, 0, netlog.ConnectionPayload{Transport: transportName, Endpoint: url, Reason: reason}, nil)
			b.push(proto.Connectivity{State: proto.Disconnected, Reason: reason})
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			netlog.Connected(context.Background(), b.publisher, 0, netlog.ConnectionPayload{Transport: transportName, Endpoint: url}, nil)
			b.push(proto.Connectivity{State: proto.Connected})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect %s: %w", url, err)
	}
	b.conn = conn

	sub, err := conn.Subscribe(subject, b.handle)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("natsbus: subscribe %s: %w", subject, err)
	}
	b.sub = sub
	if err := conn.FlushWithContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("natsbus: flush: %w", err)
	}

	netlog.Connected(ctx, b.publisher, 0, netlog.ConnectionPayload{Transport: transportName, Endpoint: url}, nil)
	b.push(proto.Connectivity{State: proto.Connected})
	return b, nil
}

// Send stamps msg with this participant's identity and publishes it.
func (b *Bus) Send(msg proto.Message) error {
	if b == nil {
		return netsync.ErrClosed
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return netsync.ErrClosed
	}
	data, err := proto.Encode(b.codec, Stamp(b.id, b.name, msg))
	if err != nil {
		return err
	}
	out := nats.NewMsg(b.subject)
	out.Header.Set(SenderHeader, b.id)
	out.Header.Set(CodecHeader, b.codec.Name())
	out.Data = data
	if err := b.conn.PublishMsg(out); err != nil {
		return fmt.Errorf("natsbus: publish: %w", err)
	}
	return nil
}

// Close drains the subscription and the connection.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("natsbus: drain: %w", err)
	}
	return nil
}

func (b *Bus) handle(m *nats.Msg) {
	if m.Header.Get(SenderHeader) == b.id {
		return
	}
	codec, err := proto.CodecByName(m.Header.Get(CodecHeader))
	if err != nil {
		codec = b.codec
	}
	msg, err := proto.Decode(codec, m.Data)
	if err != nil {
		if b.metrics != nil {
			b.metrics.Add(decodeFailedMetricKey, 1)
		}
		netlog.DecodeFailed(context.Background(), b.publisher, 0, netlog.DropPayload{Reason: err.Error()}, nil)
		return
	}
	b.push(msg)
}

func (b *Bus) push(msg proto.Message) {
	if b.receiver == nil {
		return
	}
	b.receiver.Push(msg)
}

// Stamp rewrites a client message into the form the relay would deliver to
// the other participants.
func Stamp(id, name string, msg proto.Message) proto.Message {
	switch m := msg.(type) {
	case proto.UpdatePosition:
		return proto.PlayerMoved{ID: id, PositionFields: m.PositionFields}
	case proto.BulletFired:
		m.OwnerID = id
		return m
	case proto.Chat:
		m.PlayerID = id
		m.PlayerName = name
		return m
	case proto.SetName:
		return proto.PlayerUpdated{Player: proto.Player{ID: id, Name: m.Name}}
	default:
		return msg
	}
}
