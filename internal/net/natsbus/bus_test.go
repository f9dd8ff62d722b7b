package natsbus

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

func TestStampMatchesRelayForms(t *testing.T) {
	tests := []struct {
		name  string
		input proto.Message
		check func(t *testing.T, out proto.Message)
	}{
		{
			name:  "position becomes playerMoved",
			input: proto.UpdatePosition{PositionFields: proto.PositionFields{X: proto.Ptr(3.0)}},
			check: func(t *testing.T, out proto.Message) {
				moved, ok := out.(proto.PlayerMoved)
				if !ok || moved.ID != "me" || moved.X == nil || *moved.X != 3 {
					t.Fatalf("unexpected %+v", out)
				}
			},
		},
		{
			name:  "bullet gains owner",
			input: proto.BulletFired{ID: "b"},
			check: func(t *testing.T, out proto.Message) {
				if bullet := out.(proto.BulletFired); bullet.OwnerID != "me" {
					t.Fatalf("expected owner me, got %q", bullet.OwnerID)
				}
			},
		},
		{
			name:  "chat gains sender",
			input: proto.Chat{Message: "hi"},
			check: func(t *testing.T, out proto.Message) {
				chat := out.(proto.Chat)
				if chat.PlayerID != "me" || chat.PlayerName != "Me" || chat.Message != "hi" {
					t.Fatalf("unexpected chat %+v", chat)
				}
			},
		},
		{
			name:  "rename becomes playerUpdated",
			input: proto.SetName{Name: "New"},
			check: func(t *testing.T, out proto.Message) {
				updated := out.(proto.PlayerUpdated)
				if updated.ID != "me" || updated.Name != "New" {
					t.Fatalf("unexpected update %+v", updated)
				}
			},
		},
		{
			name:  "death passes through",
			input: proto.PlayerDeath{PlayerID: "me", Lives: 1},
			check: func(t *testing.T, out proto.Message) {
				if _, ok := out.(proto.PlayerDeath); !ok {
					t.Fatalf("expected playerDeath, got %T", out)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, Stamp("me", "Me", tc.input))
		})
	}
}

func TestHandleSkipsOwnFrames(t *testing.T) {
	inbox := netsync.NewInbox(8, nil)
	metrics := telemetry.NewCounters()
	b := &Bus{id: "me", codec: proto.JSON, receiver: inbox, metrics: metrics}

	data, err := proto.Encode(proto.Msgpack, proto.ItemPickup{ID: "i"})
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	own := nats.NewMsg(DefaultSubject)
	own.Header.Set(SenderHeader, "me")
	own.Header.Set(CodecHeader, proto.Msgpack.Name())
	own.Data = data
	b.handle(own)
	if inbox.Len() != 0 {
		t.Fatalf("expected own frame skipped, got %d", inbox.Len())
	}

	peer := nats.NewMsg(DefaultSubject)
	peer.Header.Set(SenderHeader, "peer")
	peer.Header.Set(CodecHeader, proto.Msgpack.Name())
	peer.Data = data
	b.handle(peer)
	messages := inbox.Drain()
	if len(messages) != 1 || messages[0].(proto.ItemPickup).ID != "i" {
		t.Fatalf("expected peer frame delivered, got %+v", messages)
	}

	junk := nats.NewMsg(DefaultSubject)
	junk.Header.Set(SenderHeader, "peer")
	junk.Data = []byte("not a frame")
	b.handle(junk)
	if got := metrics.Load(decodeFailedMetricKey); got != 1 {
		t.Fatalf("expected 1 decode failure, got %d", got)
	}
}

func TestConnectRequiresID(t *testing.T) {
	if _, err := Connect(context.Background(), Config{}, nil); err == nil {
		t.Fatalf("expected error without participant id")
	}
}
