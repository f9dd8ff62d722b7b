// Package relay is the unauthoritative fan-out server. It keeps a lobby
// roster and forwards gameplay frames between connections without validating
// them.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
	lifecyclelog "github.com/ShangTsung3/battle-city-pro/logging/lifecycle"
	netlog "github.com/ShangTsung3/battle-city-pro/logging/network"
)

const (
	writeWait = 10 * time.Second

	// TypePlayerHit is forwarded to everyone for clients that announce hits.
	TypePlayerHit proto.Type = "playerHit"

	// Default lobby entry for a new connection.
	defaultHealth = 5
	defaultLives  = 3
	defaultShield = 180

	metricConnections   = "relay_connections"
	metricJoinedTotal   = "relay_joined_total"
	metricFramesIn      = "relay_frames_in_total"
	metricFramesOut     = "relay_frames_out_total"
	metricDecodeFailed  = "relay_decode_failed_total"
	metricUnknownFrames = "relay_unknown_frames_total"
	metricWriteFailed   = "relay_write_failed_total"
)

// Colors are handed out to connections in order.
var Colors = []string{
	"#ffd700", "#00ff00", "#00ffff", "#ff00ff", "#ff6600", "#00ff99",
	"#ff3366", "#66ff33", "#3366ff", "#ffff00", "#ff0099", "#99ff00",
}

type subscriber struct {
	id    string
	conn  *websocket.Conn
	codec proto.Codec
	mu    sync.Mutex
}

func (s *subscriber) write(codec proto.Codec, data []byte) error {
	frameType := websocket.TextMessage
	if codec.Binary() {
		frameType = websocket.BinaryMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(frameType, data)
}

// HubConfig wires the hub's ambient dependencies.
type HubConfig struct {
	Logger    telemetry.Logger
	Metrics   *telemetry.Counters
	Publisher logging.Publisher
}

// Hub owns the lobby roster and every live connection.
type Hub struct {
	mu          sync.Mutex
	players     map[string]*proto.Player
	order       []string
	subscribers map[string]*subscriber
	started     bool
	colorIndex  int
	startedAt   time.Time

	logger    telemetry.Logger
	metrics   *telemetry.Counters
	publisher logging.Publisher
}

func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewCounters()
	}
	return &Hub{
		players:     make(map[string]*proto.Player),
		subscribers: make(map[string]*subscriber),
		startedAt:   time.Now(),
		logger:      logger,
		metrics:     metrics,
		publisher:   cfg.Publisher,
	}
}

// Join registers a connection, greets it with init and announces it to the
// others.
func (h *Hub) Join(conn *websocket.Conn, codec proto.Codec) (*subscriber, proto.Player) {
	id := uuid.NewString()
	sub := &subscriber{id: id, conn: conn, codec: codec}

	h.mu.Lock()
	player := &proto.Player{
		ID:          id,
		Name:        fmt.Sprintf("Player_%d", len(h.players)+1),
		Color:       Colors[h.colorIndex%len(Colors)],
		Health:      defaultHealth,
		MaxHealth:   defaultHealth,
		Lives:       defaultLives,
		ShieldTime:  defaultShield,
		BulletLevel: 1,
		SpeedLevel:  1,
	}
	h.colorIndex++
	h.players[id] = player
	h.order = append(h.order, id)
	h.subscribers[id] = sub
	info := *player
	greeting := proto.Init{
		PlayerID:    id,
		PlayerInfo:  info,
		Players:     h.rosterLocked(),
		GameStarted: h.started,
	}
	others := h.othersLocked(id)
	h.metrics.Store(metricConnections, uint64(len(h.subscribers)))
	h.mu.Unlock()

	h.metrics.Add(metricJoinedTotal, 1)
	h.logger.Printf("[relay] %s connected as %s", id, info.Name)
	lifecyclelog.RosterChanged(context.Background(), h.publisher, 0, logging.EntityRef{ID: id, Kind: logging.EntityKindPeer}, lifecyclelog.RosterPayload{Change: "joined", Name: info.Name}, nil)

	h.deliver([]*subscriber{sub}, typed(greeting))
	h.deliver(others, typed(proto.PlayerJoined{Player: info}))
	return sub, info
}

// Leave drops a connection and tells everyone left. The lobby resets once it
// is empty.
func (h *Hub) Leave(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subscribers, id)
	name := ""
	if player, found := h.players[id]; found {
		name = player.Name
	}
	delete(h.players, id)
	for i, existing := range h.order {
		if existing == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	if len(h.players) == 0 {
		h.started = false
		h.colorIndex = 0
	}
	everyone := h.allLocked()
	h.metrics.Store(metricConnections, uint64(len(h.subscribers)))
	h.mu.Unlock()

	sub.conn.Close()
	h.logger.Printf("[relay] %s disconnected", id)
	lifecyclelog.RosterChanged(context.Background(), h.publisher, 0, logging.EntityRef{ID: id, Kind: logging.EntityKindPeer}, lifecyclelog.RosterPayload{Change: "left", Name: name}, nil)
	h.deliver(everyone, typed(proto.PlayerLeft{ID: id}))
}

// Handle routes one frame received from id.
func (h *Hub) Handle(id string, frameType int, data []byte) {
	codec := proto.JSON
	if frameType == websocket.BinaryMessage {
		codec = proto.Msgpack
	}
	h.metrics.Add(metricFramesIn, 1)

	frame, err := proto.DecodeFrame(codec, data)
	if err != nil {
		h.metrics.Add(metricDecodeFailed, 1)
		netlog.DecodeFailed(context.Background(), h.publisher, 0, netlog.DropPayload{Reason: err.Error()}, map[string]any{"peer": id})
		return
	}

	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		sub.codec = codec
	}
	player := h.players[id]
	h.mu.Unlock()
	if !ok || player == nil {
		return
	}

	switch frame.Type {
	case proto.TypeUpdatePosition:
		h.mu.Lock()
		applyPosition(player, frame.Payload)
		others := h.othersLocked(id)
		h.mu.Unlock()
		frame.Type = proto.TypePlayerMoved
		frame.Payload["id"] = id
		h.deliver(others, framed(frame))
	case proto.TypeBulletFired:
		frame.Payload["ownerId"] = id
		h.deliver(h.others(id), framed(frame))
	case proto.TypeTileDestroyed, proto.TypeItemSpawned, proto.TypeItemPickup:
		h.deliver(h.others(id), framed(frame))
	case TypePlayerHit:
		h.deliver(h.all(), framed(frame))
	case proto.TypePlayerDeath:
		victim, _ := frame.Payload["playerId"].(string)
		h.mu.Lock()
		target, found := h.players[victim]
		if found {
			if lives, ok := number(frame.Payload["lives"]); ok {
				target.Lives = int(lives)
			}
			if eliminated, ok := frame.Payload["isEliminated"].(bool); ok {
				target.IsEliminated = eliminated
			}
		}
		everyone := h.allLocked()
		h.mu.Unlock()
		if found {
			h.deliver(everyone, framed(frame))
		}
	case proto.TypeSetName:
		name := text(frame.Payload, "name")
		h.mu.Lock()
		player.Name = name
		updated := *player
		everyone := h.allLocked()
		h.mu.Unlock()
		h.deliver(everyone, typed(proto.PlayerUpdated{Player: updated}))
	case proto.TypeStartGame:
		h.mu.Lock()
		h.started = true
		players := h.rosterLocked()
		everyone := h.allLocked()
		h.mu.Unlock()
		h.logger.Printf("[relay] game starting with %d players", len(players))
		h.deliver(everyone, typed(proto.GameStarted{Players: players}))
	case proto.TypeChat:
		h.mu.Lock()
		chat := proto.Chat{PlayerID: id, PlayerName: player.Name, Message: text(frame.Payload, "message")}
		everyone := h.allLocked()
		h.mu.Unlock()
		h.deliver(everyone, typed(chat))
	default:
		h.metrics.Add(metricUnknownFrames, 1)
		h.logger.Printf("[relay] unknown message type %q from %s", frame.Type, id)
	}
}

// Players returns the lobby roster in join order.
func (h *Hub) Players() []proto.Player {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rosterLocked()
}

// Started reports whether startGame was received since the lobby was last
// empty.
func (h *Hub) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// Metrics exposes the hub counters.
func (h *Hub) Metrics() *telemetry.Counters {
	return h.metrics
}

func (h *Hub) rosterLocked() []proto.Player {
	players := make([]proto.Player, 0, len(h.order))
	for _, id := range h.order {
		if player, ok := h.players[id]; ok {
			players = append(players, *player)
		}
	}
	return players
}

func (h *Hub) othersLocked(id string) []*subscriber {
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, pid := range h.order {
		if pid == id {
			continue
		}
		if sub, ok := h.subscribers[pid]; ok {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (h *Hub) allLocked() []*subscriber {
	return h.othersLocked("")
}

func (h *Hub) others(id string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.othersLocked(id)
}

func (h *Hub) all() []*subscriber {
	return h.others("")
}

type encoder func(proto.Codec) ([]byte, error)

func typed(msg proto.Message) encoder {
	return func(c proto.Codec) ([]byte, error) {
		return proto.Encode(c, msg)
	}
}

func framed(frame proto.Frame) encoder {
	return func(c proto.Codec) ([]byte, error) {
		return proto.EncodeFrame(c, frame)
	}
}

// deliver writes one message to every target, encoding once per codec.
// Targets whose write fails are dropped.
func (h *Hub) deliver(targets []*subscriber, encode encoder) {
	if len(targets) == 0 {
		return
	}
	encoded := make(map[string][]byte, 2)
	var failed []string
	for _, sub := range targets {
		h.mu.Lock()
		codec := sub.codec
		h.mu.Unlock()
		data, ok := encoded[codec.Name()]
		if !ok {
			var err error
			data, err = encode(codec)
			if err != nil {
				h.logger.Printf("[relay] failed to encode for %s: %v", sub.id, err)
				continue
			}
			encoded[codec.Name()] = data
		}
		if err := sub.write(codec, data); err != nil {
			h.metrics.Add(metricWriteFailed, 1)
			h.logger.Printf("[relay] failed to send to %s: %v", sub.id, err)
			failed = append(failed, sub.id)
			continue
		}
		h.metrics.Add(metricFramesOut, 1)
	}
	for _, id := range failed {
		h.Leave(id)
	}
}

func applyPosition(player *proto.Player, payload map[string]any) {
	if v, ok := number(payload["x"]); ok {
		player.X = v
	}
	if v, ok := number(payload["y"]); ok {
		player.Y = v
	}
	if v, ok := number(payload["angle"]); ok {
		player.Angle = v
	}
	if v, ok := number(payload["health"]); ok {
		player.Health = int(v)
	}
	if v, ok := number(payload["lives"]); ok {
		player.Lives = int(v)
	}
	if v, ok := payload["isEliminated"].(bool); ok {
		player.IsEliminated = v
	}
	if v, ok := number(payload["shieldTime"]); ok {
		player.ShieldTime = int(v)
	}
	if v, ok := number(payload["bulletLevel"]); ok {
		player.BulletLevel = int(v)
	}
	if v, ok := number(payload["piercingTime"]); ok {
		player.PiercingTime = int(v)
	}
}

// number accepts the numeric shapes produced by both codecs.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// text reads key from payload, falling back to a bare scalar payload.
func text(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	if s, ok := payload["value"].(string); ok {
		return s
	}
	return ""
}
