package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
)

type peer struct {
	t     *testing.T
	conn  *websocket.Conn
	codec proto.Codec
}

func newRelay(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(HubConfig{})
	srv := httptest.NewServer(NewHTTPHandler(hub, HandlerConfig{}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func connect(t *testing.T, srv *httptest.Server, codec proto.Codec) *peer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?codec=" + codec.Name()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return &peer{t: t, conn: conn, codec: codec}
}

func (p *peer) send(frame proto.Frame) {
	p.t.Helper()
	data, err := proto.EncodeFrame(p.codec, frame)
	if err != nil {
		p.t.Fatalf("failed to encode frame: %v", err)
	}
	frameType := websocket.TextMessage
	if p.codec.Binary() {
		frameType = websocket.BinaryMessage
	}
	if err := p.conn.WriteMessage(frameType, data); err != nil {
		p.t.Fatalf("failed to write frame: %v", err)
	}
}

func (p *peer) read() proto.Frame {
	p.t.Helper()
	_ = p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frameType, data, err := p.conn.ReadMessage()
	if err != nil {
		p.t.Fatalf("failed to read frame: %v", err)
	}
	codec := proto.JSON
	if frameType == websocket.BinaryMessage {
		codec = proto.Msgpack
	}
	if codec != p.codec {
		p.t.Fatalf("expected %s frame, got %s", p.codec.Name(), codec.Name())
	}
	frame, err := proto.DecodeFrame(codec, data)
	if err != nil {
		p.t.Fatalf("failed to decode frame: %v", err)
	}
	return frame
}

func (p *peer) expect(msgType proto.Type) proto.Frame {
	p.t.Helper()
	frame := p.read()
	if frame.Type != msgType {
		p.t.Fatalf("expected %s, got %s (%v)", msgType, frame.Type, frame.Payload)
	}
	return frame
}

func TestRelayLobbyAndFanOut(t *testing.T) {
	hub, srv := newRelay(t)

	alice := connect(t, srv, proto.JSON)
	aliceInit := alice.expect(proto.TypeInit)
	aliceID, _ := aliceInit.Payload["playerId"].(string)
	if aliceID == "" {
		t.Fatalf("expected init to carry an id, got %v", aliceInit.Payload)
	}
	info, _ := aliceInit.Payload["playerInfo"].(map[string]any)
	if info["name"] != "Player_1" || info["color"] != Colors[0] {
		t.Fatalf("unexpected default player %v", info)
	}

	bob := connect(t, srv, proto.Msgpack)
	bob.expect(proto.TypeInit)
	joined := alice.expect(proto.TypePlayerJoined)
	if joined.Payload["name"] != "Player_2" || joined.Payload["color"] != Colors[1] {
		t.Fatalf("unexpected join announcement %v", joined.Payload)
	}

	alice.send(proto.Frame{Type: proto.TypeUpdatePosition, Payload: map[string]any{"x": 120.0, "lives": 2, "skin": "gold"}})
	moved := bob.expect(proto.TypePlayerMoved)
	if moved.Payload["id"] != aliceID {
		t.Fatalf("expected playerMoved stamped with %s, got %v", aliceID, moved.Payload["id"])
	}
	if moved.Payload["skin"] != "gold" {
		t.Fatalf("expected unmodelled field forwarded, got %v", moved.Payload)
	}

	alice.send(proto.Frame{Type: proto.TypeBulletFired, Payload: map[string]any{"id": "b1", "x": 1.0}})
	bullet := bob.expect(proto.TypeBulletFired)
	if bullet.Payload["ownerId"] != aliceID {
		t.Fatalf("expected bullet owner %s, got %v", aliceID, bullet.Payload["ownerId"])
	}

	alice.send(proto.Frame{Type: proto.TypeChat, Payload: map[string]any{"message": "gl hf"}})
	// The sender sees its chat next, so nothing it sent earlier was echoed.
	chat := alice.expect(proto.TypeChat)
	if chat.Payload["playerId"] != aliceID || chat.Payload["playerName"] != "Player_1" || chat.Payload["message"] != "gl hf" {
		t.Fatalf("unexpected chat %v", chat.Payload)
	}
	bob.expect(proto.TypeChat)

	players := hub.Players()
	if len(players) != 2 || players[0].X != 120 || players[0].Lives != 2 {
		t.Fatalf("expected roster to track alice's position, got %+v", players)
	}

	bob.send(proto.Frame{Type: proto.TypeSetName, Payload: map[string]any{"name": "Bob"}})
	renamed := alice.expect(proto.TypePlayerUpdated)
	if renamed.Payload["name"] != "Bob" {
		t.Fatalf("expected rename broadcast, got %v", renamed.Payload)
	}
	bob.expect(proto.TypePlayerUpdated)

	bob.send(proto.Frame{Type: proto.TypeStartGame})
	started := alice.expect(proto.TypeGameStarted)
	roster, _ := started.Payload["players"].([]any)
	if len(roster) != 2 {
		t.Fatalf("expected 2 players in gameStarted, got %v", started.Payload)
	}
	bob.expect(proto.TypeGameStarted)
	if !hub.Started() {
		t.Fatalf("expected hub to record the match start")
	}

	bob.conn.Close()
	left := alice.expect(proto.TypePlayerLeft)
	if left.Payload["id"] == aliceID || left.Payload["id"] == "" {
		t.Fatalf("expected bob's id in playerLeft, got %v", left.Payload)
	}
}

func TestRelayResetsWhenEmpty(t *testing.T) {
	hub, srv := newRelay(t)

	first := connect(t, srv, proto.JSON)
	first.expect(proto.TypeInit)
	first.send(proto.Frame{Type: proto.TypeStartGame})
	first.expect(proto.TypeGameStarted)
	first.conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(hub.Players()) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Started() {
		t.Fatalf("expected lobby reset after last player left")
	}

	second := connect(t, srv, proto.JSON)
	greeting := second.expect(proto.TypeInit)
	info, _ := greeting.Payload["playerInfo"].(map[string]any)
	if info["color"] != Colors[0] {
		t.Fatalf("expected colour assignment to restart, got %v", info["color"])
	}
	if greeting.Payload["gameStarted"] != false {
		t.Fatalf("expected gameStarted false, got %v", greeting.Payload["gameStarted"])
	}
}

func TestRelayDropsUndecodableFrames(t *testing.T) {
	hub, srv := newRelay(t)

	client := connect(t, srv, proto.JSON)
	client.expect(proto.TypeInit)
	if err := client.conn.WriteMessage(websocket.TextMessage, []byte("{broken")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	client.send(proto.Frame{Type: proto.TypeChat, Payload: map[string]any{"value": "still here"}})
	chat := client.expect(proto.TypeChat)
	if chat.Payload["message"] != "still here" {
		t.Fatalf("expected scalar chat payload, got %v", chat.Payload)
	}
	if got := hub.Metrics().Load(metricDecodeFailed); got != 1 {
		t.Fatalf("expected 1 decode failure, got %d", got)
	}
}

func TestHealthAndDiagnostics(t *testing.T) {
	_, srv := newRelay(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("expected ok, got %q", body)
	}

	client := connect(t, srv, proto.JSON)
	client.expect(proto.TypeInit)

	resp, err = http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("diagnostics request failed: %v", err)
	}
	defer resp.Body.Close()
	var payload struct {
		Status    string            `json:"status"`
		Players   []proto.Player    `json:"players"`
		Telemetry map[string]uint64 `json:"telemetry"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Status != "ok" || len(payload.Players) != 1 {
		t.Fatalf("unexpected diagnostics %+v", payload)
	}
	if payload.Telemetry[metricConnections] != 1 {
		t.Fatalf("expected 1 connection, got %v", payload.Telemetry)
	}
}

func TestRejectsUnknownCodec(t *testing.T) {
	_, srv := newRelay(t)
	resp, err := http.Get(srv.URL + "/ws?codec=xml")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
