package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/ShangTsung3/battle-city-pro/internal/config"
	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/relay"
	"github.com/ShangTsung3/battle-city-pro/logging/lifecycle"
)

func quietLogger() *charmlog.Logger {
	return charmlog.New(io.Discard)
}

func TestLobbyTracksRoster(t *testing.T) {
	l := &lobby{}
	l.observe(proto.Init{PlayerID: "me", Players: []proto.Player{{ID: "me", Name: "Player_1"}}})
	l.observe(proto.PlayerJoined{Player: proto.Player{ID: "other", Name: "Player_2", Color: "#fff"}})
	l.observe(proto.PlayerUpdated{Player: proto.Player{ID: "me", Name: "Ace"}})
	l.observe(proto.PlayerJoined{Player: proto.Player{ID: "late", Name: "Player_3"}})
	l.observe(proto.PlayerLeft{ID: "late"})

	members := l.members()
	if l.localID != "me" || l.started {
		t.Fatalf("unexpected lobby state %+v", l)
	}
	if len(members) != 2 || members[0].Name != "Ace" || members[1].Color != "#fff" {
		t.Fatalf("unexpected members %+v", members)
	}

	l.observe(proto.GameStarted{Players: []proto.Player{{ID: "other"}, {ID: "me"}}})
	if !l.started || l.members()[0].ID != "other" {
		t.Fatalf("expected started roster from gameStarted, got %+v", l.members())
	}
}

func TestLobbyLateJoinUsesInitRoster(t *testing.T) {
	l := &lobby{}
	l.observe(proto.Init{PlayerID: "me", GameStarted: true, Players: []proto.Player{{ID: "host"}, {ID: "me"}}})
	if !l.started || len(l.members()) != 2 {
		t.Fatalf("expected late join to start with the init roster, got %+v", l)
	}
}

type recordingSender struct {
	sent []proto.Message
}

func (r *recordingSender) Send(msg proto.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestGatherPresenceOrdersById(t *testing.T) {
	inbox := netsync.NewInbox(16, nil)
	inbox.Push(proto.PlayerUpdated{Player: proto.Player{ID: "a-peer", Name: "Peer"}})
	sender := &recordingSender{}

	l, err := gatherPresence(context.Background(), sender, inbox, proto.Player{ID: "m-self", Name: "Self"}, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("gatherPresence returned error: %v", err)
	}
	members := l.members()
	if len(members) != 2 || members[0].ID != "a-peer" || members[1].ID != "m-self" {
		t.Fatalf("expected roster ordered by id, got %+v", members)
	}
	if members[0].Color == "" {
		t.Fatalf("expected colours to be assigned")
	}
	if len(sender.sent) == 0 {
		t.Fatalf("expected presence announcement")
	}
}

func TestAwaitRelayStartFailsOnDisconnect(t *testing.T) {
	inbox := netsync.NewInbox(4, nil)
	inbox.Push(proto.Connectivity{State: proto.Disconnected, Reason: "closed"})

	_, err := awaitRelayStart(context.Background(), &recordingSender{}, inbox, "Ace")
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Fatalf("expected lobby to fail on disconnect, got %v", err)
	}
}

func soloConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = "app-test"
	cfg.Agents = 2
	cfg.TickRate = 240
	cfg.LogJSON = filepath.Join(t.TempDir(), "events.jsonl")
	return cfg
}

func TestRunArenaSoloWritesEventLog(t *testing.T) {
	cfg := soloConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := RunArena(ctx, cfg, quietLogger()); err != nil {
		t.Fatalf("RunArena returned error: %v", err)
	}

	data, err := os.ReadFile(cfg.LogJSON)
	if err != nil {
		t.Fatalf("failed to read event log: %v", err)
	}
	if !strings.Contains(string(data), string(lifecycle.EventMatchStarted)) {
		t.Fatalf("expected match started event in log, got %q", data)
	}
}

func TestRunArenaJoinsRelay(t *testing.T) {
	hub := relay.NewHub(relay.HubConfig{})
	srv := httptest.NewServer(relay.NewHTTPHandler(hub, relay.HandlerConfig{}))
	t.Cleanup(srv.Close)

	cfg := soloConfig(t)
	cfg.RelayURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	cfg.Codec = config.CodecMsgpack
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := RunArena(ctx, cfg, quietLogger()); err != nil {
		t.Fatalf("RunArena returned error: %v", err)
	}
	if hub.Metrics().Load("relay_joined_total") != 1 {
		t.Fatalf("expected one relay connection")
	}
	// setName and startGame are handled before gameStarted comes back.
	if got := hub.Metrics().Load("relay_frames_in_total"); got < 2 {
		t.Fatalf("expected lobby and match traffic, got %d frames", got)
	}
}

func TestServeRelayHealth(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeRelay(ctx, listener, config.Default(), quietLogger())
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("relay did not shut down")
	}
}
