package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	readLimit    = 1 << 20
)

// HandlerConfig wires the HTTP surface.
type HandlerConfig struct {
	Logger telemetry.Logger
}

// NewHTTPHandler exposes the hub on /ws alongside /health and /diagnostics.
func NewHTTPHandler(hub *Hub, cfg HandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status      string            `json:"status"`
			ServerTime  int64             `json:"serverTime"`
			Uptime      int64             `json:"uptimeMillis"`
			GameStarted bool              `json:"gameStarted"`
			Players     []proto.Player    `json:"players"`
			Telemetry   map[string]uint64 `json:"telemetry"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Uptime:      time.Since(hub.startedAt).Milliseconds(),
			GameStarted: hub.Started(),
			Players:     hub.Players(),
			Telemetry:   hub.Metrics().Snapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		codec, err := proto.CodecByName(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("[relay] upgrade failed: %v", err)
			return
		}

		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		sub, _ := hub.Join(conn, codec)
		done := make(chan struct{})
		go keepAlive(sub, done)
		defer close(done)

		for {
			frameType, data, err := conn.ReadMessage()
			if err != nil {
				hub.Leave(sub.id)
				return
			}
			hub.Handle(sub.id, frameType, data)
		}
	})

	return mux
}

func keepAlive(sub *subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
