// Package app wires configuration, logging, transports and the simulation
// into the two runnable programs: the arena runner and the relay.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ShangTsung3/battle-city-pro/internal/config"
	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/net/natsbus"
	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/net/ws"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/sim"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
)

const shutdownTimeout = 5 * time.Second

// RunArena plays one match as configured and returns once it ends or ctx is
// cancelled. Cancellation is a clean shutdown, not an error.
func RunArena(ctx context.Context, cfg config.Config, logger *charmlog.Logger) error {
	if logger == nil {
		logger = charmlog.Default()
	}
	processLogger := telemetry.WrapLogger(logger)

	metrics := telemetry.NewCounters()
	router, closeRouter, err := newRouter(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		closeRouter(closeCtx)
	}()

	matchID := uuid.NewString()
	publisher := logging.WithMatch(router, matchID)

	roster := entity.RosterConfig{
		LocalName: cfg.PlayerName,
		Agents:    cfg.Agents,
	}
	engineCfg := sim.Config{
		Seed:     cfg.Seed,
		TickRate: cfg.TickRate,
	}

	if cfg.Networked() {
		inbox := netsync.NewInbox(netsync.DefaultInboxCapacity, metrics)
		transport, members, localID, err := connect(ctx, cfg, inbox, publisher, processLogger, metrics)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := transport.Close(); cerr != nil {
				processLogger.Printf("failed to close transport: %v", cerr)
			}
		}()
		roster.LocalID = localID
		roster.Members = members
		engineCfg.Inbox = inbox
		engineCfg.Sender = transport
	}
	engineCfg.Roster = roster

	callbacks := sim.Callbacks{
		OnHumanEliminated: func() { logger.Info("eliminated") },
		OnHumanVictory:    func() { logger.Info("victory") },
		OnHumanLifeLost:   func() { logger.Debug("life lost") },
		OnConnectivity: func(status proto.Connectivity) {
			logger.Warn("connectivity changed", "state", status.State, "reason", status.Reason)
		},
		OnMatchOver: func(winner string) { logger.Info("match over", "winner", winner) },
		OnLobby: func(msg proto.Message) {
			if chat, ok := msg.(proto.Chat); ok {
				logger.Info("chat", "from", chat.PlayerName, "message", chat.Message)
			}
		},
	}
	score := 0
	callbacks.OnHumanScore = func(points int) { score += points }

	engine, err := sim.NewEngine(engineCfg, callbacks, sim.Deps{
		Logger:    processLogger,
		Metrics:   metrics,
		Clock:     logging.SystemClock{},
		Publisher: publisher,
	})
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	var autopilot *sim.Autopilot
	if cfg.Autopilot {
		autopilot = sim.NewAutopilot(cfg.Seed)
	}
	loop := sim.NewLoop(engine, sim.LoopConfig{TickRate: cfg.TickRate}, sim.LoopHooks{
		Prepare: func(e *sim.Engine) {
			if autopilot != nil {
				e.SetInput(autopilot.Next(e.State()))
			}
		},
	})

	logger.Info("match starting", "match", matchID, "seed", cfg.Seed, "combatants", len(engine.State().Combatants), "networked", cfg.Networked())
	runErr := loop.Run(ctx)

	snap := engine.Snapshot()
	logger.Info("match finished",
		"tick", snap.Tick,
		"winner", snap.Winner,
		"alive", snap.Alive,
		"score", score,
		"events", router.Stats().EventsTotal,
	)
	for _, key := range metrics.Keys() {
		logger.Debug("counter", "key", key, "value", metrics.Load(key))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return fmt.Errorf("match loop: %w", runErr)
	}
	return nil
}

// connect opens the configured transport and waits for the roster. The
// websocket relay takes precedence when both are configured.
func connect(ctx context.Context, cfg config.Config, inbox *netsync.Inbox, pub logging.Publisher, logger telemetry.Logger, metrics telemetry.Metrics) (netsync.Transport, []entity.Member, string, error) {
	codec, err := proto.CodecByName(cfg.Codec)
	if err != nil {
		return nil, nil, "", err
	}

	if cfg.RelayURL != "" {
		client, err := ws.Dial(ctx, ws.Config{
			URL:       cfg.RelayURL,
			Codec:     codec,
			Publisher: pub,
			Logger:    logger,
			Metrics:   metrics,
		}, inbox)
		if err != nil {
			return nil, nil, "", fmt.Errorf("connect to relay: %w", err)
		}
		l, err := awaitRelayStart(ctx, client, inbox, cfg.PlayerName)
		if err != nil {
			_ = client.Close()
			return nil, nil, "", err
		}
		logger.Printf("joined match as %s with %d players", l.localID, len(l.players))
		return client, l.members(), l.localID, nil
	}

	id := uuid.NewString()
	bus, err := natsbus.Connect(ctx, natsbus.Config{
		URL:       cfg.NATSURL,
		ID:        id,
		Name:      cfg.PlayerName,
		Codec:     codec,
		Publisher: pub,
		Metrics:   metrics,
	}, inbox)
	if err != nil {
		return nil, nil, "", fmt.Errorf("connect to nats: %w", err)
	}
	l, err := gatherPresence(ctx, bus, inbox, proto.Player{ID: id, Name: cfg.PlayerName}, PresenceWindow)
	if err != nil {
		_ = bus.Close()
		return nil, nil, "", err
	}
	logger.Printf("joined bus match as %s with %d players", id, len(l.players))
	return bus, l.members(), id, nil
}
