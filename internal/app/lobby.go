package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/relay"
)

const (
	// LobbyTimeout bounds the wait for the relay to start a match.
	LobbyTimeout = 30 * time.Second
	// PresenceWindow is how long a NATS participant announces itself before
	// the roster is frozen.
	PresenceWindow = 3 * time.Second

	lobbyPoll        = 20 * time.Millisecond
	presenceInterval = 500 * time.Millisecond
)

// ErrLobbyTimeout is returned when no match starts within LobbyTimeout.
var ErrLobbyTimeout = errors.New("app: lobby timed out")

// lobby folds roster traffic into the player list a match starts with.
type lobby struct {
	localID string
	players []proto.Player
	started bool
}

func (l *lobby) observe(msg proto.Message) {
	switch m := msg.(type) {
	case proto.Init:
		l.localID = m.PlayerID
		l.players = append([]proto.Player(nil), m.Players...)
		l.started = m.GameStarted
	case proto.PlayerJoined:
		l.upsert(m.Player)
	case proto.PlayerUpdated:
		l.upsert(m.Player)
	case proto.PlayerLeft:
		for i, p := range l.players {
			if p.ID == m.ID {
				l.players = append(l.players[:i], l.players[i+1:]...)
				break
			}
		}
	case proto.GameStarted:
		l.players = append([]proto.Player(nil), m.Players...)
		l.started = true
	}
}

func (l *lobby) upsert(player proto.Player) {
	for i := range l.players {
		if l.players[i].ID == player.ID {
			if player.Name != "" {
				l.players[i].Name = player.Name
			}
			if player.Color != "" {
				l.players[i].Color = player.Color
			}
			return
		}
	}
	l.players = append(l.players, player)
}

// members converts the lobby into roster entries in lobby order.
func (l *lobby) members() []entity.Member {
	members := make([]entity.Member, 0, len(l.players))
	for _, p := range l.players {
		members = append(members, entity.Member{ID: p.ID, Name: p.Name, Color: p.Color})
	}
	return members
}

// awaitRelayStart greets the relay and asks it to start the match, then waits
// for the final roster.
func awaitRelayStart(ctx context.Context, transport netsync.Sender, inbox *netsync.Inbox, name string) (*lobby, error) {
	ctx, cancel := context.WithTimeout(ctx, LobbyTimeout)
	defer cancel()
	ticker := time.NewTicker(lobbyPoll)
	defer ticker.Stop()

	l := &lobby{}
	requested := false
	for {
		for _, msg := range inbox.Drain() {
			if status, ok := msg.(proto.Connectivity); ok && status.State == proto.Disconnected {
				return nil, fmt.Errorf("relay closed the lobby: %s", status.Reason)
			}
			l.observe(msg)
		}
		if l.started && l.localID != "" {
			return l, nil
		}
		if l.localID != "" && !requested {
			if err := transport.Send(proto.SetName{Name: name}); err != nil {
				return nil, fmt.Errorf("announce name: %w", err)
			}
			if err := transport.Send(proto.StartGame{}); err != nil {
				return nil, fmt.Errorf("request start: %w", err)
			}
			requested = true
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLobbyTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// gatherPresence announces the local participant on a shared bus for
// PresenceWindow and freezes the roster ordered by id, so every participant
// derives the same roster.
func gatherPresence(ctx context.Context, transport netsync.Sender, inbox *netsync.Inbox, self proto.Player, window time.Duration) (*lobby, error) {
	deadline := time.NewTimer(window)
	defer deadline.Stop()
	announce := time.NewTicker(presenceInterval)
	defer announce.Stop()

	l := &lobby{localID: self.ID, players: []proto.Player{self}}
	if err := transport.Send(proto.SetName{Name: self.Name}); err != nil {
		return nil, fmt.Errorf("announce presence: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-announce.C:
			if err := transport.Send(proto.SetName{Name: self.Name}); err != nil {
				return nil, fmt.Errorf("announce presence: %w", err)
			}
		case <-deadline.C:
			for _, msg := range inbox.Drain() {
				l.observe(msg)
			}
			sort.SliceStable(l.players, func(i, j int) bool { return l.players[i].ID < l.players[j].ID })
			for i := range l.players {
				l.players[i].Color = relay.Colors[i%len(relay.Colors)]
			}
			l.started = true
			return l, nil
		}
		for _, msg := range inbox.Drain() {
			l.observe(msg)
		}
	}
}
