package netsync

import (
	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/state"
)

// Effect reports what an inbound message did.
type Effect int

const (
	// Ignored means the message referenced nothing this match mirrors.
	Ignored Effect = iota
	// Mirrored means replicated state was written into the match.
	Mirrored
	// Forwarded means the message is lobby or link traffic for the app.
	Forwarded
)

func (e Effect) String() string {
	switch e {
	case Mirrored:
		return "mirrored"
	case Forwarded:
		return "forwarded"
	default:
		return "ignored"
	}
}

// Apply writes one inbound message into s. It never validates value ranges
// and never runs side effects: replicated tile changes spawn no items and
// replicated deaths touch no scores.
func Apply(s *state.State, msg proto.Message) Effect {
	switch m := msg.(type) {
	case proto.PlayerMoved:
		c := live(s, m.ID)
		if c == nil {
			return Ignored
		}
		applyPosition(c, m.PositionFields)
		c.Connected = true
		return Mirrored
	case proto.BulletFired:
		if m.OwnerID == "" || m.OwnerID == s.LocalID {
			return Ignored
		}
		s.Bullets = append(s.Bullets, &entity.Bullet{
			ID:       m.ID,
			OwnerID:  m.OwnerID,
			X:        m.X,
			Y:        m.Y,
			Angle:    m.Angle,
			Speed:    m.Speed,
			Piercing: m.IsPiercing,
		})
		return Mirrored
	case proto.TileDestroyed:
		kind := grid.Kind(m.Tile)
		if !kind.Valid() || !s.Grid.Set(m.Row, m.Col, kind) {
			return Ignored
		}
		return Mirrored
	case proto.PlayerDeath:
		c := live(s, m.PlayerID)
		if c == nil {
			return Ignored
		}
		c.Lives = m.Lives
		if m.IsEliminated {
			c.Eliminated = true
		}
		return Mirrored
	case proto.PlayerUpdated:
		c := remote(s, m.ID)
		if c == nil {
			return Forwarded
		}
		if m.Name != "" {
			c.Name = m.Name
		}
		if m.Color != "" {
			c.Color = m.Color
		}
		return Mirrored
	case proto.PlayerLeft:
		c := remote(s, m.ID)
		if c == nil {
			return Ignored
		}
		c.Connected = false
		return Mirrored
	case proto.ItemSpawned:
		for _, item := range s.Items {
			if item.ID == m.ID {
				return Ignored
			}
		}
		s.AddItem(&entity.Item{ID: m.ID, X: m.X, Y: m.Y, Kind: entity.ItemKind(m.Kind), Life: entity.CrateItemLife})
		return Mirrored
	case proto.ItemPickup:
		if !s.RemoveItem(m.ID) {
			return Ignored
		}
		return Mirrored
	case proto.Init, proto.PlayerJoined, proto.GameStarted, proto.Chat, proto.Connectivity:
		return Forwarded
	default:
		return Ignored
	}
}

// remote resolves id to a combatant mirrored from the network.
func remote(s *state.State, id string) *entity.Combatant {
	c, ok := s.Combatant(id)
	if !ok || c.Control != entity.ControlRemote {
		return nil
	}
	return c
}

// live is remote restricted to combatants that are still in the match.
// Elimination is terminal, so later updates for a fallen peer are stale.
func live(s *state.State, id string) *entity.Combatant {
	c := remote(s, id)
	if c == nil || c.Eliminated {
		return nil
	}
	return c
}

func applyPosition(c *entity.Combatant, f proto.PositionFields) {
	if f.X != nil {
		c.X = *f.X
	}
	if f.Y != nil {
		c.Y = *f.Y
	}
	if f.Angle != nil {
		c.Angle = *f.Angle
	}
	if f.Health != nil {
		c.Health = *f.Health
	}
	if f.Lives != nil {
		c.Lives = *f.Lives
	}
	if f.IsEliminated != nil && *f.IsEliminated {
		c.Eliminated = true
	}
	if f.ShieldTime != nil {
		c.ShieldTime = *f.ShieldTime
	}
	if f.BulletLevel != nil {
		c.BulletLevel = *f.BulletLevel
	}
	if f.PiercingTime != nil {
		c.PiercingTime = *f.PiercingTime
	}
}

// Position captures every replicated field of c.
func Position(c *entity.Combatant) proto.PositionFields {
	return proto.PositionFields{
		X:            proto.Ptr(c.X),
		Y:            proto.Ptr(c.Y),
		Angle:        proto.Ptr(c.Angle),
		Health:       proto.Ptr(c.Health),
		Lives:        proto.Ptr(c.Lives),
		IsEliminated: proto.Ptr(c.Eliminated),
		ShieldTime:   proto.Ptr(c.ShieldTime),
		BulletLevel:  proto.Ptr(c.BulletLevel),
		PiercingTime: proto.Ptr(c.PiercingTime),
	}
}
