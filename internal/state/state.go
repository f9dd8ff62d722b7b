// Package state holds the single aggregate mutated by one simulation tick.
package state

import (
	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/hazard"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
	"github.com/ShangTsung3/battle-city-pro/internal/zone"
)

// State is owned by the simulation goroutine. Nothing in it is safe for
// concurrent access.
type State struct {
	Tick       uint64
	Grid       *grid.Grid
	Combatants []*entity.Combatant
	Bullets    []*entity.Bullet
	Items      []*entity.Item
	Zone       zone.Zone
	Hazards    hazard.Scheduler
	Ledger     *scoring.Ledger

	// LocalID identifies the human combatant, if any.
	LocalID string
	Ended   bool
	Winner  string

	index map[string]*entity.Combatant
}

// New builds the aggregate for a match. Roster order is preserved and used
// for every tie-break.
func New(g *grid.Grid, combatants []*entity.Combatant, localID string, hazards hazard.Scheduler) *State {
	ids := make([]string, 0, len(combatants))
	index := make(map[string]*entity.Combatant, len(combatants))
	for _, c := range combatants {
		ids = append(ids, c.ID)
		index[c.ID] = c
	}
	return &State{
		Grid:       g,
		Combatants: combatants,
		Zone:       zone.New(),
		Hazards:    hazards,
		Ledger:     scoring.NewLedger(ids),
		LocalID:    localID,
		index:      index,
	}
}

// Combatant resolves an identity against the roster.
func (s *State) Combatant(id string) (*entity.Combatant, bool) {
	if s == nil || id == "" {
		return nil, false
	}
	c, ok := s.index[id]
	return c, ok
}

// Human returns the local human combatant, or nil for headless matches.
func (s *State) Human() *entity.Combatant {
	c, ok := s.Combatant(s.LocalID)
	if !ok || !c.Human() {
		return nil
	}
	return c
}

// Alive returns the non-eliminated combatants in roster order.
func (s *State) Alive() []*entity.Combatant {
	alive := make([]*entity.Combatant, 0, len(s.Combatants))
	for _, c := range s.Combatants {
		if c.Alive() {
			alive = append(alive, c)
		}
	}
	return alive
}

func (s *State) AliveCount() int {
	count := 0
	for _, c := range s.Combatants {
		if c.Alive() {
			count++
		}
	}
	return count
}

// Contenders lists the roster for leaderboard derivation.
func (s *State) Contenders() []scoring.Contender {
	contenders := make([]scoring.Contender, 0, len(s.Combatants))
	for _, c := range s.Combatants {
		contenders = append(contenders, scoring.Contender{ID: c.ID, Name: c.Name, Eliminated: c.Eliminated})
	}
	return contenders
}

// AddItem places a pickup in the arena.
func (s *State) AddItem(item *entity.Item) {
	if item == nil {
		return
	}
	s.Items = append(s.Items, item)
}

// RemoveItem drops the item with the given id and reports whether it existed.
func (s *State) RemoveItem(id string) bool {
	for i, item := range s.Items {
		if item.ID == id {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return true
		}
	}
	return false
}

// CollectItems applies and removes every item within reach of c, returning
// the collected items in arena order.
func (s *State) CollectItems(c *entity.Combatant) []*entity.Item {
	if !c.Alive() || len(s.Items) == 0 {
		return nil
	}
	var collected []*entity.Item
	remaining := s.Items[:0]
	for _, item := range s.Items {
		if item.InReach(c) {
			item.ApplyTo(c)
			collected = append(collected, item)
			continue
		}
		remaining = append(remaining, item)
	}
	clearTail(s.Items, len(remaining))
	s.Items = remaining
	return collected
}

// AgeItems counts down item lifetimes and discards expired ones.
func (s *State) AgeItems() {
	remaining := s.Items[:0]
	for _, item := range s.Items {
		item.Life--
		if item.Life > 0 {
			remaining = append(remaining, item)
		}
	}
	clearTail(s.Items, len(remaining))
	s.Items = remaining
}

func clearTail(items []*entity.Item, keep int) {
	for i := keep; i < len(items); i++ {
		items[i] = nil
	}
}
