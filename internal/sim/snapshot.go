package sim

import (
	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/scoring"
	"github.com/ShangTsung3/battle-city-pro/internal/zone"
)

// CombatantView is the rendered state of one combatant.
type CombatantView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	Control      string  `json:"control"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Angle        float64 `json:"angle"`
	Health       int     `json:"health"`
	MaxHealth    int     `json:"maxHealth"`
	Lives        int     `json:"lives"`
	ShieldTime   int     `json:"shieldTime"`
	PiercingTime int     `json:"piercingTime"`
	BulletLevel  int     `json:"bulletLevel"`
	SpeedLevel   int     `json:"speedLevel"`
	HitFlash     int     `json:"hitFlash"`
	Eliminated   bool    `json:"eliminated"`
	Connected    bool    `json:"connected"`
	Mode         string  `json:"mode,omitempty"`
	Kills        int     `json:"kills"`
	// Bounty marks the current bounty target.
	Bounty bool `json:"bounty,omitempty"`
	// Revenge marks the combatant that last killed the local human.
	Revenge bool `json:"revenge,omitempty"`
}

// Snapshot is a read-only copy of a match after a tick. It shares no memory
// with the engine.
type Snapshot struct {
	Tick          uint64                 `json:"tick"`
	Grid          [][]int                `json:"grid"`
	Combatants    []CombatantView        `json:"combatants"`
	Bullets       []entity.Bullet        `json:"bullets"`
	Items         []entity.Item          `json:"items"`
	Zone          zone.Zone              `json:"zone"`
	Airstrikes    []entity.Airstrike     `json:"airstrikes"`
	SupplyDrops   []entity.SupplyDrop    `json:"supplyDrops"`
	KillFeed      []scoring.FeedEntry    `json:"killFeed"`
	Announcements []scoring.Announcement `json:"announcements"`
	Leaderboard   []scoring.Standing     `json:"leaderboard"`
	Alive         int                    `json:"alive"`
	HumanID       string                 `json:"humanId,omitempty"`
	HumanHealth   int                    `json:"humanHealth"`
	HumanLives    int                    `json:"humanLives"`
	Ended         bool                   `json:"ended"`
	Winner        string                 `json:"winner,omitempty"`
}

// Snapshot copies the current match state for presentation.
func (e *Engine) Snapshot() Snapshot {
	s := e.state
	bounty := s.Ledger.Bounty()
	avenger, _ := s.Ledger.RevengeHolder(s.LocalID)

	snap := Snapshot{
		Tick:          s.Tick,
		Grid:          s.Grid.Matrix(),
		Combatants:    make([]CombatantView, 0, len(s.Combatants)),
		Bullets:       make([]entity.Bullet, 0, len(s.Bullets)),
		Items:         make([]entity.Item, 0, len(s.Items)),
		Zone:          s.Zone,
		Airstrikes:    make([]entity.Airstrike, 0, len(s.Hazards.Airstrikes)),
		SupplyDrops:   make([]entity.SupplyDrop, 0, len(s.Hazards.Drops)),
		KillFeed:      s.Ledger.Feed(),
		Announcements: s.Ledger.Announcements(),
		Leaderboard:   s.Ledger.Leaderboard(s.Contenders()),
		Alive:         s.AliveCount(),
		Ended:         s.Ended,
		Winner:        s.Winner,
	}

	for _, c := range s.Combatants {
		view := CombatantView{
			ID:           c.ID,
			Name:         c.Name,
			Color:        c.Color,
			Control:      c.Control.String(),
			X:            c.X,
			Y:            c.Y,
			Angle:        c.Angle,
			Health:       c.Health,
			MaxHealth:    c.MaxHealth,
			Lives:        c.Lives,
			ShieldTime:   c.ShieldTime,
			PiercingTime: c.PiercingTime,
			BulletLevel:  c.BulletLevel,
			SpeedLevel:   c.SpeedLevel,
			HitFlash:     c.HitFlash,
			Eliminated:   c.Eliminated,
			Connected:    c.Connected,
			Kills:        s.Ledger.Kills(c.ID),
			Bounty:       bounty != "" && c.ID == bounty,
			Revenge:      avenger != "" && c.ID == avenger,
		}
		if c.Control == entity.ControlAgent {
			view.Mode = c.AI.Mode.String()
		}
		snap.Combatants = append(snap.Combatants, view)
	}
	for _, b := range s.Bullets {
		snap.Bullets = append(snap.Bullets, *b)
	}
	for _, item := range s.Items {
		snap.Items = append(snap.Items, *item)
	}
	for _, strike := range s.Hazards.Airstrikes {
		snap.Airstrikes = append(snap.Airstrikes, *strike)
	}
	for _, drop := range s.Hazards.Drops {
		snap.SupplyDrops = append(snap.SupplyDrops, *drop)
	}
	if human := s.Human(); human != nil {
		snap.HumanID = human.ID
		snap.HumanHealth = human.Health
		snap.HumanLives = human.Lives
	}
	return snap
}
