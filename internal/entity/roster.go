package entity

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
)

// LocalSoloID identifies the human in a match without a relay.
const LocalSoloID = "player"

// Preset is a selectable tank chassis.
type Preset struct {
	Name   string
	Color  string
	Health int
}

// Presets lists the tank chassis in selection order.
var Presets = []Preset{
	{Name: "ST-1 BALANCED", Color: "#cc8400", Health: 5},
	{Name: "HV-7 HEAVY", Color: "#b91c1c", Health: 8},
	{Name: "LT-3 SCOUT", Color: "#15803d", Health: 3},
	{Name: "SN-5 SNIPER", Color: "#1d4ed8", Health: 4},
	{Name: "VT-X ELITE", Color: "#7e22ce", Health: 6},
}

// PresetAt returns the preset at index, falling back to the first one.
func PresetAt(index int) Preset {
	if index < 0 || index >= len(Presets) {
		return Presets[0]
	}
	return Presets[index]
}

// AgentNames supplies display names for autonomous agents.
var AgentNames = []string{
	"Tank_Destroyer", "Iron_Viper", "Steel_Titan", "Panzer_Fury", "Alpha_Unit",
	"Ghost_Driver", "Heavy_Gunner", "Red_Baron", "Desert_Fox", "Cobra_Commander",
	"Night_Stalker", "War_Machine", "Metal_Jacket", "T-800", "Abrams_A1",
}

var agentColors = []string{
	"#ef4444", "#f97316", "#eab308", "#84cc16", "#22c55e", "#14b8a6",
	"#06b6d4", "#0ea5e9", "#3b82f6", "#6366f1", "#8b5cf6", "#a855f7",
	"#d946ef", "#ec4899", "#f43f5e", "#78716c",
}

// Member is a networked participant handed over by the relay.
type Member struct {
	ID    string
	Name  string
	Color string
}

// RosterConfig describes who takes part in a match.
type RosterConfig struct {
	LocalID     string
	LocalName   string
	PresetIndex int
	// Members is the networked roster. Empty means a solo match.
	Members []Member
	// Agents caps the autonomous fill; negative fills up to MaxCombatants.
	Agents int
}

// NewRoster creates the combatants of a match in roster order.
func NewRoster(cfg RosterConfig, r *rand.Rand) []*Combatant {
	preset := PresetAt(cfg.PresetIndex)
	combatants := make([]*Combatant, 0, MaxCombatants)

	if len(cfg.Members) == 0 {
		id := cfg.LocalID
		if id == "" {
			id = LocalSoloID
		}
		name := cfg.LocalName
		if name == "" {
			name = "PLAYER"
		}
		human := newCombatant(id, name, preset.Color, preset, ControlHuman)
		human.X, human.Y = grid.SpawnCells[0].Origin()
		human.ShieldTime = SoloHumanShieldTicks
		combatants = append(combatants, human)
	} else {
		for i, member := range cfg.Members {
			if len(combatants) == MaxCombatants {
				break
			}
			// Remote chassis choices are not shared, so remotes use the baseline.
			control := ControlRemote
			color := member.Color
			chassis := Presets[0]
			if member.ID == cfg.LocalID {
				control = ControlHuman
				color = preset.Color
				chassis = preset
			}
			c := newCombatant(member.ID, member.Name, color, chassis, control)
			c.X, c.Y = grid.SpawnCells[i%len(grid.SpawnCells)].Origin()
			combatants = append(combatants, c)
		}
	}

	fill := MaxCombatants - len(combatants)
	if cfg.Agents >= 0 && cfg.Agents < fill {
		fill = cfg.Agents
	}
	solo := len(cfg.Members) == 0
	for i := 0; i < fill; i++ {
		slot := len(combatants)
		index := i
		if solo {
			index = i + 1
		}
		agentPreset := Presets[rng.Intn(r, len(Presets))]
		name := fmt.Sprintf("AI_%d", i+1)
		if i < len(AgentNames) {
			name = AgentNames[i]
		}
		c := newCombatant(fmt.Sprintf("ai_%d", index), name, agentColors[index%len(agentColors)], agentPreset, ControlAgent)
		x, y := grid.SpawnCells[slot%len(grid.SpawnCells)].Origin()
		c.X = x + (rng.Float(r)-0.5)*grid.TileSize*0.5
		c.Y = y + (rng.Float(r)-0.5)*grid.TileSize*0.5
		c.Angle = rng.Angle(r)
		c.AI = Blackboard{
			Mode:        ModePatrolling,
			Timer:       rng.Float(r) * 60,
			TargetAngle: rng.Angle(r),
		}
		combatants = append(combatants, c)
	}
	return combatants
}

func newCombatant(id, name, color string, preset Preset, control Control) *Combatant {
	return &Combatant{
		ID:          id,
		Name:        name,
		Color:       color,
		Preset:      preset.Name,
		Control:     control,
		Angle:       math.Pi / 2,
		Health:      preset.Health,
		MaxHealth:   preset.Health,
		Lives:       StartingLives,
		ShieldTime:  RespawnShieldTicks,
		BulletLevel: 1,
		SpeedLevel:  1,
		Connected:   true,
		AI:          Blackboard{Mode: ModePatrolling, TargetAngle: math.Pi / 2},
	}
}
