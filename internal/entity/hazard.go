package entity

import "github.com/ShangTsung3/battle-city-pro/internal/grid"

const (
	// AirstrikeWarningTicks is the delay between an airstrike appearing and
	// detonating.
	AirstrikeWarningTicks = 480
	// AirstrikeRadius is the blast radius of an airstrike.
	AirstrikeRadius = grid.TileSize * 3.5
	// SupplyFallTicks is the time a supply drop takes to land.
	SupplyFallTicks = 120
)

// Airstrike is a pending area bombardment centred on (X, Y).
type Airstrike struct {
	ID       string
	X        float64
	Y        float64
	Radius   float64
	Timer    int
	MaxTimer int
}

// SupplyDrop is a crate falling toward (X, Y).
type SupplyDrop struct {
	ID      string
	X       float64
	Y       float64
	Timer   int
	Falling bool
}
