package sim

import (
	"math"
	"math/rand"

	"github.com/ShangTsung3/battle-city-pro/internal/ai"
	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/state"
)

const (
	// HumanSpeed is the per-tick movement of the human tank.
	HumanSpeed = 0.4
	// HumanBoost multiplies HumanSpeed once the speed upgrade is held.
	HumanBoost = 1.3
)

// MoveHuman applies one tick of held controls. Only one direction is honoured,
// in the order up, down, left, right, and each axis is checked separately
// against the grid.
func MoveHuman(c *entity.Combatant, g *grid.Grid, in Input) {
	speed := HumanSpeed
	if c.SpeedLevel > 1 {
		speed *= HumanBoost
	}

	var dx, dy float64
	switch {
	case in.Up:
		dy = -speed
		c.Angle = -math.Pi / 2
	case in.Down:
		dy = speed
		c.Angle = math.Pi / 2
	case in.Left:
		dx = -speed
		c.Angle = math.Pi
	case in.Right:
		dx = speed
		c.Angle = 0
	}

	if dx != 0 && !g.QueryBox(c.X+dx, c.Y, entity.BodyCollisionSize).Obstructed() {
		c.X += dx
	}
	if dy != 0 && !g.QueryBox(c.X, c.Y+dy, entity.BodyCollisionSize).Obstructed() {
		c.Y += dy
	}
	c.X, c.Y = grid.ClampToArena(c.X, c.Y)
}

const (
	autopilotAlign     = grid.TileSize * 0.5
	autopilotWanderMin = 60
	autopilotWanderMax = 180
)

// Autopilot drives the human slot for headless matches. It only produces
// Input, so the human follows exactly the rules a player would.
type Autopilot struct {
	rng     *rand.Rand
	heading Input
	timer   int
	lastX   float64
	lastY   float64
}

// NewAutopilot returns an autopilot drawing from its own random stream.
func NewAutopilot(seed string) *Autopilot {
	return &Autopilot{rng: rng.New(seed, "autopilot")}
}

// Next decides the controls for the coming tick.
func (a *Autopilot) Next(s *state.State) Input {
	human := s.Human()
	if human == nil || !human.Alive() {
		return Input{}
	}
	stuck := human.X == a.lastX && human.Y == a.lastY
	a.lastX, a.lastY = human.X, human.Y

	cx, cy := human.Center()
	if s.Zone.DistanceFromCenter(human) > s.Zone.Radius*ai.ZoneEdgeRatio {
		return toward(cx, cy, s.Zone.CenterX, s.Zone.CenterY)
	}

	if target, ok := ai.AcquireTarget(human, s.Combatants); ok {
		tx, ty := target.Center()
		dx, dy := tx-cx, ty-cy
		// Line up on the nearer axis, then face the target along the other.
		if math.Abs(dx) < autopilotAlign || math.Abs(dy) < autopilotAlign {
			in := toward(cx, cy, tx, ty)
			in.Fire = true
			return in
		}
		if math.Abs(dx) < math.Abs(dy) {
			return toward(cx, cy, tx, cy)
		}
		return toward(cx, cy, cx, ty)
	}

	a.timer--
	if a.timer <= 0 || stuck {
		a.heading = []Input{{Up: true}, {Down: true}, {Left: true}, {Right: true}}[rng.Intn(a.rng, 4)]
		a.timer = autopilotWanderMin + rng.Intn(a.rng, autopilotWanderMax-autopilotWanderMin)
	}
	return a.heading
}

// toward returns the single direction that closes the larger gap to (tx, ty).
func toward(x, y, tx, ty float64) Input {
	dx, dy := tx-x, ty-y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx < 0 {
			return Input{Left: true}
		}
		return Input{Right: true}
	}
	if dy < 0 {
		return Input{Up: true}
	}
	return Input{Down: true}
}
