// Package sim advances a match. Engine owns the state aggregate and runs
// every component in a fixed order once per tick; Loop drives it in real
// time.
package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ShangTsung3/battle-city-pro/internal/ai"
	"github.com/ShangTsung3/battle-city-pro/internal/combat"
	"github.com/ShangTsung3/battle-city-pro/internal/entity"
	"github.com/ShangTsung3/battle-city-pro/internal/grid"
	"github.com/ShangTsung3/battle-city-pro/internal/hazard"
	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/state"
	"github.com/ShangTsung3/battle-city-pro/logging"
	hazardlog "github.com/ShangTsung3/battle-city-pro/logging/hazards"
	"github.com/ShangTsung3/battle-city-pro/logging/lifecycle"
	netlog "github.com/ShangTsung3/battle-city-pro/logging/network"
)

const (
	// DefaultTickRate is the simulation rate in ticks per second.
	DefaultTickRate = 60
	// HealthReportInterval is the number of ticks between health callbacks.
	HealthReportInterval = 15

	// End reasons recorded on the match-ended event.
	EndHumanEliminated = "human_eliminated"
	EndHumanVictory    = "human_victory"
	EndLastStanding    = "last_standing"

	metricTicks   = "sim_ticks_total"
	metricBullets = "sim_bullets_in_flight"
	metricAlive   = "sim_alive_combatants"
)

// Input is the set of controls held by the local human this tick.
type Input struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
	Fire  bool
}

// Callbacks notify the presentation layer. Every callback is optional and
// runs on the simulation goroutine.
type Callbacks struct {
	OnHumanEliminated func()
	OnHumanVictory    func()
	OnHumanScore      func(points int)
	OnHumanLifeLost   func()
	OnHumanHealth     func(health int)
	OnConnectivity    func(status proto.Connectivity)
	// OnMatchOver reports the winner of a match without a local human. The
	// winner is empty when nobody is left.
	OnMatchOver func(winner string)
	// OnLobby receives roster and chat traffic that does not touch the match.
	OnLobby func(msg proto.Message)
}

// Config describes a match.
type Config struct {
	Seed     string
	TickRate int
	// Grid is the arena layout. A nil grid is generated from Seed.
	Grid   *grid.Grid
	Roster entity.RosterConfig
	// Timing overrides the hazard cadence when non-nil.
	Timing *hazard.Timing
	// Inbox delivers replicated messages. Nil for solo matches.
	Inbox *netsync.Inbox
	// Sender publishes the local human's changes. Nil for solo matches.
	Sender netsync.Sender
}

// Engine owns the simulation state. It is not safe for concurrent use.
type Engine struct {
	state     *state.State
	resolver  *combat.Resolver
	inbox     *netsync.Inbox
	outbox    *netsync.Outbox
	callbacks Callbacks
	deps      Deps
	input     Input
	seed      string
	tickRate  int
	networked bool

	agentRNG  *rand.Rand
	zoneRNG   *rand.Rand
	hazardRNG *rand.Rand
}

// NewEngine builds the roster, arena and subsystems for a match.
func NewEngine(cfg Config, callbacks Callbacks, deps Deps) (*Engine, error) {
	seed := cfg.Seed
	if seed == "" {
		seed = rng.DefaultSeed
	}
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}

	g := cfg.Grid
	if g == nil {
		g = grid.Generate(rng.New(seed, rng.LabelLayout), grid.DefaultGenerateConfig())
	} else if g.Size() != grid.Size {
		return nil, fmt.Errorf("sim: arena is %d cells wide, want %d: %w", g.Size(), grid.Size, grid.ErrDimensions)
	}

	combatants := entity.NewRoster(cfg.Roster, rng.New(seed, rng.LabelRoster))
	localID := ""
	humans := 0
	for _, c := range combatants {
		if c.Control == entity.ControlHuman {
			if localID == "" {
				localID = c.ID
			}
			humans++
		}
	}

	timing := hazard.DefaultTiming()
	if cfg.Timing != nil {
		timing = *cfg.Timing
	}
	hazardRNG := rng.New(seed, rng.LabelHazards)
	hazards := hazard.NewScheduler(hazardRNG, timing)

	e := &Engine{
		state:     state.New(g, combatants, localID, hazards),
		resolver:  combat.NewResolver(tickRate, rng.New(seed, rng.LabelCombat), deps.Publisher),
		inbox:     cfg.Inbox,
		outbox:    netsync.NewOutbox(cfg.Sender, tickRate, deps.Publisher, deps.Metrics),
		callbacks: callbacks,
		deps:      deps,
		seed:      seed,
		tickRate:  tickRate,
		networked: len(cfg.Roster.Members) > 0,
		agentRNG:  rng.New(seed, rng.LabelAgents),
		zoneRNG:   rng.New(seed, rng.LabelZone),
		hazardRNG: hazardRNG,
	}
	e.resolver.Hooks = combat.Hooks{
		OnFire:          e.onFire,
		OnTileDestroyed: e.onTileDestroyed,
		OnLifeLost:      e.onLifeLost,
		OnScore:         e.score,
	}

	lifecycle.MatchStarted(context.Background(), deps.Publisher, 0, lifecycle.MatchStartedPayload{
		Seed:       seed,
		Combatants: len(combatants),
		Humans:     humans,
		Networked:  e.networked,
		Bricks:     g.Count(grid.Brick),
		Crates:     g.Count(grid.Crate),
	}, nil)
	return e, nil
}

// State exposes the aggregate to code running on the simulation goroutine.
func (e *Engine) State() *state.State {
	return e.state
}

// TickRate reports the configured simulation rate.
func (e *Engine) TickRate() int {
	return e.tickRate
}

// SetInput replaces the held controls for the following ticks.
func (e *Engine) SetInput(in Input) {
	e.input = in
}

// Ended reports whether the match is over.
func (e *Engine) Ended() bool {
	return e.state.Ended
}

// Step advances the match by one tick.
func (e *Engine) Step(ctx context.Context) {
	s := e.state
	if s.Ended {
		return
	}
	s.Tick++

	e.drainInbox(ctx)
	if e.checkEnd(ctx) {
		return
	}

	for _, c := range s.Combatants {
		if c.HitFlash > 0 {
			c.HitFlash--
		}
	}

	human := s.Human()
	if human != nil && human.Alive() {
		e.stepHuman(ctx, human)
	}
	s.AgeItems()

	for _, c := range s.Combatants {
		if c.Control != entity.ControlAgent || !c.Alive() {
			continue
		}
		c.TickBuffs()
		decision := ai.Step(c, s.Combatants, s.Grid, s.Zone, e.agentRNG)
		if decision.Fire {
			e.resolver.Fire(ctx, s, c)
		}
		for _, item := range s.CollectItems(c) {
			lifecycle.ItemCollected(ctx, e.deps.Publisher, s.Tick, combat.EntityRef(c), lifecycle.ItemPayload{ItemID: item.ID, Kind: string(item.Kind)}, nil)
		}
	}

	e.stepZone(ctx)
	e.stepHazards(ctx)
	e.resolver.AdvanceBullets(ctx, s)
	s.Ledger.Expire(s.Tick)

	if human != nil {
		e.outbox.Position(ctx, s.Tick, human)
		if s.Tick%HealthReportInterval == 0 && e.callbacks.OnHumanHealth != nil {
			e.callbacks.OnHumanHealth(human.Health)
		}
	}

	if e.deps.Metrics != nil {
		e.deps.Metrics.Add(metricTicks, 1)
		e.deps.Metrics.Store(metricBullets, uint64(len(s.Bullets)))
		e.deps.Metrics.Store(metricAlive, uint64(s.AliveCount()))
	}
}

func (e *Engine) drainInbox(ctx context.Context) {
	if e.inbox == nil {
		return
	}
	s := e.state
	if dropped := e.inbox.TakeDropped(); dropped > 0 {
		netlog.InboundDropped(ctx, e.deps.Publisher, s.Tick, netlog.DropPayload{Reason: "inbox full", Count: int(dropped)}, nil)
	}
	for _, msg := range e.inbox.Drain() {
		switch netsync.Apply(s, msg) {
		case netsync.Forwarded:
			e.forward(msg)
		case netsync.Mirrored:
			if left, ok := msg.(proto.PlayerLeft); ok {
				c, _ := s.Combatant(left.ID)
				lifecycle.RosterChanged(ctx, e.deps.Publisher, s.Tick, combat.EntityRef(c), lifecycle.RosterPayload{Change: "left", Name: c.Name}, nil)
			}
		}
	}
}

func (e *Engine) forward(msg proto.Message) {
	if status, ok := msg.(proto.Connectivity); ok {
		if e.callbacks.OnConnectivity != nil {
			e.callbacks.OnConnectivity(status)
		}
		return
	}
	if e.callbacks.OnLobby != nil {
		e.callbacks.OnLobby(msg)
	}
}

// checkEnd decides the match before anything moves. It reports whether the
// match is over.
func (e *Engine) checkEnd(ctx context.Context) bool {
	s := e.state
	alive := s.Alive()
	human := s.Human()

	reason := ""
	winner := ""
	switch {
	case human != nil && human.Eliminated:
		reason = EndHumanEliminated
		if len(alive) == 1 {
			winner = alive[0].ID
		}
	case human != nil && len(alive) == 1 && alive[0] == human:
		reason = EndHumanVictory
		winner = human.ID
	case human == nil && len(alive) <= 1:
		reason = EndLastStanding
		if len(alive) == 1 {
			winner = alive[0].ID
		}
	default:
		return false
	}

	s.Ended = true
	s.Winner = winner
	lifecycle.MatchEnded(ctx, e.deps.Publisher, s.Tick, lifecycle.MatchEndedPayload{Winner: winner, Reason: reason, Ticks: s.Tick}, nil)

	switch reason {
	case EndHumanEliminated:
		if e.callbacks.OnHumanEliminated != nil {
			e.callbacks.OnHumanEliminated()
		}
	case EndHumanVictory:
		if e.callbacks.OnHumanVictory != nil {
			e.callbacks.OnHumanVictory()
		}
	default:
		if e.callbacks.OnMatchOver != nil {
			e.callbacks.OnMatchOver(winner)
		}
	}
	return true
}

func (e *Engine) stepHuman(ctx context.Context, human *entity.Combatant) {
	s := e.state
	MoveHuman(human, s.Grid, e.input)
	if e.input.Fire {
		e.resolver.Fire(ctx, s, human)
	}
	human.TickBuffs()
	for _, item := range s.CollectItems(human) {
		lifecycle.ItemCollected(ctx, e.deps.Publisher, s.Tick, combat.EntityRef(human), lifecycle.ItemPayload{ItemID: item.ID, Kind: string(item.Kind)}, nil)
		e.score(entity.PickupScore)
	}
}

func (e *Engine) stepZone(ctx context.Context) {
	s := e.state
	result := s.Zone.Step(e.zoneRNG, s.Combatants)
	if result.Transition != nil {
		hazardlog.ZonePhase(ctx, e.deps.Publisher, s.Tick, hazardlog.ZonePhasePayload{
			From:         result.Transition.From.String(),
			To:           result.Transition.To.String(),
			Cycle:        s.Zone.Cycle,
			Radius:       s.Zone.Radius,
			TargetRadius: s.Zone.TargetRadius,
		}, nil)
	}
	for _, damage := range result.Damage {
		e.resolver.ApplyDamage(ctx, s, damage)
	}
}

func (e *Engine) stepHazards(ctx context.Context) {
	s := e.state
	result := s.Hazards.Step(e.hazardRNG, s.Zone, s.Combatants)
	pub := e.deps.Publisher
	for _, strike := range result.Armed {
		hazardlog.AirstrikeArmed(ctx, pub, s.Tick, hazardRef(strike.ID), hazardlog.AirstrikePayload{X: strike.X, Y: strike.Y, Radius: strike.Radius}, nil)
	}
	for _, strike := range result.Detonated {
		victims := 0
		for _, damage := range result.Damage {
			if c, ok := s.Combatant(damage.TargetID); ok && c.CenterDistance(strike.X, strike.Y) < strike.Radius {
				victims++
			}
		}
		hazardlog.AirstrikeDetonated(ctx, pub, s.Tick, hazardRef(strike.ID), hazardlog.AirstrikePayload{X: strike.X, Y: strike.Y, Radius: strike.Radius, Victims: victims}, nil)
	}
	for _, drop := range result.Dropped {
		hazardlog.SupplyDropped(ctx, pub, s.Tick, hazardRef(drop.ID), hazardlog.SupplyPayload{X: drop.X, Y: drop.Y}, nil)
	}
	for _, damage := range result.Damage {
		e.resolver.ApplyDamage(ctx, s, damage)
	}
	for i, item := range result.Items {
		s.AddItem(item)
		if i < len(result.Landed) {
			drop := result.Landed[i]
			hazardlog.SupplyLanded(ctx, pub, s.Tick, hazardRef(drop.ID), hazardlog.SupplyPayload{X: drop.X, Y: drop.Y, Item: string(item.Kind)}, nil)
		}
	}
}

func hazardRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindHazard}
}

func (e *Engine) isLocalHuman(c *entity.Combatant) bool {
	return c != nil && c.Control == entity.ControlHuman && c.ID == e.state.LocalID
}

func (e *Engine) onFire(bullet *entity.Bullet, owner *entity.Combatant) {
	if e.isLocalHuman(owner) {
		e.outbox.BulletFired(context.Background(), e.state.Tick, bullet)
	}
}

func (e *Engine) onTileDestroyed(cell grid.Cell, kind grid.Kind, owner *entity.Combatant) {
	if e.isLocalHuman(owner) {
		e.outbox.TileDestroyed(context.Background(), e.state.Tick, cell, kind)
	}
}

func (e *Engine) onLifeLost(victim *entity.Combatant) {
	if !e.isLocalHuman(victim) {
		return
	}
	e.outbox.PlayerDeath(context.Background(), e.state.Tick, victim)
	if e.callbacks.OnHumanLifeLost != nil {
		e.callbacks.OnHumanLifeLost()
	}
}

func (e *Engine) score(points int) {
	if e.callbacks.OnHumanScore != nil {
		e.callbacks.OnHumanScore(points)
	}
}
