package sim

import (
	"context"
	"time"

	"github.com/ShangTsung3/battle-city-pro/logging"
)

const metricTickDuration = "sim_tick_duration_micros"

// LoopConfig tunes the real-time runner.
type LoopConfig struct {
	TickRate int
}

// LoopHooks run on the loop goroutine around each step.
type LoopHooks struct {
	// Prepare runs before each step, typically to feed input.
	Prepare func(e *Engine)
	// AfterStep receives the timing of every completed step.
	AfterStep func(result LoopStepResult)
}

// LoopStepResult describes one executed tick.
type LoopStepResult struct {
	Tick     uint64
	Now      time.Time
	Duration time.Duration
	Budget   time.Duration
	Ended    bool
}

// Loop drives an engine at its fixed rate.
type Loop struct {
	engine  *Engine
	hooks   LoopHooks
	config  LoopConfig
	overrun uint64
}

// NewLoop wraps engine in a fixed-timestep runner.
func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if engine == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = engine.TickRate()
	}
	return &Loop{engine: engine, hooks: hooks, config: cfg}
}

// Advance executes a single step outside the ticker.
func (l *Loop) Advance(ctx context.Context, now time.Time) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	if l.hooks.Prepare != nil {
		l.hooks.Prepare(l.engine)
	}
	l.engine.Step(ctx)
	return LoopStepResult{
		Tick:  l.engine.State().Tick,
		Now:   now,
		Ended: l.engine.Ended(),
	}
}

// Run steps the engine until the match ends or ctx is cancelled. It returns
// nil for a finished match and the context error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	budget := time.Second / time.Duration(l.config.TickRate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	deps := l.engine.deps
	clock := deps.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := clock.Now()
			result := l.Advance(ctx, start)
			result.Duration = clock.Now().Sub(start)
			result.Budget = budget

			if deps.Metrics != nil {
				deps.Metrics.Store(metricTickDuration, uint64(result.Duration.Microseconds()))
			}
			if result.Duration > budget {
				l.reportOverrun(result)
			}
			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
			if result.Ended {
				return nil
			}
		}
	}
}

func (l *Loop) reportOverrun(result LoopStepResult) {
	l.overrun++
	count := l.overrun
	if count&(count-1) != 0 {
		return
	}
	if logger := l.engine.deps.Logger; logger != nil {
		logger.Printf(
			"[loop] tick overran budget tick=%d duration=%s budget=%s count=%d",
			result.Tick,
			result.Duration,
			result.Budget,
			count,
		)
	}
}
