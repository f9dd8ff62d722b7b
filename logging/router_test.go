package logging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
	"github.com/ShangTsung3/battle-city-pro/logging/sinks"
)

func fixedClock() logging.Clock {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return logging.ClockFunc(func() time.Time { return at })
}

func TestNewRouterRequiresSink(t *testing.T) {
	_, err := logging.NewRouter(nil, logging.DefaultConfig(), nil)
	if !errors.Is(err, logging.ErrNoSinks) {
		t.Fatalf("expected ErrNoSinks, got %v", err)
	}
	_, err = logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{{Name: "nil"}})
	if !errors.Is(err, logging.ErrNoSinks) {
		t.Fatalf("nil sink should not count, got %v", err)
	}
}

func TestRouterDeliversAndFilters(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityInfo
	cfg.Fields = map[string]any{"build": "test"}
	memory := sinks.NewMemory()
	router, err := logging.NewRouter(fixedClock(), cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	ctx := context.Background()
	router.Publish(ctx, logging.Event{Type: "debug.only", Severity: logging.SeverityDebug})
	router.Publish(ctx, logging.Event{Type: "kept", Tick: 7, Severity: logging.SeverityInfo})
	router.Publish(ctx, logging.Event{Type: "", Severity: logging.SeverityError})

	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := router.Close(ctx); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Type != "kept" || got.Tick != 7 {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Time.IsZero() {
		t.Fatalf("router should stamp a time")
	}
	if got.Extra["build"] != "test" {
		t.Fatalf("expected router field in extra, got %+v", got.Extra)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected 1 forwarded event, got %+v", stats)
	}
	if router.Sink("memory") != memory {
		t.Fatalf("expected memory sink lookup")
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	memory := sinks.NewMemory()
	router, err := logging.NewRouter(fixedClock(), logging.DefaultConfig(), []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ctx := context.Background()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	router.Publish(ctx, logging.Event{Type: "late", Severity: logging.SeverityError})
	if len(memory.Events()) != 0 {
		t.Fatalf("expected no events after close")
	}
}

type gatedSink struct {
	release chan struct{}
	mu      sync.Mutex
	written int
}

func (s *gatedSink) Write(logging.Event) error {
	<-s.release
	s.mu.Lock()
	s.written++
	s.mu.Unlock()
	return nil
}

func (s *gatedSink) Close(context.Context) error { return nil }

type failingSink struct{}

func (failingSink) Write(logging.Event) error { return errors.New("disk full") }
func (failingSink) Close(context.Context) error { return nil }

func TestRouterCountsDropsIntoMetrics(t *testing.T) {
	counters := telemetry.NewCounters()
	cfg := logging.DefaultConfig()
	cfg.BufferSize = 1
	cfg.Metrics = counters
	sink := &gatedSink{release: make(chan struct{})}
	router, err := logging.NewRouter(fixedClock(), cfg, []logging.NamedSink{{Name: "gated", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	const published = 200
	ctx := context.Background()
	for i := 0; i < published; i++ {
		router.Publish(ctx, logging.Event{Type: "shot", Tick: uint64(i), Severity: logging.SeverityInfo})
	}
	close(sink.release)
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	queueDrops := counters.Load(logging.MetricDroppedTotal)
	sinkDrops := counters.Load(logging.MetricSinkDropped)
	forwarded := counters.Load(logging.MetricEventsTotal)
	if queueDrops+sinkDrops == 0 {
		t.Fatalf("expected drops with a stalled sink, got none")
	}
	if queueDrops+forwarded != published {
		t.Fatalf("expected %d published, got %d dropped + %d forwarded", published, queueDrops, forwarded)
	}
	if uint64(sink.written)+sinkDrops != forwarded {
		t.Fatalf("expected %d forwarded, got %d written + %d sink drops", forwarded, sink.written, sinkDrops)
	}
	if stats := router.Stats(); stats.DroppedTotal != queueDrops || stats.EventsTotal != forwarded {
		t.Fatalf("stats disagree with counters: %+v", stats)
	}
}

func TestRouterCountsSinkFailures(t *testing.T) {
	counters := telemetry.NewCounters()
	cfg := logging.DefaultConfig()
	cfg.Metrics = counters
	router, err := logging.NewRouter(fixedClock(), cfg, []logging.NamedSink{{Name: "broken", Sink: failingSink{}}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ctx := context.Background()
	router.Publish(ctx, logging.Event{Type: "hit", Severity: logging.SeverityInfo})
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := counters.Load(logging.MetricSinkFailures); got != 1 {
		t.Fatalf("expected 1 sink failure, got %d", got)
	}
	if stats := router.Stats(); stats.SinkFailures != 1 {
		t.Fatalf("expected 1 sink failure in stats, got %+v", stats)
	}
}

func TestWithFieldsKeepsEventValues(t *testing.T) {
	memory := sinks.NewMemory()
	pub := logging.WithFields(memory, map[string]any{"seed": "a", "tick_rate": 60})
	pub = logging.WithMatch(pub, "match-1")

	pub.Publish(context.Background(), logging.Event{Type: "x", Extra: map[string]any{"seed": "b"}})

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Extra["seed"] != "b" {
		t.Fatalf("event field should win, got %v", events[0].Extra["seed"])
	}
	if events[0].Extra["tick_rate"] != 60 {
		t.Fatalf("expected decorator field, got %+v", events[0].Extra)
	}
	if events[0].MatchID != "match-1" {
		t.Fatalf("expected match id, got %q", events[0].MatchID)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]logging.Severity{
		"debug":   logging.SeverityDebug,
		"warning": logging.SeverityWarn,
		"error":   logging.SeverityError,
		"":        logging.SeverityInfo,
		"bogus":   logging.SeverityInfo,
	}
	for name, want := range cases {
		if got := logging.ParseSeverity(name); got != want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", name, got, want)
		}
	}
}
