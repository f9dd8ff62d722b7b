package telemetry

import (
	"bytes"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := charmlog.New(&buf)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); !strings.Contains(got, "hello world") {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestCounters(t *testing.T) {
	counters := NewCounters()

	counters.Add("ticks", 2)
	counters.Store("ticks", 5)
	counters.Add("ticks", 3)
	counters.Add("drops", 1)

	snapshot := counters.Snapshot()
	if got := snapshot["ticks"]; got != 8 {
		t.Fatalf("unexpected metric value: %d", got)
	}
	if got := counters.Load("missing"); got != 0 {
		t.Fatalf("expected zero for unset key, got %d", got)
	}
	keys := counters.Keys()
	if len(keys) != 2 || keys[0] != "drops" || keys[1] != "ticks" {
		t.Fatalf("unexpected keys %v", keys)
	}

	// Nil counters do not panic.
	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	nilCounters.Store("ignored", 1)
	NopMetrics().Add("ignored", 1)
}
