package logging

import (
	"time"

	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

// Config selects sinks and queue sizes for the event router.
type Config struct {
	EnabledSinks     []string
	BufferSize       int
	MinimumSeverity  Severity
	Fields           map[string]any
	JSON             JSONConfig
	Console          ConsoleConfig
	DropWarnInterval time.Duration
	// Metrics receives event, drop and sink failure counts. Nil disables them.
	Metrics telemetry.Metrics
}

// JSONConfig configures the newline-delimited JSON sink.
type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

// ConsoleConfig configures the human-readable console sink.
type ConsoleConfig struct {
	ReportTimestamp bool
	Prefix          string
}

// DefaultConfig returns the router settings used by the match runner.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
		Console: ConsoleConfig{
			ReportTimestamp: true,
			Prefix:          "arena",
		},
	}
}

// HasSink reports whether name is enabled.
func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

// CloneFields returns a copy of the static fields attached to every event.
func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
