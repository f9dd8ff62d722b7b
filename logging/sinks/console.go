package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/ShangTsung3/battle-city-pro/logging"
)

// Console renders events as leveled, key-value lines.
type Console struct {
	logger *charmlog.Logger
}

// NewConsole constructs a console sink writing to w.
func NewConsole(w io.Writer, cfg logging.ConsoleConfig) *Console {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: cfg.ReportTimestamp,
		Prefix:          cfg.Prefix,
		Level:           charmlog.DebugLevel,
	})
	return &Console{logger: logger}
}

// NewConsoleWithLogger wraps an existing logger, letting the process logger
// and the event stream share one output.
func NewConsoleWithLogger(logger *charmlog.Logger) *Console {
	return &Console{logger: logger}
}

func (s *Console) Write(event logging.Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	keyvals := []any{"tick", event.Tick, "actor", formatEntity(event.Actor)}
	if targets := formatTargets(event.Targets); targets != "" {
		keyvals = append(keyvals, "targets", targets)
	}
	if payload := formatPayload(event.Payload); payload != "" {
		keyvals = append(keyvals, "payload", payload)
	}
	if event.MatchID != "" {
		keyvals = append(keyvals, "match", event.MatchID)
	}
	s.logger.Log(levelFor(event.Severity), string(event.Type), keyvals...)
	return nil
}

func (s *Console) Close(context.Context) error {
	return nil
}

func levelFor(sev logging.Severity) charmlog.Level {
	switch sev {
	case logging.SeverityDebug:
		return charmlog.DebugLevel
	case logging.SeverityWarn:
		return charmlog.WarnLevel
	case logging.SeverityError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

func formatTargets(targets []logging.EntityRef) string {
	if len(targets) == 0 {
		return ""
	}
	parts := make([]string, 0, len(targets))
	for _, target := range targets {
		parts = append(parts, formatEntity(target))
	}
	return strings.Join(parts, ",")
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}
