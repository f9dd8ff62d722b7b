package app

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/ShangTsung3/battle-city-pro/internal/config"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
	loggingSinks "github.com/ShangTsung3/battle-city-pro/logging/sinks"
)

// newRouter builds the event router from cfg: the console sink always, plus
// the JSON sink when a file is configured. Router counters go to metrics.
func newRouter(cfg config.Config, logger *charmlog.Logger, metrics telemetry.Metrics) (*logging.Router, func(context.Context), error) {
	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = logging.ParseSeverity(cfg.LogLevel)
	logConfig.Metrics = metrics
	if cfg.LogJSON != "" {
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		logConfig.JSON.FilePath = cfg.LogJSON
	}

	var sinks []logging.NamedSink
	if logConfig.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleWithLogger(logger.WithPrefix(logConfig.Console.Prefix))})
	}
	var file *os.File
	if logConfig.HasSink("json") {
		f, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		file = f
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(f, logConfig.JSON.FlushInterval)})
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, sinks)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, nil, fmt.Errorf("failed to construct logging router: %w", err)
	}

	processLogger := telemetry.WrapLogger(logger)
	closeFn := func(ctx context.Context) {
		if cerr := router.Close(ctx); cerr != nil {
			processLogger.Printf("failed to close logging router: %v", cerr)
		}
		if file != nil {
			if cerr := file.Close(); cerr != nil {
				processLogger.Printf("failed to close event log: %v", cerr)
			}
		}
	}
	return router, closeFn, nil
}
