package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	charmlog "github.com/charmbracelet/log"

	"github.com/ShangTsung3/battle-city-pro/internal/config"
	"github.com/ShangTsung3/battle-city-pro/internal/relay"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

// RunRelay listens on cfg.RelayAddr and serves the relay until ctx is
// cancelled.
func RunRelay(ctx context.Context, cfg config.Config, logger *charmlog.Logger) error {
	listener, err := net.Listen("tcp", cfg.RelayAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.RelayAddr, err)
	}
	return ServeRelay(ctx, listener, cfg, logger)
}

// ServeRelay serves the relay on an existing listener and shuts down
// gracefully once ctx is cancelled.
func ServeRelay(ctx context.Context, listener net.Listener, cfg config.Config, logger *charmlog.Logger) error {
	if logger == nil {
		logger = charmlog.Default()
	}
	processLogger := telemetry.WrapLogger(logger)

	metrics := telemetry.NewCounters()
	router, closeRouter, err := newRouter(cfg, logger, metrics)
	if err != nil {
		_ = listener.Close()
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		closeRouter(closeCtx)
	}()

	hub := relay.NewHub(relay.HubConfig{
		Logger:    processLogger,
		Metrics:   metrics,
		Publisher: router,
	})
	srv := &http.Server{Handler: relay.NewHTTPHandler(hub, relay.HandlerConfig{Logger: processLogger})}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	processLogger.Printf("relay listening on %s", listener.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	processLogger.Printf("relay stopped")
	return nil
}
