package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	router "github.com/z0r1k/textchat-acc-pack/internal/adapters/http"
	relay "github.com/z0r1k/textchat-acc-pack/internal/adapters/signal"
	"github.com/z0r1k/textchat-acc-pack/internal/app"
	"github.com/z0r1k/textchat-acc-pack/internal/app/orch"
	"github.com/z0r1k/textchat-acc-pack/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logging first so config.Load can use it; level is adjusted once config is known.
	config.SetupLogging("info")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	config.SetupLogging(cfg.LogLevel)

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.PolicyFor(cfg.Backpressure),
		Tokens:   app.NewTokenService(cfg.Secret, cfg.TokenTTL),
		APIKey:   cfg.APIKey,
	}
	limiter := relay.NewRoomRateLimiter(cfg.RateLimit, cfg.RateInterval)

	r := router.SetupRouter(ctx, cfg, o, limiter)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("textchat relay started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
