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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/WatchTogether/internal/adapters/http"
	wssignal "github.com/dkeye/WatchTogether/internal/adapters/signal"
	"github.com/dkeye/WatchTogether/internal/app"
	"github.com/dkeye/WatchTogether/internal/config"
	"github.com/dkeye/WatchTogether/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	ids, err := domain.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("id generator")
	}
	policy, err := wssignal.PolicyByName(cfg.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("backpressure policy")
	}

	hub := wssignal.NewHub(policy)
	coord := app.NewCoordinator(hub, ids, app.WithSettings(app.Settings{
		ReconcileInterval: cfg.ReconcileInterval,
		StateClearAfter:   cfg.StateClearAfter,
		RoomDeleteAfter:   cfg.RoomDeleteAfter,
	}))
	ctl := wssignal.NewSignalWSController(
		coord,
		hub,
		ids,
		wssignal.NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinWindow),
		wssignal.Options{ReadLimit: cfg.ReadLimit, PingPeriod: cfg.PingPeriod},
	)

	r := router.SetupRouter(ctx, cfg, coord, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return coord.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("WatchTogether server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
