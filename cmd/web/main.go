package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/config"
	"github.com/AdamBeresnev/arena-manager/internal/db"
	"github.com/AdamBeresnev/arena-manager/internal/middleware"
	"github.com/AdamBeresnev/arena-manager/internal/realtime"
	"github.com/AdamBeresnev/arena-manager/internal/scheduler"
	"github.com/AdamBeresnev/arena-manager/internal/service"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/AdamBeresnev/arena-manager/internal/sweep"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"golang.org/x/sync/errgroup"
)

var _ service.Publisher = (*realtime.Hub)(nil)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	middleware.InitAuth(cfg)

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	hub := realtime.NewHub()

	tournamentStore := store.NewTournamentStore(database)
	registrations := service.NewRegistrationService(database, tournamentStore, hub)
	sweeps := sweep.NewService(database, store.NewBillingStore(database), store.NewNotificationStore(database), cfg.Location)

	a := &app{
		sessionManager: sessionManager,
		users:          service.NewUserService(store.NewUserStore(database)),
		tournaments:    service.NewTournamentService(tournamentStore, hub),
		registrations:  registrations,
		brackets:       service.NewBracketService(database, tournamentStore, registrations, hub),
		matches:        service.NewMatchService(database, tournamentStore, hub),
		sweeper:        sweeps,
		hub:            hub,
		cronSecret:     cfg.CronSecret,
		allowedOrigins: cfg.AllowedOrigins,
	}

	cron := scheduler.New(sweeps, cfg.OverdueSchedule, cfg.ReminderSchedule, cfg.Location)
	if err := cron.Start(); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		cron.Stop(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
