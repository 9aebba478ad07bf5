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

	"github.com/gin-gonic/gin"

	"userapi/config"
	"userapi/src/handlers"
	"userapi/src/routes"
	"userapi/src/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDatabase(cfg.DB, logger)
	if err != nil {
		return err
	}
	if !db.TestConnection(ctx) {
		_ = db.Close()
		return errors.New("failed to connect to database")
	}

	users := store.NewUserStore(db.DB(), db.Placeholder(),
		store.WithLogger(logger),
		store.WithSlowQueryThreshold(cfg.DB.SlowQueryThreshold),
		store.WithQueryLogging(cfg.DB.LogQueries),
	)

	r := routes.NewRouter(cfg, logger, routes.Dependencies{
		Users:  handlers.NewUserHandler(users, cfg.DB.QueryTimeout, logger),
		Health: handlers.NewHealthHandler(db, logger),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env),
			slog.String("driver", db.Driver()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		_ = db.Close()
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	return db.Close()
}
