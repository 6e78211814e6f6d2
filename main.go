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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/venkat210105/portfolio/config"
	"github.com/venkat210105/portfolio/content"
	"github.com/venkat210105/portfolio/logging"
	"github.com/venkat210105/portfolio/server"
	"github.com/venkat210105/portfolio/store"
)

const (
	cleanupInterval = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portfolio: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	profile, err := loadProfile(cfg.ContentPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var storeOpts []store.Option
	if cfg.HashSalt != "" {
		storeOpts = append(storeOpts, store.WithSalt(cfg.HashSalt))
	}
	st, err := store.Open(ctx, cfg.DatabasePath, storeOpts...)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("database ready", zap.String("path", cfg.DatabasePath))

	srv, err := server.New(server.Config{
		Profile:        profile,
		Store:          st,
		Logger:         logger,
		ContactBaseURL: cfg.ContactAPIURL,
		AdminUsername:  cfg.AdminUsername,
		AdminPassword:  cfg.AdminPassword,
		Mode:           cfg.GinMode,
		Retention:      cfg.Retention,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("mode", cfg.GinMode),
			zap.String("contact_api", cfg.ContactAPIURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.RunCleanup(gctx, cleanupInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func loadProfile(path string) (*content.Profile, error) {
	if path == "" {
		return content.Default()
	}
	return content.Load(path)
}
