package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/mudlet/deploylinks/internal/adapter/driven/appveyor"
	githubadapter "github.com/mudlet/deploylinks/internal/adapter/driven/github"
	"github.com/mudlet/deploylinks/internal/adapter/driven/snapshots"
	"github.com/mudlet/deploylinks/internal/adapter/driven/travis"
	httphandler "github.com/mudlet/deploylinks/internal/adapter/driving/http"
	"github.com/mudlet/deploylinks/internal/application"
	"github.com/mudlet/deploylinks/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"app_id", cfg.AppID,
		"bot_login", cfg.BotLogin,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire driven adapters.
	auth, err := githubadapter.NewAppAuth(cfg.AppID, []byte(cfg.PrivateKey), cfg.BotLogin)
	if err != nil {
		return err
	}

	catalog := snapshots.NewCatalog(cfg.SnapshotsURL, slog.Default())
	resolver := application.NewLinkResolver(catalog)

	dispatcher := application.NewDispatcher(
		auth,
		resolver,
		travis.NewClient(cfg.TravisURL),
		appveyor.NewClient(cfg.AppVeyorURL),
		cfg.CheckName,
		slog.Default(),
	)

	// 4. Create HTTP handler and register routes.
	handler := httphandler.NewHandler(dispatcher, []byte(cfg.WebhookSecret), slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 5. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 6. Graceful shutdown with 10s timeout to drain in-flight webhooks.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
