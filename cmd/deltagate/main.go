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

	"github.com/opsdelta/deltagate/internal/adapter/driven/databricks"
	"github.com/opsdelta/deltagate/internal/adapter/driven/oauth"
	"github.com/opsdelta/deltagate/internal/adapter/driven/probe"
	sqliteadapter "github.com/opsdelta/deltagate/internal/adapter/driven/sqlite"
	httphandler "github.com/opsdelta/deltagate/internal/adapter/driving/http"
	"github.com/opsdelta/deltagate/internal/application"
	"github.com/opsdelta/deltagate/internal/config"
	"github.com/opsdelta/deltagate/internal/logging"
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

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the audit database (dual reader/writer with WAL mode) and run
	// migrations on the writer connection.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	auditStore := sqliteadapter.NewAuditRepo(db)

	// 4. Build the logger: console output plus the audit tee for records at
	// or above the configured persistence level.
	console := logging.NewConsoleHandler(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	logger := slog.New(logging.NewStoreHandler(console, auditStore, logging.ParseLevel(cfg.AuditMinLevel)))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"account_id", cfg.AccountID,
		"default_workspace", cfg.WorkspaceURL,
	)

	// 5. Wire driven adapters.
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = oauth.DefaultTokenURL(cfg.AccountID)
	}
	issuer := oauth.NewIssuer(tokenURL, cfg.ClientID, cfg.ClientSecret)
	prober := probe.NewProber(cfg.ProbeTimeout)
	sharing := databricks.NewClient()

	// 6. Wire application services.
	tokens := application.NewTokenCache(issuer, cfg.AccountID, cfg.RefreshBuffer, logger)

	suffixes := application.DefaultHostSuffixes
	if len(cfg.WorkspaceDomains) > 0 {
		suffixes = cfg.WorkspaceDomains
	}
	validator := application.NewEndpointValidator(prober, suffixes, logger)

	shareSvc := application.NewShareService(validator, tokens, sharing, logger)
	recipientSvc := application.NewRecipientService(validator, tokens, sharing, logger)
	healthSvc := application.NewHealthService(cfg.HasCredentials(), tokens, db.Reader)

	// 7. Build the HTTP handler and server.
	apiHandler := httphandler.NewHandler(shareSvc, recipientSvc, healthSvc, auditStore, cfg.WorkspaceURL, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("deltagate started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal, then drain.
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
