package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pscheid92/adminpulse/internal/adapter/httpserver"
	"github.com/pscheid92/adminpulse/internal/adapter/metrics"
	"github.com/pscheid92/adminpulse/internal/api"
	"github.com/pscheid92/adminpulse/internal/credstore"
	"github.com/pscheid92/adminpulse/internal/platform/config"
	"github.com/pscheid92/adminpulse/internal/platform/crypto"
	"github.com/pscheid92/adminpulse/internal/platform/logging"
	"github.com/pscheid92/adminpulse/internal/platform/retry"
	"github.com/pscheid92/adminpulse/internal/session"

	"github.com/jonboulle/clockwork"
)

const (
	bootTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupCredStore(cfg *config.Config) (credstore.Store, io.Closer, func(ctx context.Context) error) {
	cryptoSvc, err := crypto.ForKey(cfg.TokenEncryptionKey)
	if err != nil {
		slog.Error("Failed to set up token encryption", "error", err)
		os.Exit(1)
	}

	switch cfg.CredentialsBackend {
	case config.BackendRedis:
		store, err := credstore.OpenRedis(cfg.RedisURL, cryptoSvc)
		if err != nil {
			slog.Error("Failed to open redis credential store", "error", err)
			os.Exit(1)
		}

		// Redis may still be coming up alongside us.
		policy := retry.Policy{
			MaxAttempts:    5,
			InitialBackoff: time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Redis not reachable yet, retrying", "attempt", attempt, "backoff", backoff, "error", err)
			},
		}
		ctx, cancel := context.WithTimeout(context.Background(), bootTimeout)
		defer cancel()
		err = retry.DoVoid(ctx, policy, func(error) retry.Action { return retry.Retry }, func() error {
			return store.Ping(ctx)
		})
		if err != nil {
			slog.Error("Redis credential store unavailable", "error", err)
			os.Exit(1)
		}

		return store, store, store.Ping
	case config.BackendMemory:
		slog.Warn("Using in-memory credential store, tokens will not survive restarts")
		return credstore.NewMemoryStore(), nil, nil
	default:
		store, err := credstore.OpenBolt(cfg.CredentialsPath, cryptoSvc)
		if err != nil {
			slog.Error("Failed to open credential file", "path", cfg.CredentialsPath, "error", err)
			os.Exit(1)
		}
		return store, store, nil
	}
}

func runGracefulShutdown(srv *httpserver.Server, closer io.Closer) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if closer != nil {
			if err := closer.Close(); err != nil {
				slog.Error("Failed to close credential store", "error", err)
			}
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	store, storeCloser, storeCheck := setupCredStore(cfg)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	recorder := metrics.NewRecorder()

	renewer := api.NewRenewer(cfg.APIBaseURL, httpClient, store, recorder)
	gateway := api.NewGateway(cfg.APIBaseURL, httpClient, store, renewer, recorder)
	authClient := api.NewAuthClient(gateway)
	usersClient := api.NewUsersClient(gateway)
	statsClient := api.NewStatsClient(gateway)

	manager := session.NewManager(store, authClient, renewer, clockwork.NewRealClock(), recorder)

	var healthChecks []httpserver.HealthCheck
	if storeCheck != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "credstore", Check: storeCheck})
	}

	srv, err := httpserver.NewServer(cfg, manager, usersClient, statsClient, healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Restore the session in the background; the route guard holds
	// requests until the check settles.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bootTimeout)
		defer cancel()
		manager.Boot(ctx)
	}()

	done := runGracefulShutdown(srv, storeCloser)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
