package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/tokenlens/internal/core/config"
	redisclient "github.com/vietddude/tokenlens/internal/infra/redis"
	"github.com/vietddude/tokenlens/internal/infra/solscan"
	"github.com/vietddude/tokenlens/internal/infra/storage/postgres"
	"github.com/vietddude/tokenlens/internal/server"
)

// App owns the service lifecycle: upstream client, optional cache and
// scan history, and the HTTP server.
type App struct {
	cfg      *config.AppConfig
	upstream *solscan.Client
	cache    *redisclient.Cache
	db       *postgres.DB
	server   *server.Server
	log      *slog.Logger
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	upstream, err := solscan.NewClient(solscan.Config{
		BaseURL:     cfg.Solscan.BaseURL,
		APIKey:      cfg.Solscan.APIKey,
		Timeout:     cfg.Solscan.Timeout,
		MaxAttempts: cfg.Solscan.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init upstream client: %w", err)
	}

	var cache *redisclient.Cache
	if cfg.Redis.URL != "" {
		cache, err = redisclient.NewCache(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis cache: %w", err)
		}
		slog.Info("Response cache enabled", "ttl", cfg.Redis.CacheTTL)
	} else {
		slog.Info("Response cache disabled")
	}

	var db *postgres.DB
	var scans *postgres.ScanRepo
	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		scans = postgres.NewScanRepo(db)
		slog.Info("Scan history enabled")
	} else {
		slog.Info("Scan history disabled")
	}

	srv := server.NewServer(server.Config{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		PageSize:        cfg.Solscan.PageSize,
		MaxRecords:      cfg.Solscan.MaxRecords,
		DefaultDecimals: cfg.Solscan.DefaultDecimals,
		UnorderedTime:   cfg.Solscan.UnorderedTime,
	}, server.Deps{
		Source: upstream,
		Cache:  cache,
		Scans:  scans,
		DB:     db,
	})

	return &App{
		cfg:      cfg,
		upstream: upstream,
		cache:    cache,
		db:       db,
		server:   srv,
		log:      slog.Default(),
	}, nil
}

// Start launches the HTTP server. It returns immediately; server
// failures are logged from the serving goroutine.
func (a *App) Start(ctx context.Context) error {
	go func() {
		a.log.Info("API server listening", "port", a.cfg.Server.Port)
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("API server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down gracefully.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error

	if err := a.server.Stop(ctx); err != nil {
		firstErr = err
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.upstream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
