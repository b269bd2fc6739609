package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/tokenlens/internal/aggregate"
	redisclient "github.com/vietddude/tokenlens/internal/infra/redis"
	"github.com/vietddude/tokenlens/internal/infra/solscan"
	"github.com/vietddude/tokenlens/internal/infra/storage/postgres"
)

// Source is the upstream surface the aggregation handlers consume.
type Source interface {
	aggregate.HolderSource
	aggregate.TransferSource
}

// Config holds HTTP server and aggregation settings.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PageSize        int
	MaxRecords      int
	DefaultDecimals int
	UnorderedTime   bool
}

// Deps carries the server's collaborators. Cache and Scans are
// optional; a nil value disables that concern without changing any
// endpoint's behavior.
type Deps struct {
	Source Source
	Cache  *redisclient.Cache
	Scans  *postgres.ScanRepo
	DB     *postgres.DB
}

// Server exposes the aggregation endpoints plus health and metrics.
type Server struct {
	cfg    Config
	source Source
	cache  *redisclient.Cache
	scans  *postgres.ScanRepo
	db     *postgres.DB
	server *http.Server
}

// NewServer creates a new API server with configured routes.
func NewServer(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cfg:    cfg,
		source: deps.Source,
		cache:  deps.Cache,
		scans:  deps.Scans,
		db:     deps.DB,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}

	mux.HandleFunc("/holders", s.instrument("holders", s.handleHolders))
	mux.HandleFunc("/traders", s.instrument("traders", s.handleTraders))
	mux.HandleFunc("/interval", s.instrument("interval", s.handleInterval))
	mux.HandleFunc("/scans", s.instrument("scans", s.handleScans))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type componentHealth struct {
	Status string `json:"status"` // "ok", "disabled", "error"
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]componentHealth{}
	healthy := true

	if up, ok := s.source.(interface{ GetHealth() solscan.HealthStatus }); ok {
		h := up.GetHealth()
		if h.Available {
			components["upstream"] = componentHealth{Status: "ok"}
		} else {
			components["upstream"] = componentHealth{Status: "error", Error: "upstream error rate too high"}
			healthy = false
		}
	} else {
		components["upstream"] = componentHealth{Status: "ok"}
	}

	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			components["redis"] = componentHealth{Status: "error", Error: err.Error()}
			healthy = false
		} else {
			components["redis"] = componentHealth{Status: "ok"}
		}
	} else {
		components["redis"] = componentHealth{Status: "disabled"}
	}

	if s.db != nil {
		if err := s.db.Health(r.Context()); err != nil {
			components["database"] = componentHealth{Status: "error", Error: err.Error()}
			healthy = false
		} else {
			components["database"] = componentHealth{Status: "ok"}
		}
	} else {
		components["database"] = componentHealth{Status: "disabled"}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     status,
		"components": components,
	})
}
