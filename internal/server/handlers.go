package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vietddude/tokenlens/internal/aggregate"
	"github.com/vietddude/tokenlens/internal/core/config"
	"github.com/vietddude/tokenlens/internal/core/domain"
	redisclient "github.com/vietddude/tokenlens/internal/infra/redis"
	"github.com/vietddude/tokenlens/internal/infra/storage/postgres"
	"github.com/vietddude/tokenlens/internal/metrics"
)

// runResult is what one aggregation run hands back to the shared
// respond path.
type runResult struct {
	body  any
	stats aggregate.Stats
}

func (s *Server) handleHolders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	token := params.Get("token")
	if token == "" {
		s.writeError(w, domain.Validationf("token is required"))
		return
	}

	limit, err := parseIntParam(params.Get("limit"), config.HolderLimitDefault)
	if err != nil {
		s.writeError(w, err)
		return
	}

	minAmount := 0.0
	if raw := params.Get("minAmount"); raw != "" {
		minAmount, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, domain.Validationf("invalid minAmount %q", raw))
			return
		}
	}

	key := redisclient.Key("holders", token,
		strconv.Itoa(limit), strconv.FormatFloat(minAmount, 'f', -1, 64))

	s.respond(w, r, "holders", token, key, func(ctx context.Context) (runResult, error) {
		out, stats, err := aggregate.Holders(ctx, s.source, aggregate.HoldersQuery{
			Token:     token,
			Limit:     limit,
			MinAmount: minAmount,
			PageSize:  s.cfg.PageSize,
		})
		return runResult{body: out, stats: stats}, err
	})
}

func (s *Server) handleTraders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	token := params.Get("token")
	if token == "" {
		s.writeError(w, domain.Validationf("token is required"))
		return
	}

	limit, err := parseIntParam(params.Get("limit"), config.TraderLimitDefault)
	if err != nil {
		s.writeError(w, err)
		return
	}

	decimals := s.cfg.DefaultDecimals
	if raw := params.Get("decimals"); raw != "" {
		decimals, err = strconv.Atoi(raw)
		if err != nil || decimals < 0 {
			s.writeError(w, domain.Validationf("invalid decimals %q", raw))
			return
		}
	}

	byCount := false
	switch params.Get("by") {
	case "", "volume":
	case "count":
		byCount = true
	default:
		s.writeError(w, domain.Validationf("invalid by %q, want volume or count", params.Get("by")))
		return
	}

	key := redisclient.Key("traders", token,
		strconv.Itoa(limit), strconv.Itoa(decimals), strconv.FormatBool(byCount))

	s.respond(w, r, "traders", token, key, func(ctx context.Context) (runResult, error) {
		out, stats, err := aggregate.Traders(ctx, s.source, aggregate.TradersQuery{
			Token:      token,
			Limit:      limit,
			Decimals:   decimals,
			ByCount:    byCount,
			PageSize:   s.cfg.PageSize,
			MaxRecords: s.cfg.MaxRecords,
		})
		return runResult{body: out, stats: stats}, err
	})
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	token := params.Get("token")
	if token == "" {
		s.writeError(w, domain.Validationf("token is required"))
		return
	}

	from, err := parseUnixParam(params.Get("from"), "from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseUnixParam(params.Get("to"), "to")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if from > to {
		s.writeError(w, domain.Validationf("from %d is after to %d", from, to))
		return
	}

	key := redisclient.Key("interval", token,
		strconv.FormatInt(from, 10), strconv.FormatInt(to, 10))

	s.respond(w, r, "interval", token, key, func(ctx context.Context) (runResult, error) {
		out, stats, err := aggregate.Interval(ctx, s.source, aggregate.IntervalQuery{
			Token:          token,
			From:           from,
			To:             to,
			PageSize:       s.cfg.PageSize,
			MaxRecords:     s.cfg.MaxRecords,
			DescendingTime: !s.cfg.UnorderedTime,
		})
		return runResult{body: out, stats: stats}, err
	})
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if s.scans == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "scan history is disabled"})
		return
	}

	limit, err := parseIntParam(r.URL.Query().Get("limit"), 20)
	if err != nil {
		s.writeError(w, err)
		return
	}

	scans, err := s.scans.RecentScans(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scans)
}

// respond runs one aggregation behind the response cache and records
// the run in scan history.
func (s *Server) respond(
	w http.ResponseWriter,
	r *http.Request,
	endpoint, token, cacheKey string,
	run func(ctx context.Context) (runResult, error),
) {
	if s.cache != nil {
		if body, ok := s.cache.Get(r.Context(), endpoint, cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}
	}

	start := time.Now()
	res, err := run(r.Context())
	duration := time.Since(start)

	if err != nil {
		s.recordScan(endpoint, token, 0, res.stats, duration, err)
		s.writeError(w, err)
		return
	}

	metrics.PagesFetched.WithLabelValues(endpoint).Add(float64(res.stats.Pages))

	body, err := json.Marshal(res.body)
	if err != nil {
		s.writeError(w, fmt.Errorf("encode response: %w", err))
		return
	}

	rows := 0
	switch v := res.body.(type) {
	case []domain.HolderEntry:
		rows = len(v)
	case []domain.TraderEntry:
		rows = len(v)
	case []domain.ActivityEntry:
		rows = len(v)
	}
	s.recordScan(endpoint, token, rows, res.stats, duration, nil)

	if s.cache != nil {
		s.cache.Set(r.Context(), cacheKey, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// recordScan persists run history without blocking the response.
func (s *Server) recordScan(
	endpoint, token string,
	rows int,
	stats aggregate.Stats,
	duration time.Duration,
	runErr error,
) {
	if s.scans == nil {
		return
	}

	scan := &postgres.Scan{
		Endpoint:       endpoint,
		Token:          token,
		RowCount:       rows,
		RecordsScanned: stats.Records,
		PagesFetched:   stats.Pages,
		DurationMs:     duration.Milliseconds(),
	}
	if runErr != nil {
		scan.ErrorText = runErr.Error()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.scans.Record(ctx, scan); err != nil {
			slog.Warn("Failed to record scan", "endpoint", endpoint, "error", err)
		}
	}()
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if de, ok := domain.AsDomainError(err); ok {
		status = de.HTTPStatus()
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, domain.Validationf("invalid limit %q", raw)
	}
	return v, nil
}

func parseUnixParam(raw, name string) (int64, error) {
	if raw == "" {
		return 0, domain.Validationf("%s is required", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Validationf("invalid %s %q", name, raw)
	}
	return v, nil
}
