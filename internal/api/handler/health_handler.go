package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

type HealthStatus string

const (
	StatusUp   HealthStatus = "up"
	StatusDown HealthStatus = "down"
)

type HealthResponse struct {
	Status    HealthStatus           `json:"status" example:"up"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status HealthStatus `json:"status" example:"up"`
	Error  string       `json:"error,omitempty"`
}

type HealthHandler struct {
	checkers map[string]Checker
	timeout  time.Duration
	logger   *slog.Logger
}

func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checkers: make(map[string]Checker),
		timeout:  5 * time.Second,
		logger:   logger.With("component", "HealthHandler"),
	}
}

// Register must be called before the handler starts serving.
func (h *HealthHandler) Register(name string, checker Checker) {
	h.checkers[name] = checker
}

// Liveness handles GET /health
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} handler.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: StatusUp, Timestamp: time.Now().UTC()})
}

// Readiness handles GET /ready
// @Summary Readiness probe
// @Description Pings PostgreSQL and, when configured, Redis.
// @Tags Health
// @Produce json
// @Success 200 {object} handler.HealthResponse
// @Failure 503 {object} handler.HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: StatusUp, Timestamp: time.Now().UTC(), Checks: make(map[string]CheckResult, len(names))}
	for _, name := range names {
		if err := h.checkers[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "Readiness check failed", slog.String("check", name), slog.Any("error", err))
			resp.Checks[name] = CheckResult{Status: StatusDown, Error: err.Error()}
			resp.Status = StatusDown
			continue
		}
		resp.Checks[name] = CheckResult{Status: StatusUp}
	}

	status := http.StatusOK
	if resp.Status == StatusDown {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
