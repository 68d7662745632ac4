package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"customer-service/internal/api/handler/dto"
	"customer-service/internal/config"
	"customer-service/internal/infrastructure/monitoring"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	unknownClientIP    = "unknown"
)

// limiterStore decides whether the client identified by key may proceed.
type limiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// redisLimiterStore is a fixed one-second window shared by every replica.
type redisLimiterStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func (s *redisLimiterStore) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rateLimitKeyPrefix + key

	// NX only stamps a key without expiry, so the window is never extended.
	pipe := s.client.TxPipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit pipeline for %s: %w", redisKey, err)
	}

	count, err := incrCmd.Result()
	if err != nil {
		return true, fmt.Errorf("rate limit INCR for %s: %w", redisKey, err)
	}

	return count <= s.limit, nil
}

// localLimiterStore keeps one token bucket per client in process memory.
type localLimiterStore struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
}

func (s *localLimiterStore) Allow(_ context.Context, key string) (bool, error) {
	return s.limiter(key).Allow(), nil
}

func (s *localLimiterStore) limiter(key string) *rate.Limiter {
	if existing, ok := s.limiters.Load(key); ok {
		return existing.(*rate.Limiter)
	}
	actual, _ := s.limiters.LoadOrStore(key, rate.NewLimiter(s.rps, s.burst))
	return actual.(*rate.Limiter)
}

// prune drops buckets that have refilled completely.
func (s *localLimiterStore) prune(now time.Time) {
	s.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).TokensAt(now) >= float64(s.burst) {
			s.limiters.Delete(key)
		}
		return true
	})
}

type RateLimiterMiddleware struct {
	store  limiterStore
	cfg    config.RateLimitConfig
	logger *slog.Logger
	stop   chan struct{}
	once   sync.Once
}

// NewRateLimiterMiddleware uses Redis when redisClient is non-nil and an
// in-process token bucket otherwise.
func NewRateLimiterMiddleware(cfg config.RateLimitConfig, redisClient *redis.Client, logger *slog.Logger) *RateLimiterMiddleware {
	rl := &RateLimiterMiddleware{
		cfg:    cfg,
		logger: logger.With("component", "RateLimiter"),
		stop:   make(chan struct{}),
	}

	if !cfg.Enabled {
		rl.logger.Info("Rate limiting is disabled via configuration.")
		return rl
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	if redisClient != nil {
		limit := int64(cfg.RPS)
		if limit < 1 {
			limit = 1
		}
		rl.store = &redisLimiterStore{client: redisClient, limit: limit, window: time.Second}
		rl.logger.Info("Rate limiter configured", "backend", "redis", "rps", limit)
		return rl
	}

	local := &localLimiterStore{rps: rate.Limit(cfg.RPS), burst: burst}
	rl.store = local
	go rl.cleanupLimiters(local, 10*time.Minute)
	rl.logger.Info("Rate limiter configured", "backend", "memory", "rps", cfg.RPS, "burst", burst)
	return rl
}

func (rl *RateLimiterMiddleware) IsEnabled() bool {
	return rl.cfg.Enabled && rl.store != nil
}

// Stop ends the background cleanup of in-memory buckets.
func (rl *RateLimiterMiddleware) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiterMiddleware) cleanupLimiters(store *localLimiterStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			store.prune(now)
		}
	}
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
		return parsed.String()
	}

	rl.logger.Warn("Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr)
	return unknownClientIP
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)

		allowed, err := rl.store.Allow(r.Context(), ip)
		if err != nil {
			rl.logger.ErrorContext(r.Context(), "Rate limit check failed, allowing request", "error", err, "ip", ip)
		}
		if !allowed {
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", ip, "limit", rl.cfg.RPS)
			monitoring.RecordRateLimited()
			rl.reject(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiterMiddleware) reject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   "Too many requests",
		Status:  http.StatusTooManyRequests,
		Message: fmt.Sprintf("Rate limit exceeded. Limit is %v requests per second.", rl.cfg.RPS),
		Path:    r.URL.Path,
	})
}
