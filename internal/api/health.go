package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter lists circuit breaker states by provider.
type BreakerReporter interface {
	Breakers(ctx context.Context) map[string]string
}

// HealthHandler handles health check requests. Nil dependencies are
// reported as disabled.
// CacheStatus reports whether the answer cache is serving lookups.
type CacheStatus interface {
	Enabled() bool
}

type HealthHandler struct {
	redisClient *redis.Client
	db          Pinger
	breakers    BreakerReporter
	cache       CacheStatus
}

func NewHealthHandler(redisClient *redis.Client, db Pinger, breakers BreakerReporter) *HealthHandler {
	return &HealthHandler{redisClient: redisClient, db: db, breakers: breakers}
}

// WithCache adds the answer cache to the report.
func (h *HealthHandler) WithCache(cache CacheStatus) *HealthHandler {
	h.cache = cache
	return h
}

// HealthCheck returns 503 when a configured dependency is unreachable. Open
// provider breakers are reported without failing the check, since cache hits
// still work.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	checks := fiber.Map{
		"redis":    h.checkRedis(ctx),
		"database": check(ctx, h.db),
	}
	if h.cache != nil {
		checks["answer_cache"] = "disabled"
		if h.cache.Enabled() {
			checks["answer_cache"] = "enabled"
		}
	}
	if h.breakers != nil {
		checks["providers"] = h.breakers.Breakers(ctx)
	}

	status, code := "healthy", fiber.StatusOK
	if checks["redis"] == "unhealthy" || checks["database"] == "unhealthy" {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (h *HealthHandler) checkRedis(ctx context.Context) string {
	if h.redisClient == nil {
		return "disabled"
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
