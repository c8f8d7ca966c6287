package api

import (
	"context"
	"strings"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/answer_cache"
	"github.com/Egham-7/pitchside/internal/services/middleware"
	"github.com/Egham-7/pitchside/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	defaultStatsWindow = 24 * time.Hour
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// CacheAdmin is the administrative surface of the answer cache.
type CacheAdmin interface {
	Stats() answer_cache.Stats
	Purge(ctx context.Context) error
	Remove(ctx context.Context, query string) error
}

// UsageReader reads the answer log.
type UsageReader interface {
	Stats(ctx context.Context, since time.Time) (*models.AnswerStats, error)
	Recent(ctx context.Context, limit int) ([]models.AnswerLog, error)
}

type AdminHandler struct {
	cache   CacheAdmin
	usage   UsageReader
	respSvc *response.BaseService
}

// NewAdminHandler creates the admin handler. usage may be nil when no
// database is configured.
func NewAdminHandler(cache CacheAdmin, usage UsageReader) *AdminHandler {
	return &AdminHandler{cache: cache, usage: usage, respSvc: response.NewBaseService()}
}

func (h *AdminHandler) CacheStats(c *fiber.Ctx) error {
	return h.respSvc.Success(c, h.cache.Stats())
}

func (h *AdminHandler) PurgeCache(c *fiber.Ctx) error {
	if err := h.cache.Purge(c.UserContext()); err != nil {
		return h.respSvc.AppError(c, models.NewInternalError("failed to purge answer cache", err))
	}
	fiberlog.Infof("AdminHandler: Answer cache purged by %q", middleware.AdminSubject(c))
	return c.SendStatus(fiber.StatusNoContent)
}

type removeEntryRequest struct {
	Query string `json:"query"`
}

func (h *AdminHandler) RemoveEntry(c *fiber.Ctx) error {
	var req removeEntryRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return h.respSvc.AppError(c, models.NewValidationError("query is required", err))
	}
	if err := h.cache.Remove(c.UserContext(), req.Query); err != nil {
		return h.respSvc.AppError(c, models.NewInternalError("failed to remove cache entry", err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UsageStats aggregates the answer log over ?window= (a Go duration, 24h by default).
func (h *AdminHandler) UsageStats(c *fiber.Ctx) error {
	if h.usage == nil {
		return h.respSvc.AppError(c, models.NewNotFoundError("usage logging is disabled"))
	}
	window := defaultStatsWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return h.respSvc.AppError(c, models.NewValidationError("window must be a positive duration such as 24h", err))
		}
		window = d
	}

	stats, err := h.usage.Stats(c.UserContext(), time.Now().Add(-window))
	if err != nil {
		return h.respSvc.AppError(c, models.NewInternalError("failed to load usage stats", err))
	}
	return h.respSvc.Success(c, stats)
}

func (h *AdminHandler) RecentAnswers(c *fiber.Ctx) error {
	if h.usage == nil {
		return h.respSvc.AppError(c, models.NewNotFoundError("usage logging is disabled"))
	}
	limit := c.QueryInt("limit", defaultRecentLimit)
	if limit <= 0 || limit > maxRecentLimit {
		return h.respSvc.AppError(c, models.NewValidationError("limit must be between 1 and 500", nil))
	}

	logs, err := h.usage.Recent(c.UserContext(), limit)
	if err != nil {
		return h.respSvc.AppError(c, models.NewInternalError("failed to load answer log", err))
	}
	return h.respSvc.Success(c, logs)
}
