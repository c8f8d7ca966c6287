package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"gorm.io/gorm"
)

// Service persists answer logs and aggregates them.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Record(ctx context.Context, log *models.AnswerLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to record answer log: %w", err)
	}
	return nil
}

// Stats aggregates logs created at or after since. A zero since covers
// everything.
func (s *Service) Stats(ctx context.Context, since time.Time) (*models.AnswerStats, error) {
	var row struct {
		TotalQueries     int64
		CacheHits        int64
		RealtimeQueries  int64
		JudgeInvocations int64
		Failures         int64
		TotalCost        float64
		TotalCostSaved   float64
		AvgLatencyMs     float64
	}

	q := s.db.WithContext(ctx).Model(&models.AnswerLog{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Select(
		"COUNT(*) AS total_queries, "+
			"COALESCE(SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END), 0) AS cache_hits, "+
			"COALESCE(SUM(CASE WHEN route = ? THEN 1 ELSE 0 END), 0) AS realtime_queries, "+
			"COALESCE(SUM(CASE WHEN judge_verdict <> '' THEN 1 ELSE 0 END), 0) AS judge_invocations, "+
			"COALESCE(SUM(CASE WHEN error_message <> '' THEN 1 ELSE 0 END), 0) AS failures, "+
			"COALESCE(SUM(cost), 0) AS total_cost, "+
			"COALESCE(SUM(cost_saved), 0) AS total_cost_saved, "+
			"COALESCE(AVG(latency_ms), 0) AS avg_latency_ms",
		string(models.RouteRealtime),
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate answer logs: %w", err)
	}

	stats := &models.AnswerStats{
		TotalQueries:     row.TotalQueries,
		CacheHits:        row.CacheHits,
		RealtimeQueries:  row.RealtimeQueries,
		JudgeInvocations: row.JudgeInvocations,
		Failures:         row.Failures,
		TotalCost:        row.TotalCost,
		TotalCostSaved:   row.TotalCostSaved,
		AvgLatencyMs:     row.AvgLatencyMs,
	}
	if stats.TotalQueries > 0 {
		stats.HitRate = float64(stats.CacheHits) / float64(stats.TotalQueries)
	}
	return stats, nil
}

// Recent returns the newest logs first.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.AnswerLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var logs []models.AnswerLog
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list answer logs: %w", err)
	}
	return logs, nil
}
