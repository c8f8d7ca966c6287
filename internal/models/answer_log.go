package models

import "time"

// AnswerLog is one answered query, written asynchronously after the response.
type AnswerLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID    string    `gorm:"size:100;index;default:''" json:"request_id"`
	QueryHash    string    `gorm:"size:64;index;not null" json:"query_hash"`
	QueryPreview string    `gorm:"size:255;default:''" json:"query_preview"`
	Route        string    `gorm:"size:20;index;default:''" json:"route"`
	Complexity   string    `gorm:"size:20;default:''" json:"complexity"`
	Path         string    `gorm:"type:text;default:''" json:"path"`
	CacheHit     bool      `gorm:"not null;default:false;index" json:"cache_hit"`
	CacheSource  string    `gorm:"size:20;default:''" json:"cache_source"`
	Similarity   float64   `gorm:"default:0" json:"similarity"`
	KeywordScore float64   `gorm:"default:0" json:"keyword_score"`
	JudgeVerdict string    `gorm:"size:20;default:''" json:"judge_verdict,omitzero"`
	JudgeReason  string    `gorm:"type:text;default:''" json:"judge_reason,omitzero"`
	Model        string    `gorm:"size:100;default:''" json:"model,omitzero"`
	TokensInput  int64     `gorm:"default:0" json:"tokens_input"`
	TokensOutput int64     `gorm:"default:0" json:"tokens_output"`
	Cost         float64   `gorm:"default:0" json:"cost"`
	CostSaved    float64   `gorm:"default:0" json:"cost_saved"`
	LatencyMs    int64     `gorm:"default:0" json:"latency_ms"`
	ErrorMessage string    `gorm:"type:text;default:''" json:"error_message,omitzero"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (AnswerLog) TableName() string {
	return "answer_logs"
}

// AnswerStats aggregates the answer log.
type AnswerStats struct {
	TotalQueries     int64   `json:"total_queries"`
	CacheHits        int64   `json:"cache_hits"`
	HitRate          float64 `json:"hit_rate"`
	RealtimeQueries  int64   `json:"realtime_queries"`
	JudgeInvocations int64   `json:"judge_invocations"`
	Failures         int64   `json:"failures"`
	TotalCost        float64 `json:"total_cost"`
	TotalCostSaved   float64 `json:"total_cost_saved"`
	AvgLatencyMs     float64 `json:"avg_latency_ms"`
}
