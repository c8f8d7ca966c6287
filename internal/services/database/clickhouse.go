package database

import (
	"fmt"

	"gorm.io/gorm"
)

// ClickHouse tables are created directly; AutoMigrate cannot express the
// MergeTree ordering keys.
var clickhouseTables = []string{
	`CREATE TABLE IF NOT EXISTS answer_logs (
		id UInt64,
		request_id String,
		query_hash String,
		query_preview String,
		route LowCardinality(String),
		complexity LowCardinality(String),
		path String,
		cache_hit UInt8,
		cache_source LowCardinality(String),
		similarity Float64,
		keyword_score Float64,
		judge_verdict LowCardinality(String),
		judge_reason String,
		model String,
		tokens_input Int64,
		tokens_output Int64,
		cost Float64,
		cost_saved Float64,
		latency_ms Int64,
		error_message String,
		created_at DateTime DEFAULT now()
	) ENGINE = MergeTree()
	ORDER BY (route, created_at)`,

	`CREATE TABLE IF NOT EXISTS knowledge_documents (
		id String,
		title String,
		content String,
		source String,
		metadata String,
		embedding String,
		created_at DateTime DEFAULT now(),
		updated_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY id`,
}

func migrateClickHouse(db *gorm.DB) error {
	for _, ddl := range clickhouseTables {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("clickhouse migration: %w", err)
		}
	}
	return nil
}
