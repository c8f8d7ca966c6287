package database

import (
	"fmt"

	"github.com/Egham-7/pitchside/internal/models"

	"gorm.io/driver/clickhouse"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDialector(config models.DatabaseConfig) (gorm.Dialector, string, error) {
	switch config.Type {
	case models.PostgreSQL:
		return postgres.Open(postgresDSN(config)), "postgres", nil
	case models.MySQL:
		return mysql.Open(mysqlDSN(config)), "mysql", nil
	case models.SQLite:
		if config.FilePath == "" {
			return nil, "", fmt.Errorf("file_path is required for SQLite")
		}
		return sqlite.Open(config.FilePath), "sqlite3", nil
	case models.ClickHouse:
		return clickhouse.New(clickhouse.Config{
			DSN:                    clickhouseDSN(config),
			DefaultCompression:     "LZ4",
			DefaultIndexType:       "minmax",
			DefaultGranularity:     3,
			DefaultTableEngineOpts: "ENGINE=MergeTree() ORDER BY created_at",
		}), "clickhouse", nil
	default:
		return nil, "", fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

func postgresDSN(c models.DatabaseConfig) string {
	if c.DSN != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
}

func mysqlDSN(c models.DatabaseConfig) string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

func clickhouseDSN(c models.DatabaseConfig) string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}
