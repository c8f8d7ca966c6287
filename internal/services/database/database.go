package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the relational store behind the answer log and the knowledge base.
type DB struct {
	*gorm.DB
	config     models.DatabaseConfig
	driverName string
}

func New(config models.DatabaseConfig) (*DB, error) {
	dialector, driverName, err := openDialector(config)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if config.Type == models.ClickHouse {
		// the clickhouse driver has incomplete prepared statement support
		gormCfg.PrepareStmt = false
	}

	gormDB, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Type, err)
	}

	db := &DB{DB: gormDB, config: config, driverName: driverName}
	db.setConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", config.Type, err)
	}

	fiberlog.Infof("Database: Connected to %s", config.Type)
	return db, nil
}

func (db *DB) DriverName() string {
	return db.driverName
}

func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the answer_logs and knowledge_documents tables.
func (db *DB) Migrate() error {
	if db.config.Type == models.ClickHouse {
		return migrateClickHouse(db.DB)
	}
	if err := db.AutoMigrate(&models.AnswerLog{}, &models.KnowledgeDocument{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (db *DB) setConnectionPool() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	if db.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	}
	if db.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	}
	if db.config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(db.config.ConnMaxLifetime) * time.Second)
	}
}
