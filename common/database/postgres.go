package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mining-etl/common/config"

	_ "github.com/lib/pq"
)

// 批处理任务的连接池默认值：同一时刻只有一个写事务和少量读查询
const (
	DefaultMaxConns        = 4
	DefaultMaxIdle         = 2
	DefaultConnMaxLifetime = 30 * time.Minute
)

// NewPostgresDB 打开 warehouse 连接池并 ping
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ConfigurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}

	return db, nil
}

// ConfigurePool 应用连接池参数，未设置（<=0）的项使用默认值
func ConfigurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	if maxIdle > maxConns {
		maxIdle = maxConns
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = DefaultConnMaxLifetime
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

// Close 关闭连接池，nil 时忽略
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
