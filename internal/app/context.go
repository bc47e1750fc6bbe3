package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/cache"
	"github.com/kindling-app/kindling/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, Logger, config).
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config
}

// New creates a new AppContext.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
	}
}
