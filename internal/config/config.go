package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Quota struct {
		DailyLikeLimit int  // -1 = unlimited
		DailyPassLimit int  // -1 = unlimited
		UnlimitedLikes bool // overrides DailyLikeLimit
		Timezone       string
	}

	Undo struct {
		WindowSeconds        int
		SweepIntervalSeconds int
	}
}

func New() *Config {
	// Optional .env for local development; real env vars always win.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matchd")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "kindling")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Quotas. The day boundary is an explicit setting: "today" for swipe
	// counting runs midnight-to-midnight in this timezone.
	cfg.Quota.DailyLikeLimit = getEnvInt("QUOTA_DAILY_LIKE_LIMIT", 20)
	cfg.Quota.DailyPassLimit = getEnvInt("QUOTA_DAILY_PASS_LIMIT", -1)
	cfg.Quota.UnlimitedLikes = isTruthy(os.Getenv("QUOTA_UNLIMITED_LIKES"))
	cfg.Quota.Timezone = getEnvDefault("QUOTA_TIMEZONE", "UTC")

	// Undo
	cfg.Undo.WindowSeconds = getEnvInt("UNDO_WINDOW_SECONDS", 10)
	cfg.Undo.SweepIntervalSeconds = getEnvInt("UNDO_SWEEP_INTERVAL_SECONDS", 30)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
