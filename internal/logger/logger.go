// Package logger owns the process-wide slog.Logger. Request-path code gets
// its logger through the app context; the package-level helpers cover the
// stretch before wiring is complete (config loading, migrations, seeding)
// and one-off tools like cmd/seed.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kindling-app/kindling/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config selects output shape for the global logger. Zero values fall back
// to text at info level with no component tag.
type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
	cfg    = Config{Level: "info", Format: FormatText}
)

// InitFromConfig wires the global logger from the loaded app config. A nil
// config keeps whatever settings are already in effect.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(nil)
		return
	}
	Init(&Config{
		Level:      c.Log.Level,
		Format:     Format(c.Log.Format),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
	})
}

// Init replaces the global logger. Calling it again later, for example after
// a config reload, is fine.
func Init(c *Config) {
	mu.Lock()
	defer mu.Unlock()

	if c != nil {
		cfg = *c
	}

	base := slog.New(newHandler(cfg))
	if cfg.Component != "" {
		base = base.With("component", cfg.Component)
	}
	logger = base
}

func newHandler(c Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.WithSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// text output gets a human-readable timestamp; JSON keeps RFC 3339
			if a.Key == slog.TimeKey && c.Format == FormatText {
				return slog.String(slog.TimeKey, time.Now().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}

	if strings.EqualFold(string(c.Format), string(FormatJSON)) {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

// L returns the global logger, initializing the default one on first use.
func L() *slog.Logger {
	mu.RLock()
	if logger != nil {
		defer mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	Init(nil)

	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a child of the global logger carrying extra attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
