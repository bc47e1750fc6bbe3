package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kindling-app/kindling/internal/config"
)

// NewRouter builds the gin engine and mounts all provided registrars under
// /api/v1.
func NewRouter(cfg *config.Config, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	for _, r := range registrars {
		r.Register(api)
	}
	return router
}

// StartHTTPServer boots the HTTP API and blocks until it exits.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return NewRouter(cfg, registrars...).Run(addr)
}
