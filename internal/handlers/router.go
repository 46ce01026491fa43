// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"net/http"

	"phishscore/internal/metrics"
	"phishscore/internal/middleware"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Analyze *AnalyzeHandler
	Health  *HealthHandler
	// Reports is optional; /api/reports is only mounted when set.
	Reports *ReportsHandler
	Metrics *metrics.Metrics
	Limiter middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RequestContext())
	router.Use(middleware.SecurityHeaders())

	api := router.Group("/api")
	api.GET("/health", cfg.Health.HealthCheck)
	if cfg.Limiter != nil {
		api.POST("/analyze", middleware.RateLimit(cfg.Limiter), cfg.Analyze.Analyze)
	} else {
		api.POST("/analyze", cfg.Analyze.Analyze)
	}
	if cfg.Reports != nil {
		api.GET("/reports", cfg.Reports.List)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
