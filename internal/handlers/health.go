package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"phishscore/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// HealthChecker is satisfied by *report.PostgresSink.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CacheReporter is satisfied by any *telemetry.TTLCache.
type CacheReporter interface {
	Stats() telemetry.CacheStats
}

type HealthHandler struct {
	DB         HealthChecker
	Telemetry  *telemetry.Registry
	Caches     []CacheReporter
	AppVersion string
	StartTime  time.Time
}

func NewHealthHandler(db HealthChecker, reg *telemetry.Registry, appVersion string, caches ...CacheReporter) *HealthHandler {
	return &HealthHandler{
		DB:         db,
		Telemetry:  reg,
		Caches:     caches,
		AppVersion: appVersion,
		StartTime:  time.Now(),
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := gin.H{
		"status":  "ok",
		"version": h.AppVersion,
		"uptime":  time.Since(h.StartTime).String(),
		"memory": gin.H{
			"alloc_mb":       memStats.Alloc / 1024 / 1024,
			"sys_mb":         memStats.Sys / 1024 / 1024,
			"num_goroutines": runtime.NumGoroutine(),
		},
	}

	dbStatus := "not configured"
	if h.DB != nil {
		dbStatus = "healthy"
		if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}
	response["database"] = gin.H{"status": dbStatus}

	providers := []telemetry.ProviderStats{}
	overall := telemetry.Healthy
	if h.Telemetry != nil {
		providers = h.Telemetry.AllStats()
		for _, ps := range providers {
			if ps.State == telemetry.Unhealthy {
				overall = telemetry.Unhealthy
				break
			}
			if ps.State == telemetry.Degraded {
				overall = telemetry.Degraded
			}
		}
	}
	response["providers"] = providers
	response["overall_provider_health"] = string(overall)

	caches := make([]telemetry.CacheStats, 0, len(h.Caches))
	for _, cr := range h.Caches {
		caches = append(caches, cr.Stats())
	}
	response["caches"] = caches

	c.JSON(http.StatusOK, response)
}
