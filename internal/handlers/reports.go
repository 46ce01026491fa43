package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"phishscore/internal/report"

	"github.com/gin-gonic/gin"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 200
)

// ReportLister is satisfied by *report.PostgresSink.
type ReportLister interface {
	Recent(ctx context.Context, limit int) ([]report.Report, error)
}

type ReportsHandler struct {
	Store ReportLister
}

func (h *ReportsHandler) List(c *gin.Context) {
	limit := defaultReportLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxReportLimit)
	}

	reports, err := h.Store.Recent(c.Request.Context(), limit)
	if err != nil {
		traceID, _ := c.Get("trace_id")
		slog.Error("Failed to list reports", "trace_id", traceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reports"})
		return
	}
	if reports == nil {
		reports = []report.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}
