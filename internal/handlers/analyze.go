// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"phishscore/internal/analyzer"
	"phishscore/internal/models"
	"phishscore/internal/report"
	"phishscore/internal/scoring"
	"phishscore/internal/urlcheck"

	"github.com/gin-gonic/gin"
)

// URLAnalyzer is satisfied by *analyzer.Analyzer.
type URLAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) (*models.Analysis, error)
}

type AnalyzeHandler struct {
	Analyzer URLAnalyzer
	Sink     report.Sink
	now      func() time.Time
}

func NewAnalyzeHandler(a URLAnalyzer, sink report.Sink) *AnalyzeHandler {
	return &AnalyzeHandler{Analyzer: a, Sink: sink, now: time.Now}
}

type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

type analyzeResponse struct {
	*models.Analysis
	ReportID     string `json:"report_id,omitempty"`
	ScoreDisplay string `json:"score_display"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
}

func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a url field"})
		return
	}

	target, err := urlcheck.Normalize(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Analyzer.Analyze(c.Request.Context(), target)
	switch {
	case errors.Is(err, analyzer.ErrMalformedURL):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "url": target})
		return
	case err != nil && result == nil:
		traceID, _ := c.Get("trace_id")
		slog.Error("Analysis failed", "trace_id", traceID, "url", target, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	resp := analyzeResponse{
		Analysis:     result,
		ScoreDisplay: scoring.FormatScore(result.Score),
		Message:      scoring.Verdict(result.Verdict).Message(),
		ReportID:     h.save(c, result),
	}

	if errors.Is(err, analyzer.ErrContentUnavailable) {
		resp.Error = err.Error()
		c.JSON(http.StatusBadGateway, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// save persists the report and returns its id. Sink failures are logged; the
// analysis is still returned to the caller.
func (h *AnalyzeHandler) save(c *gin.Context, result *models.Analysis) string {
	if h.Sink == nil {
		return ""
	}
	r := report.NewReport(result, h.now())
	if err := h.Sink.Save(c.Request.Context(), r); err != nil {
		traceID, _ := c.Get("trace_id")
		slog.Error("Failed to save report", "trace_id", traceID, "url", result.URL, "error", err)
		return ""
	}
	return r.ID.String()
}
