// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const TraceIDKey contextKey = "trace_id"

// TraceID returns the request's trace id, or "" outside a request.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

const traceHeader = "X-Trace-Id"

// RequestContext tags each request with a short trace id, reusing a
// well-formed X-Trace-Id from the caller, and logs the outcome.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()[:8]
		}
		begin := time.Now()

		c.Set("trace_id", traceID)
		c.Header(traceHeader, traceID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), TraceIDKey, traceID))

		c.Next()

		attrs := []any{
			"trace_id", traceID,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"elapsed_ms", time.Since(begin).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			slog.Warn("Request failed", attrs...)
			return
		}
		slog.Info("Request completed", attrs...)
	}
}

func validTraceID(id string) bool {
	if len(id) < 8 || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			traceID := c.GetString("trace_id")
			slog.Error("Handler panicked", "trace_id", traceID, "panic", fmt.Sprint(rec), "route", c.FullPath())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":    "internal error",
				"trace_id": traceID,
			})
		}()
		c.Next()
	}
}
