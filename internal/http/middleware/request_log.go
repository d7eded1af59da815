package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

// Probe and scrape routes are logged at debug unless they fail.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one access line per request. The level follows the
// status class. Learner ids are fingerprinted by the logger's redaction.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := accessFields(c, route, status, time.Since(start))

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		case quietRoutes[route]:
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func accessFields(c *gin.Context, route string, status int, took time.Duration) []interface{} {
	ctx := c.Request.Context()
	fields := []interface{}{
		"method", c.Request.Method,
		"route", route,
		"status", status,
		"took_ms", took.Milliseconds(),
		"bytes", c.Writer.Size(),
		"client_ip", c.ClientIP(),
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		fields = appendNonEmpty(fields, "request_id", td.RequestID)
		fields = appendNonEmpty(fields, "trace_id", td.TraceID)
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
		fields = append(fields, "user_id", rd.UserID.String(), "role", rd.Role)
	}
	if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
		fields = append(fields, "error", errs.Last().Err)
	}
	return fields
}

func appendNonEmpty(fields []interface{}, key, value string) []interface{} {
	if value == "" {
		return fields
	}
	return append(fields, key, value)
}
