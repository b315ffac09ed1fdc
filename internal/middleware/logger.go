package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jengzang/anchor-locator-go/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Logger middleware assigns a request ID, stores a request-scoped logger on
// the request context and logs each request once it completes.
func Logger(logger logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Noop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		reqLogger := logger.With(logging.String("request_id", requestID))
		ctx := logging.ContextWithRequestID(c.Request.Context(), requestID)
		ctx = logging.ContextWithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("latency", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLogger.Error(ctx, "request failed", fields...)
		case status >= 400:
			reqLogger.Warn(ctx, "request rejected", fields...)
		default:
			reqLogger.Info(ctx, "request handled", fields...)
		}
	}
}
