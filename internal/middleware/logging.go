package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "requestID"
)

// RequestLogger tags each request with an id (reusing an incoming
// X-Request-ID) and logs it once the handler chain is done. 5xx logs at
// Error, 4xx at Warn, health probes at Debug and everything else at Info.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		status := c.Writer.Status()
		fields := append(requestFields(c),
			zap.Int("status_code", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("gin_errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Incoming Request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Incoming Request", fields...)
		case c.FullPath() == "/health":
			logger.Debug("Incoming Request", fields...)
		default:
			logger.Info("Incoming Request", fields...)
		}
	}
}

// requestFields identifies the request and, once RequireAuth ran, its user.
func requestFields(c *gin.Context) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	}
	if id := c.GetString(ContextRequestID); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if userID := c.GetString(ContextUserID); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	return fields
}
