package middleware

import (
	"time"

	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logging writes one structured line per request once it has been served.
func Logging(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := logger.WithRequestID(log, logger.RequestIDFromContext(c.Request.Context()))

		entry.Debugf("request started: %s %s", c.Request.Method, c.Request.URL.Path)

		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case c.Writer.Status() >= 500:
			entry.WithFields(fields).Error("request completed")
		case c.Writer.Status() >= 400:
			entry.WithFields(fields).Warn("request completed")
		default:
			entry.WithFields(fields).Info("request completed")
		}
	}
}
