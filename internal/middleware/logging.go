package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

const correlationHeader = "X-Correlation-Id"

// CorrelationID ensures every request carries a correlation id, taken from
// the incoming header or generated. It is echoed on the response and
// threaded through the request context so downstream components can tag
// their logs with it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(correlationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set("correlationId", cid)
		c.Writer.Header().Set(correlationHeader, cid)
		c.Request = c.Request.WithContext(domain.WithCorrelationID(c.Request.Context(), cid))
		c.Next()
	}
}

// GetCorrelationID returns the request's correlation id, if set.
func GetCorrelationID(c *gin.Context) string {
	if cid, ok := c.Get("correlationId"); ok {
		return cid.(string)
	}
	return ""
}

// RequestLogger logs one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("correlationId", GetCorrelationID(c)))
	}
}
