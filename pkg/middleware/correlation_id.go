package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/delivery-fares/pkg/logger"
)

const (
	CorrelationIDHeader = "X-Request-ID"
	// LegacyCorrelationIDHeader is still sent by older dispatch clients
	LegacyCorrelationIDHeader = "X-Correlation-ID"
	CorrelationIDKey          = "correlation_id"
)

// CorrelationID tags every request with a UUID, reusing the caller's when it sends a valid one.
// The id is echoed in X-Request-ID and attached to the request context for the logger.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingCorrelationID(c)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(CorrelationIDKey, id)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), id))
		c.Writer.Header().Set(CorrelationIDHeader, id)

		c.Next()
	}
}

func incomingCorrelationID(c *gin.Context) string {
	for _, header := range []string{CorrelationIDHeader, LegacyCorrelationIDHeader} {
		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" {
			continue
		}
		if parsed, err := uuid.Parse(raw); err == nil {
			return parsed.String()
		}
	}
	return ""
}

// GetCorrelationID returns the request's correlation id
func GetCorrelationID(c *gin.Context) string {
	if id := c.GetString(CorrelationIDKey); id != "" {
		return id
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}
