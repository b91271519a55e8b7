package middleware

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/delivery-fares/pkg/errors"
)

// SentryMiddleware attaches a Sentry hub to every request and reports panics
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorReporter sends errors recorded on 5xx responses to Sentry
func ErrorReporter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		statusCode := c.Writer.Status()
		if !errors.ShouldReport(statusCode) {
			return
		}

		hub := sentrygin.GetHubFromContext(c)
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}

		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetRequest(c.Request)
			scope.SetLevel(errors.Level(statusCode))
			scope.SetTag("http.method", c.Request.Method)
			scope.SetTag("http.status_code", fmt.Sprintf("%d", statusCode))
			scope.SetTag("endpoint", c.FullPath())
			if id := GetCorrelationID(c); id != "" {
				scope.SetTag("correlation_id", id)
			}

			if len(c.Errors) == 0 {
				hub.CaptureMessage(fmt.Sprintf("HTTP %d %s %s", statusCode, c.Request.Method, c.FullPath()))
				return
			}
			for _, ginErr := range c.Errors {
				hub.CaptureException(ginErr.Err)
			}
		})
	}
}
