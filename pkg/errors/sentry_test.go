package errors

import (
	"net/http"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSentryConfig(t *testing.T) {
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("SENTRY_TRACES_SAMPLE_RATE", "")

	cfg := DefaultSentryConfig("fares", "production")

	assert.False(t, cfg.Enabled())
	assert.Equal(t, "fares", cfg.ServerName)
	assert.Equal(t, 0.1, cfg.TracesSampleRate)
	assert.Error(t, InitSentry(cfg))
}

func TestDefaultSentryConfig_RatesFromEnv(t *testing.T) {
	t.Setenv("SENTRY_SAMPLE_RATE", "0.5")
	t.Setenv("SENTRY_TRACES_SAMPLE_RATE", "0.25")

	cfg := DefaultSentryConfig("fares", "development")

	assert.Equal(t, 0.5, cfg.SampleRate)
	assert.Equal(t, 0.25, cfg.TracesSampleRate)
}

func TestShouldReportAndLevel(t *testing.T) {
	tests := []struct {
		status int
		report bool
		level  sentry.Level
	}{
		{http.StatusOK, false, sentry.LevelInfo},
		{http.StatusBadRequest, false, sentry.LevelWarning},
		{http.StatusNotFound, false, sentry.LevelWarning},
		{http.StatusInternalServerError, true, sentry.LevelError},
		{http.StatusServiceUnavailable, true, sentry.LevelError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.report, ShouldReport(tt.status), "status %d", tt.status)
		assert.Equal(t, tt.level, Level(tt.status), "status %d", tt.status)
	}
}
