package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestSampleRate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{"explicit", Config{SampleRate: 0.3, Environment: "production"}, 0.3},
		{"production default", Config{Environment: "production"}, 0.1},
		{"staging default", Config{Environment: "staging"}, 0.5},
		{"development default", Config{Environment: "development"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleRate(tt.cfg))
		})
	}
}

func TestTraceStoreCall(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	require.NoError(t, TraceStoreCall(ctx, "test", "postgresql", "select", "fare_configurations", func(context.Context) error { return nil }))

	boom := errors.New("boom")
	err := TraceStoreCall(ctx, "test", "firestore", "create", "surgePricing", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "postgresql.select", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "firestore.create", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
