package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes shared by the fare engine
const (
	DBSystemKey     = attribute.Key("db.system")
	DBOperationKey  = attribute.Key("db.operation")
	DBCollectionKey = attribute.Key("db.collection")
	CacheKeyKey     = attribute.Key("cache.key")
	CacheHitKey     = attribute.Key("cache.hit")
	FareAreaKey     = attribute.Key("fare.area")
	FareDistanceKey = attribute.Key("fare.distance_km")
	FareTotalKey    = attribute.Key("fare.total")
	FareSurgeKey    = attribute.Key("fare.surge_multiplier")
	SurgeRuleIDKey  = attribute.Key("fare.surge_rule_id")
	FareConfigIDKey = attribute.Key("fare.configuration_id")
)

// TraceStoreCall wraps a storage round trip in a client span.
// system is the backend ("postgresql", "firestore", "memory"), collection the table or collection.
func TraceStoreCall(ctx context.Context, tracerName, system, operation, collection string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("%s.%s", system, operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			DBSystemKey.String(system),
			DBOperationKey.String(operation),
			DBCollectionKey.String(collection),
		),
	)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
