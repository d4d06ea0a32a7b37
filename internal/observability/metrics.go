package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ListMetrics holds the instruments recorded around list field resolution.
type ListMetrics struct {
	resolveDuration  metric.Float64Histogram
	resolveCounter   metric.Int64Counter
	errorCounter     metric.Int64Counter
	resultsCount     metric.Int64Histogram
	countCacheHits   metric.Int64Counter
	countCacheMisses metric.Int64Counter
}

// InitListMetrics creates the list resolution instruments on the global meter.
func InitListMetrics() (*ListMetrics, error) {
	meter := otel.Meter("gql-listkit")

	resolveDuration, err := meter.Float64Histogram(
		"list.resolve.duration",
		metric.WithDescription("Duration of list field resolutions in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve duration histogram: %w", err)
	}

	resolveCounter, err := meter.Int64Counter(
		"list.resolve.total",
		metric.WithDescription("Total number of list field resolutions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"list.resolve.errors",
		metric.WithDescription("Total number of failed list field resolutions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	resultsCount, err := meter.Int64Histogram(
		"list.results.count",
		metric.WithDescription("Number of results returned per list resolution"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create results count histogram: %w", err)
	}

	countCacheHits, err := meter.Int64Counter(
		"list.count_cache.hits",
		metric.WithDescription("Number of collection count cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create count cache hits counter: %w", err)
	}

	countCacheMisses, err := meter.Int64Counter(
		"list.count_cache.misses",
		metric.WithDescription("Number of collection count cache misses"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create count cache misses counter: %w", err)
	}

	return &ListMetrics{
		resolveDuration:  resolveDuration,
		resolveCounter:   resolveCounter,
		errorCounter:     errorCounter,
		resultsCount:     resultsCount,
		countCacheHits:   countCacheHits,
		countCacheMisses: countCacheMisses,
	}, nil
}

// RecordResolve records one list resolution with its duration and outcome.
func (m *ListMetrics) RecordResolve(ctx context.Context, entity string, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("entity", entity),
		attribute.Bool("failed", failed),
	}
	m.resolveDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.resolveCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if failed {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
	}
}

// RecordResultsCount records the size of one returned page.
func (m *ListMetrics) RecordResultsCount(ctx context.Context, entity string, count int64) {
	if m == nil {
		return
	}
	m.resultsCount.Record(ctx, count, metric.WithAttributes(attribute.String("entity", entity)))
}

// RecordCountCache records one count cache lookup outcome.
func (m *ListMetrics) RecordCountCache(ctx context.Context, entity string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("entity", entity))
	if hit {
		m.countCacheHits.Add(ctx, 1, attrs)
	} else {
		m.countCacheMisses.Add(ctx, 1, attrs)
	}
}
