package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RegisterRequestsTotal   metric.Int64Counter
	RegisterDurationSeconds metric.Float64Histogram
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter

	NearbySearchesTotal           metric.Int64Counter
	NearbyCacheHitsTotal          metric.Int64Counter
	NearbyExcludedPointsTotal     metric.Int64Counter
	NearbyUpstreamDurationSeconds metric.Float64Histogram
	SymptomChecksTotal            metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after tracer.InitTracingAndMetrics for the instruments to be exported.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("MedGuide")
		m := &AppMetrics{}

		m.RegisterRequestsTotal = mustCounter(meter, "register_requests_total",
			"Total number of register requests completed", "{request}")
		m.RegisterDurationSeconds = mustHistogram(meter, "register_duration_seconds",
			"Duration of register requests in seconds")
		m.DbQueryDurationSeconds = mustHistogram(meter, "db_query_duration_seconds",
			"Duration of database queries in seconds")
		m.DbQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		m.NearbySearchesTotal = mustCounter(meter, "nearby_searches_total",
			"Total number of nearby hospital and pharmacy searches", "{search}")
		m.NearbyCacheHitsTotal = mustCounter(meter, "nearby_cache_hits_total",
			"Nearby searches answered from the result cache", "{search}")
		m.NearbyExcludedPointsTotal = mustCounter(meter, "nearby_excluded_points_total",
			"Upstream places dropped for unusable coordinates", "{point}")
		m.NearbyUpstreamDurationSeconds = mustHistogram(meter, "nearby_upstream_duration_seconds",
			"Duration of Overpass and Nominatim calls in seconds")
		m.SymptomChecksTotal = mustCounter(meter, "symptom_checks_total",
			"Total number of symptom checks by outcome", "{check}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

func mustCounter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, description string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// Get returns the global AppMetrics instance, initializing it against the
// current MeterProvider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// ObserveDBQuery records the duration of a query and counts it as an error when err is set.
func (m *AppMetrics) ObserveDBQuery(ctx context.Context, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
