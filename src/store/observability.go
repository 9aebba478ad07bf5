package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "userapi/src/store"

type queryMetrics struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// Option configures a UserStore.
type Option func(*UserStore)

// WithLogger enables query logging through logger. Errors and slow queries
// are always logged; every query is logged when WithQueryLogging is set.
func WithLogger(logger *slog.Logger) Option {
	return func(s *UserStore) { s.logger = logger }
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *UserStore) { s.tracer = tracer }
}

// WithMeter overrides the global OpenTelemetry meter.
func WithMeter(meter metric.Meter) Option {
	return func(s *UserStore) { s.metrics = newQueryMetrics(meter) }
}

func WithSlowQueryThreshold(d time.Duration) Option {
	return func(s *UserStore) { s.slowQuery = d }
}

func WithQueryLogging(enabled bool) Option {
	return func(s *UserStore) { s.logQueries = enabled }
}

func defaultTracer() trace.Tracer { return otel.Tracer(instrumentationName) }

func defaultMetrics() *queryMetrics { return newQueryMetrics(otel.Meter(instrumentationName)) }

func newQueryMetrics(meter metric.Meter) *queryMetrics {
	count, _ := meter.Int64Counter("users.store.query.count",
		metric.WithDescription("Number of SQL statements executed against the users table"),
		metric.WithUnit("{query}"),
	)
	duration, _ := meter.Float64Histogram("users.store.query.duration",
		metric.WithDescription("SQL statement duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	errs, _ := meter.Int64Counter("users.store.query.errors",
		metric.WithDescription("Number of failed SQL statements"),
		metric.WithUnit("{error}"),
	)
	return &queryMetrics{count: count, duration: duration, errors: errs}
}

// observe runs fn inside a span and records metrics and logs for it.
// sql.ErrNoRows is an expected outcome and is not treated as a failure.
func (s *UserStore) observe(ctx context.Context, operation, query string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "users."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.db.DriverName()),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", s.table),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	failed := err
	if errors.Is(err, sql.ErrNoRows) {
		failed = nil
	}
	if failed != nil {
		span.RecordError(failed)
		span.SetStatus(codes.Error, failed.Error())
	}

	s.recordMetrics(ctx, operation, elapsed, failed)
	s.logQuery(ctx, operation, query, elapsed, failed)
	return err
}

func (s *UserStore) recordMetrics(ctx context.Context, operation string, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.system", s.db.DriverName()),
	)
	s.metrics.count.Add(ctx, 1, attrs)
	s.metrics.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if err != nil {
		s.metrics.errors.Add(ctx, 1, attrs)
	}
}

func (s *UserStore) logQuery(ctx context.Context, operation, query string, elapsed time.Duration, err error) {
	if s.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Duration("duration", elapsed),
	}
	if s.logQueries {
		attrs = append(attrs, slog.String("query", query))
	}

	switch {
	case err != nil:
		s.logger.LogAttrs(ctx, slog.LevelError, "query failed", append(attrs, slog.String("error", err.Error()))...)
	case elapsed > s.slowQuery:
		s.logger.LogAttrs(ctx, slog.LevelWarn, "slow query", attrs...)
	case s.logQueries:
		s.logger.LogAttrs(ctx, slog.LevelDebug, "query executed", attrs...)
	}
}
