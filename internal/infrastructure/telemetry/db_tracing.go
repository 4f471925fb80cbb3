package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans
type DBTracingConfig struct {
	Enabled            bool
	DBName             string        // sqlite or postgresql
	SlowQueryThreshold time.Duration // queries at or above it get db.slow_query
	WithQueryVariables bool          // keep bound values in db.statement; leaks patient data
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db along with timing callbacks that
// flag slow statements on the span otelgorm opened. Passing a disabled config
// leaves db untouched.
func RegisterDBTracing(db *gorm.DB, tp trace.TracerProvider, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	// registered ahead of otelgorm so the after hooks see the span before it ends
	if err := registerQueryTiming(db, cfg.SlowQueryThreshold); err != nil {
		return err
	}

	opts := []otelgorm.Option{
		otelgorm.WithTracerProvider(tp),
		otelgorm.WithDBName(cfg.DBName),
	}
	if !cfg.WithQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("database tracing enabled",
		zap.String("db_name", cfg.DBName),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

func registerQueryTiming(db *gorm.DB, threshold time.Duration) error {
	after := func(tx *gorm.DB) { markQuery(tx, threshold) }
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("registry:timing_before_create", startQuery); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("registry:timing_after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("registry:timing_before_query", startQuery); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("registry:timing_after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("registry:timing_before_update", startQuery); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("registry:timing_after_update", after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("registry:timing_before_delete", startQuery); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("registry:timing_after_delete", after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("registry:timing_before_row", startQuery); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("registry:timing_after_row", after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("registry:timing_before_raw", startQuery); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("registry:timing_after_raw", after)
}

func startQuery(tx *gorm.DB) {
	if tx.Statement.Context != nil {
		tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
	}
}

func markQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed >= threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("threshold_ms", threshold.Milliseconds()),
		))
	}
}
