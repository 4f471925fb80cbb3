package main

import (
	"context"
	"errors"

	"github.com/covidtrack/registry/internal/infrastructure/config"
	"github.com/covidtrack/registry/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// telemetryProviders are shut down when the command returns
type telemetryProviders struct {
	tracer *telemetry.TracerProvider
	logs   *telemetry.LoggerProvider
}

// setupTelemetry starts trace and log export and returns log bridged to the
// collector when log export is on.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryProviders, *zap.Logger, error) {
	tc := cfg.Telemetry
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		Insecure:          tc.Insecure,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.Logs,
		CollectorEndpoint: tc.CollectorEndpoint,
		Insecure:          tc.Insecure,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
	}, log)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, nil, err
	}

	p := &telemetryProviders{tracer: tracer, logs: logs}
	return p, logs.Bridge(log, cfg.App.Name), nil
}

func (p *telemetryProviders) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := errors.Join(p.tracer.Shutdown(ctx), p.logs.Shutdown(ctx)); err != nil {
		log.Warn("telemetry shutdown failed", zap.Error(err))
	}
}

// dbTracing maps the telemetry settings onto query spans for driver
func dbTracing(tc config.TelemetryConfig, driver string) telemetry.DBTracingConfig {
	name := driver
	if driver == config.DriverPostgres {
		name = "postgresql"
	}
	return telemetry.DBTracingConfig{
		Enabled:            tc.Enabled && tc.DBTracing,
		DBName:             name,
		SlowQueryThreshold: tc.SlowQueryThreshold,
	}
}
