package infrastructure

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"

	"tcp-user-service/internal/config"
	"tcp-user-service/pkg/logger"
)

// NewMeterProvider builds a provider that exports every instrument as JSON
// to METRICS_OUTPUT_PATH on a fixed interval. The caller owns Shutdown,
// which flushes one last export.
func NewMeterProvider(cfg *config.Config, l *zap.Logger) (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(logger.OpenOutput(cfg.Metrics.OutputPath)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	interval := time.Duration(cfg.Metrics.ExportIntervalSeconds) * time.Second
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.Logger.ServiceName),
		attribute.String("service.version", cfg.Logger.ServiceVersion),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	l.Info("metrics export enabled",
		zap.String("output", cfg.Metrics.OutputPath),
		zap.Duration("interval", interval),
	)
	return mp, nil
}
