package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tcp-user-service/internal/config"
	"tcp-user-service/internal/metrics"
)

func TestNewMeterProvider_ExportsOnShutdown(t *testing.T) {
	out := filepath.Join(t.TempDir(), "metrics.json")
	cfg := &config.Config{
		Metrics: config.MetricsConfig{Enabled: true, OutputPath: out, ExportIntervalSeconds: 3600},
		Logger:  config.LoggerConfig{ServiceName: "tcp-user-service", ServiceVersion: "test"},
	}

	mp, err := NewMeterProvider(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	m, err := metrics.New(mp.Meter(metrics.MeterName))
	require.NoError(t, err)
	m.Record(context.Background(), "create", 200, time.Millisecond)

	require.NoError(t, mp.Shutdown(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tcpusers.requests")
	assert.Contains(t, string(data), "tcpusers.request.duration")
	assert.Contains(t, string(data), "tcp-user-service")
}
