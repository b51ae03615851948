package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "expensox-test",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)

	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.ForceFlush(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewLoggerProvider_EnabledWithoutCollector(t *testing.T) {
	// The exporter connects lazily, so construction succeeds and records
	// buffer until a collector shows up.
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "expensox-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.True(t, provider.IsEnabled())

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewZapOTELCore_DisabledProviderIsNop(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "expensox-test",
		LoggerProvider: nil,
		Level:          zapcore.InfoLevel,
	})
	require.NotNil(t, core)
	assert.False(t, core.Enabled(zapcore.InfoLevel))

	provider, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	core = NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "expensox-test",
		LoggerProvider: provider,
		Level:          zapcore.InfoLevel,
	})
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestNewZapOTELCore_AppliesLevelFilter(t *testing.T) {
	ctx := context.Background()
	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "expensox-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	defer provider.Shutdown(ctx)

	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "expensox-test",
		LoggerProvider: provider,
		Level:          zapcore.WarnLevel,
	})

	_, filtered := core.(*levelFilterCore)
	require.True(t, filtered)
	assert.False(t, core.Enabled(zapcore.DebugLevel))
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	logger := zap.New(core)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0].Message)
	assert.Equal(t, "error", entries[1].Message)
}

func TestLevelFilterCore_WithPreservesFilter(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	child := core.With([]zapcore.Field{zap.String("service", "expensox")})
	childFiltered, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, childFiltered.minLevel)

	zap.New(child).Warn("tagged")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Context, zap.String("service", "expensox"))
}

func TestNewBridgedLogger_WritesToBothCores(t *testing.T) {
	consoleCore, consoleLogs := observer.New(zapcore.InfoLevel)
	otelCore, otelLogs := observer.New(zapcore.InfoLevel)

	logger := NewBridgedLogger(consoleCore, otelCore)
	logger.Info("bridged", zap.String("key", "value"))
	logger.Debug("filtered out")

	require.Len(t, consoleLogs.All(), 1)
	require.Len(t, otelLogs.All(), 1)
	assert.Equal(t, "bridged", consoleLogs.All()[0].Message)
	assert.Contains(t, otelLogs.All()[0].Context, zap.String("key", "value"))
}
