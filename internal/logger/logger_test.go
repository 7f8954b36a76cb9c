package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchpad.log")
	log, err := New(&Config{Level: "info", LogFile: path, MaxSize: 1, Quiet: true})
	require.NoError(t, err)

	log.WithOperation("buy").Info("Trade executed")
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Trade executed"`)
	assert.Contains(t, string(data), `"correlation_id"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestCompactCore_FiltersFields(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(NewCompactCore(inner))

	mint := solana.NewWallet().PublicKey().String()
	log.With(zap.String("correlation_id", "x")).Info("Trade executed",
		zap.String("mint", mint),
		zap.Uint64("sol_amount", 10),
		zap.Uint64("virtual_sol_reserves", 30))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, shortenAddress(mint), ctx["mint"])
	assert.EqualValues(t, 10, ctx["sol_amount"])
	assert.NotContains(t, ctx, "virtual_sol_reserves")
	assert.NotContains(t, ctx, "correlation_id")
}

func TestWrap(t *testing.T) {
	inner, logs := observer.New(zapcore.InfoLevel)
	log := Wrap(zap.New(inner))

	mint := solana.NewWallet().PublicKey()
	log.WithCurve(mint).Info("Curve created")
	log.LogError("Trade failed", assert.AnError)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, mint.String(), logs.All()[0].ContextMap()["mint"])
	assert.Equal(t, assert.AnError.Error(), logs.All()[1].ContextMap()["error"])
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "abc", shortenAddress("abc"))
	assert.Equal(t, "1234...cdef", shortenAddress("1234567890abcdef"))
}
