package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.0, cfg.Signal.Weights.Sum(), 1e-9)
}

func TestDecodeOverridesDefaults(t *testing.T) {
	src := `
signal:
  threshold: 0.35
  enable_short: false
pending:
  max_wait: 6h
universe:
  high: ["BTC-USDT-SWAP"]
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 0.35, cfg.Signal.Threshold)
	assert.False(t, cfg.Signal.EnableShort)
	assert.Equal(t, 6*time.Hour, cfg.Pending.MaxWait)
	assert.Equal(t, []string{"BTC-USDT-SWAP"}, cfg.Universe.High)
	// незатронутые поля остаются дефолтными
	assert.Equal(t, 0.12, cfg.Signal.Weights.MACD)
	assert.Equal(t, 3, cfg.Rollover.MaxTimes)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Risk, cfg.Risk)
}

func TestValidateRejectsHeavyWeights(t *testing.T) {
	cfg := Default()
	cfg.Signal.Weights.Funding = 0.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadBands(t *testing.T) {
	cfg := Default()
	cfg.Risk.LeverageLowVol = [2]int{4, 2}
	assert.Error(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OKX_API_KEY", "k")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("DATABASE_DSN", "postgres://x")

	cfg := Default()
	applyEnv(newEnv(), cfg)

	assert.Equal(t, "k", cfg.OKX.APIKey)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, "postgres://x", cfg.DB)
}
