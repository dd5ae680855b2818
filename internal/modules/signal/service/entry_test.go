package service

import (
	"testing"

	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"

	"github.com/stretchr/testify/assert"
)

func TestEntryPrice(t *testing.T) {
	cfg := config.Default().Entry
	sig := models.SignalResult{
		Direction:  models.Long,
		Support:    models.Level{Price: 95, Strength: 0.8},
		Resistance: models.Level{Price: 110, Strength: 0.9},
	}

	sig.Strength = 0.85
	px, ok := EntryPrice(cfg, sig, 100)
	assert.True(t, ok)
	assert.Equal(t, 100.0, px)

	sig.Strength = 0.6
	px, ok = EntryPrice(cfg, sig, 100)
	assert.True(t, ok)
	assert.InDelta(t, 95.095, px, 1e-9)

	sig.Support.Strength = 0.6
	px, _ = EntryPrice(cfg, sig, 100)
	assert.Equal(t, 100.0, px, "support not strong enough")

	sig.Direction = models.Short
	px, _ = EntryPrice(cfg, sig, 100)
	assert.InDelta(t, 109.89, px, 1e-9)

	sig.Strength = 0.4
	_, ok = EntryPrice(cfg, sig, 100)
	assert.False(t, ok)
}
