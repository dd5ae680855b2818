package service

import (
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
)

// EntryPrice — цена лимитного входа. false — сигнал слишком слабый для входа.
//
// Сильный сигнал входит по текущей цене; средний ставит ордер чуть выше
// сильной поддержки (long) или чуть ниже сильного сопротивления (short).
func EntryPrice(cfg config.EntryConfig, sig models.SignalResult, current float64) (float64, bool) {
	if current <= 0 {
		return 0, false
	}
	switch {
	case sig.Strength > cfg.StrongSignal:
		return current, true
	case sig.Strength > cfg.MinSignal:
		if sig.Direction == models.Short {
			if sig.Resistance.Strength > cfg.ResistanceStrength && sig.Resistance.Price > 0 {
				return sig.Resistance.Price * (1 - cfg.ResistanceOffset), true
			}
			return current, true
		}
		if sig.Support.Strength > cfg.SupportStrength && sig.Support.Price > 0 {
			return sig.Support.Price * (1 + cfg.SupportOffset), true
		}
		return current, true
	}
	return 0, false
}
