package service

import (
	"fmt"
	"math"

	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"

	"go.uber.org/zap"
)

// Input — всё, что нужно для расчёта размера новой позиции.
type Input struct {
	Symbol       string
	Price        float64
	Strength     float64
	Direction    models.Direction
	Volatility   float64 // ATR/close
	Instrument   models.Instrument
	Equity       float64
	Tradable     float64
	CoinNotional float64
}

// Result: Contracts == 0 — не открывать, Reason объясняет почему.
type Result struct {
	Contracts float64
	Leverage  int
	Margin    float64
	Notional  float64
	Reason    string
}

type Sizer struct {
	cfg config.RiskConfig
	log *zap.Logger
}

func NewSizer(cfg *config.Config, log *zap.Logger) *Sizer {
	return &Sizer{cfg: cfg.Risk, log: log.Named("sizer")}
}

// Leverage: полоса по уровню волатильности, позиция в полосе — по силе сигнала.
func (s *Sizer) Leverage(strength, volatility float64) int {
	band := s.cfg.LeverageHighVol
	if volatility <= s.cfg.LowVolatility {
		band = s.cfg.LeverageLowVol
	}
	strength = helper.Clamp(strength, 0, 1)
	lev := int(math.Round(float64(band[0]) + float64(band[1]-band[0])*strength))
	lev = max(1, min(lev, s.cfg.MaxLeverage))
	if volatility > s.cfg.HighVolatility {
		lev = max(1, lev/2)
	}
	return lev
}

// Size проходит гейты по порядку; ни один гейт не увеличивает размер.
func (s *Sizer) Size(in Input) Result {
	lev := s.Leverage(in.Strength, in.Volatility)
	reject := func(format string, args ...any) Result {
		r := Result{Leverage: lev, Reason: fmt.Sprintf(format, args...)}
		s.log.Info("[SIZER] rejected", zap.String("symbol", in.Symbol), zap.String("reason", r.Reason))
		return r
	}

	inst := in.Instrument
	if in.Equity <= 0 {
		return reject("equity %.4f <= 0", in.Equity)
	}
	if ratio := in.CoinNotional / in.Equity; ratio > s.cfg.CoinCap {
		return reject("coin exposure %.2f%% above cap %.0f%%", ratio*100, s.cfg.CoinCap*100)
	}
	if in.Tradable < s.cfg.MinTradable {
		return reject("tradable %.4f below %.2f", in.Tradable, s.cfg.MinTradable)
	}

	perContract := inst.PerContract(in.Price)
	if perContract <= 0 || inst.LotSz <= 0 {
		return reject("bad instrument: perContract=%.6f lot=%.6f", perContract, inst.LotSz)
	}

	dynamicRisk := s.cfg.BaseRisk * (1 + helper.Clamp(in.Strength, 0, 1)*0.5)
	riskBudget := math.Min(in.Tradable*dynamicRisk, in.Equity*s.cfg.RiskEquityCap)
	if need := inst.MinSz * perContract / float64(lev); riskBudget < need {
		return reject("risk budget %.4f below minimum %.4f", riskBudget, need)
	}

	count := math.Min(
		riskBudget/s.cfg.StopFraction/perContract,
		in.Tradable*s.cfg.MaxMarginRatio*float64(lev)/perContract,
	)
	if inst.MaxLmtSz > 0 {
		count = math.Min(count, inst.MaxLmtSz)
	}

	contracts := helper.FloorToLot(count, inst.LotSz)
	if contracts < inst.MinSz {
		return reject("size %.6f below minSz %.6f", contracts, inst.MinSz)
	}

	coinCap := in.Equity * s.cfg.CoinCap
	if in.CoinNotional+contracts*perContract > coinCap {
		contracts = helper.FloorToLot((coinCap-in.CoinNotional)/perContract, inst.LotSz)
		if contracts < inst.MinSz {
			return reject("no room under coin cap")
		}
	}
	tradeCap := in.Equity * s.cfg.TradeCap
	if contracts*perContract > tradeCap {
		contracts = helper.FloorToLot(tradeCap/perContract, inst.LotSz)
		if contracts < inst.MinSz {
			return reject("no room under single-trade cap")
		}
	}

	notional := contracts * perContract
	margin := notional / float64(lev)
	if !helper.MarginFits(margin, in.Tradable) {
		return reject("margin %.4f above tradable %.4f", margin, in.Tradable)
	}

	return Result{Contracts: contracts, Leverage: lev, Margin: margin, Notional: notional}
}
