package service

import (
	"fmt"
	"math"

	"swap_engine/internal/helper"
	"swap_engine/internal/indicators"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
)

const remainingEps = 1e-9

// Evaluator — чистая функция: позиция, сигнал и рынок → решение.
type Evaluator struct {
	exit     config.ExitConfig
	rollover config.RolloverConfig
	floatAdd config.FloatAddConfig
	addOn    config.AddOnConfig
	coinCap  float64
}

func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{
		exit:     cfg.Exit,
		rollover: cfg.Rollover,
		floatAdd: cfg.FloatAdd,
		addOn:    cfg.AddOn,
		coinCap:  cfg.Risk.CoinCap,
	}
}

// Evaluate проверяет по приоритету: умный тейк-профит, стопы, доливка в просадке,
// ролловер; доливка по экспозиции — только если ничего не сработало.
func (e *Evaluator) Evaluate(pos *models.Position, sig models.SignalResult, mkt Market) Decision {
	acct := pos.AccountProfitRatio(mkt.Price)
	peak := acct
	if pos.PeakSet && pos.PeakProfit > peak {
		peak = pos.PeakProfit
	}
	d := Decision{Symbol: pos.Symbol, Peak: peak}

	if e.smartTakeProfit(&d, pos, sig, mkt, acct) {
		return d
	}
	if e.stopLoss(&d, pos, mkt, acct, peak) {
		return d
	}
	if e.floatLossAdd(&d, pos, sig, mkt) {
		return d
	}
	if e.rolloverDue(&d, pos, sig, mkt) {
		return d
	}
	e.addByExposure(&d, pos, sig, mkt)
	return d
}

func (e *Evaluator) smartTakeProfit(d *Decision, pos *models.Position, sig models.SignalResult, mkt Market, acct float64) bool {
	lev := float64(max(1, pos.Leverage))
	tp := e.exit.TakeProfits
	tier := 0
	switch {
	case acct >= tp[0]*lev && pos.Remaining >= 1-remainingEps:
		tier = 1
	case acct >= tp[1]*lev && pos.Remaining > 0.5:
		tier = 2
	case acct >= tp[2]*lev:
		tier = 3
	}
	if tier == 0 {
		return false
	}
	d.Tier = tier
	smart := e.exit.Smart

	if sig.Strength > smart.StrongSignal && sig.Direction == pos.Side &&
		acct >= smart.MinRolloverProfit && pos.RolloverCount < e.rollover.MaxTimes {
		d.Action = Rollover
		d.Quantity = pos.Size
		d.Reason = fmt.Sprintf("strong signal rollover at tier %d, account %.1f%%", tier, acct*100)
		return true
	}
	if sig.Strength < smart.WeakSignal {
		d.Action = FullClose
		d.Quantity = pos.Size
		d.Reason = fmt.Sprintf("weak signal take profit at tier %d, account %.1f%%", tier, acct*100)
		return true
	}

	ratio := smart.PartialRatios[tier-1]
	reason := fmt.Sprintf("partial take profit tier %d, account %.1f%%", tier, acct*100)
	level := sig.Resistance
	if pos.Side == models.Short {
		level = sig.Support
	}
	if level.Strength > smart.NearLevelStrength && level.Price > 0 &&
		math.Abs(mkt.Price-level.Price)/mkt.Price < smart.NearLevelPct {
		ratio = math.Min(ratio+smart.NearLevelBoost, 1)
		reason += " near level"
	}
	e.partial(d, pos, mkt.Instrument, ratio, reason)
	return true
}

func (e *Evaluator) stopLoss(d *Decision, pos *models.Position, mkt Market, acct, peak float64) bool {
	tr := e.exit.Trailing
	if peak >= tr.ActivatePeak && peak-acct >= tr.Drawdown {
		d.Action = FullClose
		d.Quantity = pos.Size
		d.Reason = fmt.Sprintf("trailing stop %.1f%% from peak %.1f%%", (peak-acct)*100, peak*100)
		return true
	}

	st := e.exit.Stages
	switch {
	case acct <= st.First && !pos.FirstStopDone:
		d.Stage = 1
		e.partial(d, pos, mkt.Instrument, st.FirstClose, fmt.Sprintf("first stop at %.1f%%", acct*100))
		return true
	case acct <= st.Second && !pos.SecondStopDone:
		d.Stage = 2
		e.partial(d, pos, mkt.Instrument, st.SecondClose, fmt.Sprintf("second stop at %.1f%%", acct*100))
		return true
	case acct <= st.Final:
		d.Action = FullClose
		d.Quantity = pos.Size
		d.Reason = fmt.Sprintf("final stop at %.1f%%", acct*100)
		return true
	}
	return false
}

// partial: доля от исходного размера; если остаток или сама часть меньше minSz — закрываем всё.
func (e *Evaluator) partial(d *Decision, pos *models.Position, inst models.Instrument, ratio float64, reason string) {
	d.Ratio = ratio
	d.Reason = reason
	qty := math.Min(helper.FloorToLot(pos.OriginalSize*ratio, inst.LotSz), pos.Size)
	if ratio >= 1 || qty < inst.MinSz || qty <= 0 || pos.Size-qty < inst.MinSz {
		d.Action = FullClose
		d.Quantity = pos.Size
		d.Reason += " (full)"
		return
	}
	d.Action = PartialClose
	d.Quantity = qty
}

func (e *Evaluator) floatLossAdd(d *Decision, pos *models.Position, sig models.SignalResult, mkt Market) bool {
	cfg := e.floatAdd
	if !cfg.Enabled || pos.FloatAddCount >= cfg.MaxTimes {
		return false
	}
	loss := -pos.PriceProfitRatio(mkt.Price)
	if loss < cfg.LossThreshold || sig.Strength < cfg.SignalRequirement || sig.Direction != pos.Side {
		return false
	}
	sup := sig.Support
	if sup.Strength < cfg.SupportRequirement || sup.Price <= 0 {
		return false
	}
	if math.Abs(mkt.Price-sup.Price)/mkt.Price > cfg.SupportDistance {
		return false
	}

	ratio := helper.Clamp(loss*2, cfg.MinRatio, cfg.MaxRatio)
	qty := helper.FloorToLot(pos.Size*ratio, mkt.Instrument.LotSz)
	if qty < mkt.Instrument.MinSz || qty <= 0 {
		return false
	}
	if margin := qty * mkt.Instrument.PerContract(mkt.Price) / float64(max(1, pos.Leverage)); !helper.MarginFits(margin, mkt.Tradable) {
		return false
	}
	d.Action = FloatAdd
	d.Quantity = qty
	d.Ratio = ratio
	d.Reason = fmt.Sprintf("float loss add: loss %.1f%%, support %.2f", loss*100, sup.Strength)
	return true
}

func (e *Evaluator) rolloverDue(d *Decision, pos *models.Position, sig models.SignalResult, mkt Market) bool {
	cfg := e.rollover
	if pos.RolloverCount >= cfg.MaxTimes {
		return false
	}
	profit := pos.PriceProfitRatio(mkt.Price)
	sameSide := sig.Tradable && sig.Direction == pos.Side

	reason := ""
	switch {
	case profit >= cfg.ProfitThreshold && sameSide && sig.Strength > cfg.SignalThreshold:
		reason = "profit rollover"
	case sig.FundingSignal*pos.Side.Sign() > 0 && sig.FundingConfidence > cfg.FundingConfidence &&
		profit > cfg.FundingMinProfit:
		reason = "funding rollover"
	case profit > cfg.LowVolMinProfit && sameSide && closeDispersion(sig.Candles, 20) < cfg.LowVolatility:
		reason = "low volatility rollover"
	}
	if reason == "" {
		return false
	}
	d.Action = Rollover
	d.Quantity = pos.Size
	d.Reason = fmt.Sprintf("%s at %.1f%%", reason, profit*100)
	return true
}

func (e *Evaluator) addByExposure(d *Decision, pos *models.Position, sig models.SignalResult, mkt Market) {
	cfg := e.addOn
	if sig.Strength < cfg.MinStrength || sig.Direction != pos.Side || mkt.Equity <= 0 {
		return
	}
	if mkt.CoinNotional/mkt.Equity >= e.coinCap {
		return
	}
	if !pos.LastAddTime.IsZero() && mkt.Now.Sub(pos.LastAddTime) < cfg.Cooldown {
		return
	}
	perContract := mkt.Instrument.PerContract(mkt.Price)
	if perContract <= 0 {
		return
	}
	available := mkt.Equity*e.coinCap - mkt.CoinNotional
	share := math.Min(cfg.MaxRatio, (sig.Strength-cfg.MinStrength)/(1-cfg.MinStrength))
	qty := helper.FloorToLot(available/perContract*share, mkt.Instrument.LotSz)
	if qty < mkt.Instrument.MinSz || qty <= 0 {
		return
	}
	if !helper.MarginFits(qty*perContract/float64(max(1, pos.Leverage)), mkt.Tradable) {
		return
	}
	d.Action = AddOn
	d.Quantity = qty
	d.Ratio = share
	d.Reason = fmt.Sprintf("add by exposure: strength %.2f, room %.2f USDT", sig.Strength, available)
}

// closeDispersion — std/mean последних n закрытий; +Inf, если данных мало.
func closeDispersion(candles []models.Candle, n int) float64 {
	if len(candles) < n {
		return math.Inf(1)
	}
	closes := make([]float64, 0, n)
	for _, c := range candles[len(candles)-n:] {
		closes = append(closes, c.Close)
	}
	if indicators.MeanLast(closes, n) <= 0 {
		return math.Inf(1)
	}
	return indicators.CoefVariation(closes, n)
}
