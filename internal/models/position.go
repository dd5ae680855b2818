package models

import "time"

type Direction string

const (
	Long    Direction = "long"
	Short   Direction = "short"
	Neutral Direction = "neutral"
)

// OpenSide — сторона ордера, открывающего позицию.
func (d Direction) OpenSide() string {
	if d == Short {
		return "sell"
	}
	return "buy"
}

// CloseSide — сторона ордера, сокращающего позицию.
func (d Direction) CloseSide() string {
	if d == Short {
		return "buy"
	}
	return "sell"
}

// Sign: +1 для long, -1 для short, 0 для neutral.
func (d Direction) Sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	}
	return 0
}

// Position — открытая экспозиция по одному символу.
type Position struct {
	Symbol string
	Coin   string
	Side   Direction

	Size         float64 // контракты
	OriginalSize float64 // база для Remaining
	Leverage     int
	OpenPrice    float64
	CtVal        float64
	Margin       float64
	Notional     float64
	EntryTime    time.Time
	Remaining    float64

	InitialStop float64
	CurrentStop float64
	TakeProfit  [3]float64

	RolloverCount  int
	FloatAddCount  int
	ExposureAdds   int
	LastAddTime    time.Time
	PeakProfit     float64
	PeakSet        bool
	FirstStopDone  bool
	SecondStopDone bool

	Manual         bool
	SignalStrength float64
	OpenOrderID    string
}

// PriceProfitRatio — доходность по цене без плеча.
func (p *Position) PriceProfitRatio(price float64) float64 {
	if p.OpenPrice <= 0 {
		return 0
	}
	return (price - p.OpenPrice) / p.OpenPrice * p.Side.Sign()
}

// AccountProfitRatio — доходность на маржу.
func (p *Position) AccountProfitRatio(price float64) float64 {
	return p.PriceProfitRatio(price) * float64(p.Leverage)
}

// Reprice пересчитывает номинал и маржу после изменения размера или цены.
func (p *Position) Reprice() {
	ct := p.CtVal
	if ct <= 0 {
		ct = 1
	}
	p.Notional = p.Size * ct * p.OpenPrice
	lev := p.Leverage
	if lev < 1 {
		lev = 1
	}
	p.Margin = p.Notional / float64(lev)
}

// ResetTargets выставляет стоп и тейки от текущей цены открытия.
func (p *Position) ResetTargets(stopLoss float64, takeProfits [3]float64) {
	s := p.Side.Sign()
	p.InitialStop = p.OpenPrice * (1 - s*stopLoss)
	p.CurrentStop = p.InitialStop
	for i, tp := range takeProfits {
		p.TakeProfit[i] = p.OpenPrice * (1 + s*tp)
	}
}

func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
