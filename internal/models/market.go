package models

import "time"

type ContractKind int

const (
	ContractUnknown ContractKind = iota
	ContractLinearUSDT
	ContractInverseCoin
)

type Instrument struct {
	InstID    string
	Kind      ContractKind
	SettleCcy string
	CtValCcy  string

	LotSz    float64
	MinSz    float64
	TickSz   float64
	CtVal    float64 // ctVal * ctMult
	MaxMktSz float64
	MaxLmtSz float64
	MaxLever float64
	State    string
}

// PerContract — USDT-номинал одного контракта при цене price.
// Для инверсных контрактов ctVal уже в долларах.
func (i Instrument) PerContract(price float64) float64 {
	ct := i.CtVal
	if ct <= 0 {
		ct = 1
	}
	if i.Kind == ContractInverseCoin {
		return ct
	}
	return ct * price
}

type Candle struct {
	InstID      string
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	QuoteVolume float64
	Start       time.Time
	End         time.Time
	Confirmed   bool
}

type Ticker struct {
	InstID    string
	Last      float64
	Open24h   float64
	High24h   float64
	Low24h    float64
	VolCcy24h float64
	BidPx     float64
	AskPx     float64
	Ts        time.Time
}

type FundingRate struct {
	InstID  string
	Rate    float64
	Premium float64
}

type TakerVolume struct {
	Ccy  string
	Buy  float64
	Sell float64
}

type Balance struct {
	TotalEq  float64
	AvailBal float64 // USDT
}

// ExchangePosition — позиция в том виде, как её отдаёт биржа.
type ExchangePosition struct {
	InstID      string
	InstType    string
	PosSide     string
	Pos         float64
	AvgPx       float64
	MarkPx      float64
	Margin      float64
	Lever       float64
	NotionalUsd float64
	MgnMode     string
}

// BookTop — лучшие цены стакана.
type BookTop struct {
	BidPx float64
	AskPx float64
}
