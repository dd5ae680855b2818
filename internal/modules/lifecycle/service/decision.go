package service

import (
	"time"

	"swap_engine/internal/models"
)

type Action int

const (
	Hold Action = iota
	PartialClose
	FullClose
	Rollover
	FloatAdd
	AddOn
)

func (a Action) String() string {
	switch a {
	case PartialClose:
		return "partial_close"
	case FullClose:
		return "close"
	case Rollover:
		return "rollover"
	case FloatAdd:
		return "float_add"
	case AddOn:
		return "add_on"
	}
	return "hold"
}

// Market — рыночный контекст одной оценки.
type Market struct {
	Price        float64
	Instrument   models.Instrument
	Equity       float64
	Tradable     float64
	CoinNotional float64
	Now          time.Time
}

// Decision — результат Evaluate. Quantity в контрактах уже кратно лоту.
type Decision struct {
	Symbol   string
	Action   Action
	Quantity float64
	Ratio    float64
	Stage    int // 1, 2 — ступени стоп-лосса
	Tier     int // 1..3 — уровень тейк-профита
	Reason   string

	// Peak — пик доходности на маржу после этой оценки.
	Peak float64
}

func (d Decision) Acts() bool { return d.Action != Hold }
