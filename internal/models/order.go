package models

import "time"

type OrderPurpose string

const (
	PurposeOpen     OrderPurpose = "open"
	PurposeAdd      OrderPurpose = "add"
	PurposeReduce   OrderPurpose = "reduce"
	PurposeClose    OrderPurpose = "close"
	PurposeRollover OrderPurpose = "rollover"
)

// Increases — ордер наращивает экспозицию.
func (p OrderPurpose) Increases() bool {
	return p == PurposeOpen || p == PurposeAdd || p == PurposeRollover
}

// OrderIntent — намерение, которое жизненный цикл отдаёт шлюзу.
type OrderIntent struct {
	Symbol    string
	Side      string // buy | sell
	PosSide   string // long | short
	TdMode    string // cross | isolated
	Quantity  float64
	Price     float64
	Leverage  int
	Direction Direction
	Purpose   OrderPurpose
	Reason    string
}

// OrderRequest — то, что уходит на биржу.
type OrderRequest struct {
	InstID     string
	ClOrdID    string
	TdMode     string
	Side       string
	PosSide    string
	OrdType    string
	Size       float64
	Price      float64
	ReduceOnly bool
}

// OrderState — состояние ордера на бирже.
type OrderState struct {
	OrdID     string
	ClOrdID   string
	InstID    string
	State     string // live | partially_filled | filled | canceled
	Side      string
	PosSide   string
	Size      float64
	FilledSz  float64
	Price     float64
	AvgPx     float64
	Leverage  float64
	CreatedAt time.Time
}

func (o OrderState) Open() bool {
	return o.State == "live" || o.State == "partially_filled"
}

// PendingOrder — ордер, ожидающий исполнения.
type PendingOrder struct {
	OrderID   string
	ClOrdID   string
	Symbol    string
	Side      string
	PosSide   string
	Price     float64
	Size      float64
	Direction Direction
	Purpose   OrderPurpose
	PlacedAt  time.Time
	Leverage  int
}
