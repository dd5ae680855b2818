// Package exchangetest — управляемая подмена биржи для тестов.
package exchangetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"swap_engine/internal/errs"
	"swap_engine/internal/exchange"
	"swap_engine/internal/models"
)

type Fake struct {
	mu sync.Mutex

	Insts      map[string]models.Instrument
	TickerMap  map[string]models.Ticker
	CandleMap  map[string][]models.Candle
	CandlesErr error
	Funding    map[string]models.FundingRate
	FundingErr error
	Taker      map[string]models.TakerVolume
	Lending    map[string]float64
	Books      map[string]models.BookTop

	Bal        models.Balance
	BalanceErr error
	Pos        []models.ExchangePosition
	PosErr     error

	Orders       map[string]models.OrderState
	OrdersErr    error
	GetOrderErr  error
	Placed       []models.OrderRequest
	Cancelled    []string
	PlaceErrs    []error // по одной на вызов PlaceOrder
	LeverageSets []string
	PositionMode string

	CandleCalls int
	PlaceCalls  int
	seq         int
}

var _ exchange.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Insts:     map[string]models.Instrument{},
		TickerMap: map[string]models.Ticker{},
		CandleMap: map[string][]models.Candle{},
		Funding:   map[string]models.FundingRate{},
		Taker:     map[string]models.TakerVolume{},
		Lending:   map[string]float64{},
		Books:     map[string]models.BookTop{},
		Orders:    map[string]models.OrderState{},
	}
}

// AddInstrument регистрирует линейный контракт с тикером по цене px.
func (f *Fake) AddInstrument(instID string, ctVal, lot, minSz, tick, px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Insts[instID] = models.Instrument{
		InstID: instID, Kind: models.ContractLinearUSDT, SettleCcy: "USDT",
		CtVal: ctVal, LotSz: lot, MinSz: minSz, TickSz: tick, MaxLever: 100, State: "live",
	}
	f.TickerMap[instID] = models.Ticker{InstID: instID, Last: px, Open24h: px, High24h: px, Low24h: px, BidPx: px, AskPx: px}
}

func (f *Fake) SetPrice(instID string, px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.TickerMap[instID]
	t.InstID, t.Last, t.BidPx, t.AskPx = instID, px, px, px
	f.TickerMap[instID] = t
}

func notFound(op, id string) error { return errs.Rejection(op, "51001", id+" not found") }

func (f *Fake) PlaceOrder(_ context.Context, req models.OrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PlaceCalls++
	if len(f.PlaceErrs) > 0 {
		err := f.PlaceErrs[0]
		f.PlaceErrs = f.PlaceErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.seq++
	id := fmt.Sprintf("ord-%d", f.seq)
	f.Placed = append(f.Placed, req)
	f.Orders[id] = models.OrderState{
		OrdID: id, ClOrdID: req.ClOrdID, InstID: req.InstID, State: "live",
		Side: req.Side, PosSide: req.PosSide, Size: req.Size, Price: req.Price,
	}
	return id, nil
}

func (f *Fake) CancelOrder(_ context.Context, instID, ordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.Orders[ordID]
	if !ok {
		return errs.Rejection("cancel_order", "51603", "order does not exist")
	}
	o.State = "canceled"
	f.Orders[ordID] = o
	f.Cancelled = append(f.Cancelled, ordID)
	return nil
}

// SetOrderState меняет состояние ордера (fill/cancel со стороны биржи).
func (f *Fake) SetOrderState(ordID, state string, filled float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.Orders[ordID]
	o.State, o.FilledSz = state, filled
	f.Orders[ordID] = o
}

func (f *Fake) GetOrder(_ context.Context, instID, ordID string) (models.OrderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetOrderErr != nil {
		return models.OrderState{}, f.GetOrderErr
	}
	o, ok := f.Orders[ordID]
	if !ok {
		return models.OrderState{}, errs.Rejection("get_order", "51603", "order does not exist")
	}
	return o, nil
}

func (f *Fake) OpenOrders(context.Context) ([]models.OrderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OrdersErr != nil {
		return nil, f.OrdersErr
	}
	ids := make([]string, 0, len(f.Orders))
	for id := range f.Orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []models.OrderState
	for _, id := range ids {
		if o := f.Orders[id]; o.Open() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *Fake) SetLeverage(_ context.Context, instID string, lever int, mgnMode, posSide string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LeverageSets = append(f.LeverageSets, fmt.Sprintf("%s:%s:%s:%d", instID, mgnMode, posSide, lever))
	return nil
}

func (f *Fake) Balance(context.Context) (models.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Bal, f.BalanceErr
}

func (f *Fake) Positions(context.Context) ([]models.ExchangePosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ExchangePosition(nil), f.Pos...), f.PosErr
}

func (f *Fake) SetPositionMode(_ context.Context, mode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PositionMode = mode
	return nil
}

func (f *Fake) Instrument(_ context.Context, instID string) (models.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.Insts[instID]
	if !ok {
		return models.Instrument{}, notFound("instrument", instID)
	}
	return inst, nil
}

func (f *Fake) Instruments(context.Context) ([]models.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Instrument, 0, len(f.Insts))
	for _, inst := range f.Insts {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstID < out[j].InstID })
	return out, nil
}

func (f *Fake) Ticker(_ context.Context, instID string) (models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.TickerMap[instID]
	if !ok {
		return models.Ticker{}, notFound("ticker", instID)
	}
	return t, nil
}

func (f *Fake) Tickers(context.Context) ([]models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Ticker, 0, len(f.TickerMap))
	for _, t := range f.TickerMap {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstID < out[j].InstID })
	return out, nil
}

func (f *Fake) Candles(_ context.Context, instID, bar string, limit int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CandleCalls++
	if f.CandlesErr != nil {
		return nil, f.CandlesErr
	}
	cs, ok := f.CandleMap[instID]
	if !ok {
		return nil, notFound("candles", instID)
	}
	if limit > 0 && len(cs) > limit {
		cs = cs[len(cs)-limit:]
	}
	return append([]models.Candle(nil), cs...), nil
}

func (f *Fake) FundingRate(_ context.Context, instID string) (models.FundingRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FundingErr != nil {
		return models.FundingRate{}, f.FundingErr
	}
	return f.Funding[instID], nil
}

func (f *Fake) TakerVolume(_ context.Context, ccy string) (models.TakerVolume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tv, ok := f.Taker[ccy]
	if !ok {
		return models.TakerVolume{}, notFound("taker_volume", ccy)
	}
	return tv, nil
}

func (f *Fake) LendingRatio(_ context.Context, ccy string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Lending[ccy]
	if !ok {
		return 0, notFound("lending_ratio", ccy)
	}
	return r, nil
}

func (f *Fake) OrderBookTop(_ context.Context, instID string) (models.BookTop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.Books[instID]
	if !ok {
		return models.BookTop{}, notFound("books", instID)
	}
	return b, nil
}
