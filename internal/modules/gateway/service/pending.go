package service

import (
	"context"
	"sort"
	"time"

	"swap_engine/internal/errs"
	"swap_engine/internal/models"
	journal "swap_engine/internal/modules/journal/service"

	"go.uber.org/zap"
)

// Pending — отслеживаемые ордера в порядке выставления.
func (g *Gateway) Pending() []models.PendingOrder {
	g.mu.Lock()
	out := make([]models.PendingOrder, 0, len(g.orders))
	for _, o := range g.orders {
		out = append(out, o)
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].PlacedAt.Before(out[j].PlacedAt)
	})
	return out
}

func (g *Gateway) HasPending(symbol string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range g.orders {
		if o.Symbol == symbol {
			return true
		}
	}
	return false
}

func (g *Gateway) drop(ordID string) {
	g.mu.Lock()
	delete(g.orders, ordID)
	g.mu.Unlock()
}

// MonitorPending обходит ордера: исполненные и отменённые забывает,
// просроченные и ушедшие против направления отменяет. Возвращает число снятых с учёта.
func (g *Gateway) MonitorPending(ctx context.Context) int {
	dropped := 0
	for _, po := range g.Pending() {
		if ctx.Err() != nil {
			return dropped
		}
		st, err := g.trade.GetOrder(ctx, po.Symbol, po.OrderID)
		if err != nil {
			if errs.CodeOf(err) == "51603" {
				g.log.Warn("[PENDING] order vanished", zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID))
				g.drop(po.OrderID)
				g.settle(ctx, po, 0, "order vanished")
				dropped++
				continue
			}
			g.log.Warn("[PENDING] order state unavailable", zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID), zap.Error(err))
			if g.expireBlind(ctx, po) {
				dropped++
			}
			continue
		}

		if !st.Open() {
			g.drop(po.OrderID)
			dropped++
			if st.State != "filled" {
				g.settle(ctx, po, st.FilledSz, "order "+st.State)
			}
			continue
		}

		reason := ""
		if age := g.now().Sub(po.PlacedAt); age > g.pending.MaxWait {
			reason = "expired after " + age.Truncate(time.Second).String()
		} else if po.Purpose.Increases() {
			reason = g.deviation(ctx, po)
		}
		if reason == "" {
			continue
		}

		if err := g.trade.CancelOrder(ctx, po.Symbol, po.OrderID); err != nil && errs.CodeOf(err) != "51400" {
			g.log.Warn("[PENDING] cancel failed", zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID), zap.Error(err))
			continue
		}
		g.log.Info("[PENDING] order cancelled",
			zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID), zap.String("reason", reason))
		g.drop(po.OrderID)
		dropped++
		g.settle(ctx, po, st.FilledSz, reason)
	}
	return dropped
}

// expireBlind снимает просроченный ордер, состояние которого не удалось получить.
// Исполненную часть книга получит из sync_positions.
func (g *Gateway) expireBlind(ctx context.Context, po models.PendingOrder) bool {
	age := g.now().Sub(po.PlacedAt)
	if age <= g.pending.MaxWait {
		return false
	}
	if err := g.trade.CancelOrder(ctx, po.Symbol, po.OrderID); err != nil {
		switch errs.CodeOf(err) {
		case "51400", "51603":
		default:
			g.log.Warn("[PENDING] cancel failed", zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID), zap.Error(err))
			return false
		}
	}
	reason := "expired after " + age.Truncate(time.Second).String() + ", state unknown"
	g.log.Info("[PENDING] order cancelled",
		zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID), zap.String("reason", reason))
	g.drop(po.OrderID)
	g.journal.Record(ctx, journal.Event{
		Time: g.now(), Symbol: po.Symbol, Kind: journal.KindCancel, Side: po.Side,
		Size: po.Size, Price: po.Price, Reason: reason, OrderID: po.OrderID,
	})
	return true
}

// deviation: цена ушла против заявленного направления дальше порога.
func (g *Gateway) deviation(ctx context.Context, po models.PendingOrder) string {
	if g.prices == nil || po.Price <= 0 {
		return ""
	}
	last, err := g.prices.Last(ctx, po.Symbol)
	if err != nil {
		return ""
	}
	var moved float64
	switch po.Direction {
	case models.Long:
		moved = (po.Price - last) / po.Price
	case models.Short:
		moved = (last - po.Price) / po.Price
	default:
		return ""
	}
	if moved > g.pending.Deviation {
		return "price moved against entry"
	}
	return ""
}

// settle приводит книгу в соответствие с неисполненным ордером на открытие:
// без исполнения позиция-фантом удаляется, при частичном — урезается.
func (g *Gateway) settle(ctx context.Context, po models.PendingOrder, filled float64, reason string) {
	g.journal.Record(ctx, journal.Event{
		Time: g.now(), Symbol: po.Symbol, Kind: journal.KindCancel, Side: po.Side,
		Size: po.Size - filled, Price: po.Price, Reason: reason, OrderID: po.OrderID,
	})
	if po.Purpose != models.PurposeOpen && po.Purpose != models.PurposeRollover {
		return
	}

	pos, ok := g.book.Get(po.Symbol)
	if !ok || pos.Manual || pos.OpenOrderID != po.OrderID {
		return
	}
	if filled <= 0 {
		g.book.Remove(po.Symbol)
		g.log.Info("[PENDING] phantom position removed", zap.String("symbol", po.Symbol), zap.String("ord_id", po.OrderID))
		return
	}
	g.book.Update(po.Symbol, func(p *models.Position) {
		p.Size = filled
		p.OriginalSize = filled
		p.Remaining = 1
		p.Reprice()
	})
	g.log.Info("[PENDING] position trimmed to filled size",
		zap.String("symbol", po.Symbol), zap.Float64("filled", filled))
}
