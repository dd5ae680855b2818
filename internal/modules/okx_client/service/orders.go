package service

import (
	"context"
	"net/http"
	"net/url"

	"swap_engine/internal/errs"
	"swap_engine/internal/models"

	"go.uber.org/zap"
)

func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	ordType := req.OrdType
	if ordType == "" {
		ordType = "limit"
	}
	body := placeOrderBody{
		InstID:     req.InstID,
		TdMode:     req.TdMode,
		ClOrdID:    req.ClOrdID,
		Side:       req.Side,
		PosSide:    req.PosSide,
		OrdType:    ordType,
		Sz:         formatNum(req.Size),
		ReduceOnly: req.ReduceOnly,
	}
	if ordType != "market" {
		body.Px = formatNum(req.Price)
	}

	rows, err := call[orderAckDTO](ctx, c, "place_order", http.MethodPost, "/api/v5/trade/order", nil, body, true)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", errs.Rejection("place_order", "", "empty ack")
	}
	ack := rows[0]
	if ack.SCode != "" && ack.SCode != "0" {
		return "", errs.Rejection("place_order", ack.SCode, ack.SMsg)
	}

	c.log.Info("[OKX] order placed",
		zap.String("instId", req.InstID),
		zap.String("ordId", ack.OrdID),
		zap.String("clOrdId", req.ClOrdID),
		zap.String("side", req.Side),
		zap.String("posSide", req.PosSide),
		zap.Float64("sz", req.Size),
		zap.Float64("px", req.Price),
	)
	return ack.OrdID, nil
}

func (c *Client) CancelOrder(ctx context.Context, instID, ordID string) error {
	body := map[string]string{"instId": instID, "ordId": ordID}
	rows, err := call[orderAckDTO](ctx, c, "cancel_order", http.MethodPost, "/api/v5/trade/cancel-order", nil, body, true)
	if err != nil {
		return err
	}
	if len(rows) > 0 && rows[0].SCode != "" && rows[0].SCode != "0" {
		return errs.Rejection("cancel_order", rows[0].SCode, rows[0].SMsg)
	}
	return nil
}

func (c *Client) GetOrder(ctx context.Context, instID, ordID string) (models.OrderState, error) {
	q := url.Values{"instId": {instID}, "ordId": {ordID}}
	rows, err := call[orderDTO](ctx, c, "get_order", http.MethodGet, "/api/v5/trade/order", q, nil, true)
	if err != nil {
		return models.OrderState{}, err
	}
	if len(rows) == 0 {
		return models.OrderState{}, errs.Rejection("get_order", "51603", "order does not exist")
	}
	return toOrderState(rows[0]), nil
}

// OpenOrders — все live/partially_filled SWAP-ордера.
func (c *Client) OpenOrders(ctx context.Context) ([]models.OrderState, error) {
	rows, err := call[orderDTO](ctx, c, "orders_pending", http.MethodGet, "/api/v5/trade/orders-pending",
		url.Values{"instType": {"SWAP"}}, nil, true)
	if err != nil {
		return nil, err
	}
	out := make([]models.OrderState, 0, len(rows))
	for _, r := range rows {
		out = append(out, toOrderState(r))
	}
	return out, nil
}

func toOrderState(r orderDTO) models.OrderState {
	return models.OrderState{
		OrdID:     r.OrdID,
		ClOrdID:   r.ClOrdID,
		InstID:    r.InstID,
		State:     r.State,
		Side:      r.Side,
		PosSide:   r.PosSide,
		Size:      num(r.Sz),
		FilledSz:  num(r.AccFillSz),
		Price:     num(r.Px),
		AvgPx:     num(r.AvgPx),
		Leverage:  num(r.Lever),
		CreatedAt: msTime(r.CTime),
	}
}
