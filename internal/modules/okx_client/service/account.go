package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"swap_engine/internal/errs"
	"swap_engine/internal/models"
)

// Balance: totalEq по счёту и доступный USDT.
func (c *Client) Balance(ctx context.Context) (models.Balance, error) {
	rows, err := call[balanceDTO](ctx, c, "balance", http.MethodGet, "/api/v5/account/balance", nil, nil, true)
	if err != nil {
		return models.Balance{}, err
	}
	if len(rows) == 0 {
		return models.Balance{}, errs.Rejection("balance", "", "empty balance")
	}
	b := models.Balance{TotalEq: num(rows[0].TotalEq)}
	for _, d := range rows[0].Details {
		if strings.EqualFold(d.Ccy, "USDT") {
			b.AvailBal = num(d.AvailBal)
			break
		}
	}
	return b, nil
}

// Positions — открытые SWAP-позиции, нулевые отбрасываются.
func (c *Client) Positions(ctx context.Context) ([]models.ExchangePosition, error) {
	rows, err := call[positionDTO](ctx, c, "positions", http.MethodGet, "/api/v5/account/positions",
		url.Values{"instType": {"SWAP"}}, nil, true)
	if err != nil {
		return nil, err
	}
	out := make([]models.ExchangePosition, 0, len(rows))
	for _, d := range rows {
		pos := num(d.Pos)
		if pos == 0 {
			continue
		}
		margin := num(d.Margin)
		if margin == 0 {
			margin = num(d.Imr)
		}
		out = append(out, models.ExchangePosition{
			InstID:      d.InstID,
			InstType:    d.InstType,
			PosSide:     d.PosSide,
			Pos:         pos,
			AvgPx:       num(d.AvgPx),
			MarkPx:      num(d.MarkPx),
			Margin:      margin,
			Lever:       num(d.Lever),
			NotionalUsd: num(d.NotionalUsd),
			MgnMode:     d.MgnMode,
		})
	}
	return out, nil
}

// SetPositionMode: "long_short_mode" | "net_mode".
func (c *Client) SetPositionMode(ctx context.Context, mode string) error {
	body := map[string]string{"posMode": mode}
	_, err := call[map[string]string](ctx, c, "set_position_mode", http.MethodPost, "/api/v5/account/set-position-mode", nil, body, true)
	return err
}

func (c *Client) SetLeverage(ctx context.Context, instID string, lever int, mgnMode, posSide string) error {
	body := map[string]string{
		"instId":  instID,
		"lever":   formatNum(float64(lever)),
		"mgnMode": mgnMode,
	}
	if posSide != "" {
		body["posSide"] = posSide
	}
	_, err := call[map[string]string](ctx, c, "set_leverage", http.MethodPost, "/api/v5/account/set-leverage", nil, body, true)
	return err
}
