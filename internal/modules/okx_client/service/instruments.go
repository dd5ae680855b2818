package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"swap_engine/internal/errs"
	"swap_engine/internal/models"
)

func (c *Client) Instrument(ctx context.Context, instID string) (models.Instrument, error) {
	q := url.Values{"instType": {"SWAP"}, "instId": {instID}}
	rows, err := call[instrumentDTO](ctx, c, "instrument", http.MethodGet, "/api/v5/public/instruments", q, nil, false)
	if err != nil {
		return models.Instrument{}, err
	}
	if len(rows) == 0 {
		return models.Instrument{}, errs.Rejection("instrument", "51001", "instrument "+instID+" not found")
	}
	inst, err := toInstrument(rows[0])
	if err != nil {
		return models.Instrument{}, err
	}
	if inst.State != "" && inst.State != "live" {
		return models.Instrument{}, errs.Rejection("instrument", "51001", "instrument "+instID+" not live: "+inst.State)
	}
	return inst, nil
}

// Instruments — все живые SWAP-контракты; битые строки пропускаются.
func (c *Client) Instruments(ctx context.Context) ([]models.Instrument, error) {
	q := url.Values{"instType": {"SWAP"}}
	rows, err := call[instrumentDTO](ctx, c, "instruments", http.MethodGet, "/api/v5/public/instruments", q, nil, false)
	if err != nil {
		return nil, err
	}
	out := make([]models.Instrument, 0, len(rows))
	for _, r := range rows {
		inst, err := toInstrument(r)
		if err != nil || (inst.State != "" && inst.State != "live") {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

func toInstrument(inst instrumentDTO) (models.Instrument, error) {
	parsePos := func(name, s string) (float64, error) {
		v := num(s)
		if v <= 0 {
			return 0, errs.Validation("instrument", "%s %s: bad %s %q", inst.InstID, name, name, s)
		}
		return v, nil
	}

	lotSz, err := parsePos("lotSz", inst.LotSz)
	if err != nil {
		return models.Instrument{}, err
	}
	minSz, err := parsePos("minSz", inst.MinSz)
	if err != nil {
		return models.Instrument{}, err
	}
	tickSz, err := parsePos("tickSz", inst.TickSz)
	if err != nil {
		return models.Instrument{}, err
	}
	ctVal, err := parsePos("ctVal", inst.CtVal)
	if err != nil {
		return models.Instrument{}, err
	}
	if m := num(inst.CtMult); m > 0 {
		ctVal *= m
	}

	kind := models.ContractUnknown
	switch strings.ToLower(strings.TrimSpace(inst.CtType)) {
	case "linear":
		kind = models.ContractLinearUSDT
	case "inverse":
		kind = models.ContractInverseCoin
	}

	return models.Instrument{
		InstID:    inst.InstID,
		Kind:      kind,
		SettleCcy: inst.SettleCcy,
		CtValCcy:  inst.CtValCcy,
		LotSz:     lotSz,
		MinSz:     minSz,
		TickSz:    tickSz,
		CtVal:     ctVal,
		MaxMktSz:  num(inst.MaxMktSz),
		MaxLmtSz:  num(inst.MaxLmtSz),
		MaxLever:  num(inst.Lever),
		State:     inst.State,
	}, nil
}
