package service

import (
	"swap_engine/internal/errs"
	"swap_engine/internal/helper"
	"swap_engine/internal/models"
)

const maxOrderLeverage = 100

func validate(in models.OrderIntent, inst models.Instrument) error {
	switch {
	case in.Quantity <= 0:
		return errs.Validation("validate", "quantity %s must be positive", helper.FormatNum(in.Quantity))
	case in.Quantity < inst.MinSz:
		return errs.Validation("validate", "quantity %s below minSz %s",
			helper.FormatNum(in.Quantity), helper.FormatNum(inst.MinSz))
	case !helper.IsLotMultiple(in.Quantity, inst.LotSz):
		return errs.Validation("validate", "quantity %s is not a multiple of lotSz %s",
			helper.FormatNum(in.Quantity), helper.FormatNum(inst.LotSz))
	case in.Price <= 0:
		return errs.Validation("validate", "price %s must be positive", helper.FormatNum(in.Price))
	case in.Leverage < 1 || in.Leverage > maxOrderLeverage:
		return errs.Validation("validate", "leverage %d outside [1,%d]", in.Leverage, maxOrderLeverage)
	case in.Side != "buy" && in.Side != "sell":
		return errs.Validation("validate", "side %q must be buy or sell", in.Side)
	case in.TdMode != "cross" && in.TdMode != "isolated":
		return errs.Validation("validate", "tdMode %q must be cross or isolated", in.TdMode)
	case in.TdMode == "cross" && in.PosSide != "long" && in.PosSide != "short":
		return errs.Validation("validate", "posSide %q must be long or short in cross mode", in.PosSide)
	}
	return nil
}
