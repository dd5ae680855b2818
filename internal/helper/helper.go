package helper

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OkxBar приводит таймфрейм к формату OKX ("1h" -> "1H").
func OkxBar(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m", "1h":
		return "1H"
	case "2h", "4h", "6h", "12h":
		return strings.ToUpper(s)
	case "1d":
		return "1D"
	case "1w":
		return "1W"
	default:
		return s
	}
}

// BarDuration — длительность бара OKX, 0 для неизвестного.
func BarDuration(bar string) time.Duration {
	switch OkxBar(bar) {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1H":
		return time.Hour
	case "2H":
		return 2 * time.Hour
	case "4H":
		return 4 * time.Hour
	case "6H":
		return 6 * time.Hour
	case "12H":
		return 12 * time.Hour
	case "1D":
		return 24 * time.Hour
	}
	return 0
}

// CoinOf: "BTC-USDT-SWAP" -> "BTC".
func CoinOf(instID string) string {
	if i := strings.IndexByte(instID, '-'); i > 0 {
		return instID[:i]
	}
	return instID
}

func IsSwap(instID string) bool { return strings.HasSuffix(instID, "-SWAP") }

func IsUSDTSwap(instID string) bool { return strings.HasSuffix(instID, "-USDT-SWAP") }

func steps(v, step float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Div(decimal.NewFromFloat(step))
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	f, _ := steps(px, tick).Floor().Mul(decimal.NewFromFloat(tick)).Float64()
	return f
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	f, _ := steps(px, tick).Ceil().Mul(decimal.NewFromFloat(tick)).Float64()
	return f
}

// RoundToTick — ближайший тик.
func RoundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	f, _ := steps(px, tick).Round(0).Mul(decimal.NewFromFloat(tick)).Float64()
	return f
}

// FloorToLot никогда не увеличивает размер.
func FloorToLot(sz, lot float64) float64 {
	if lot <= 0 || sz <= 0 {
		return math.Max(sz, 0)
	}
	return RoundDownToTick(sz, lot)
}

// IsLotMultiple — кратность шагу лота с допуском 1e-10.
func IsLotMultiple(sz, lot float64) bool {
	if lot <= 0 {
		return true
	}
	n := steps(sz, lot)
	diff := n.Sub(n.Round(0)).Abs()
	return diff.LessThan(decimal.New(1, -10))
}

// FormatNum — строка без экспоненты для тела запроса.
func FormatNum(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// MarginFits — маржа положительна и помещается в свободный остаток.
func MarginFits(margin, tradable float64) bool {
	return margin > 0 && margin <= tradable
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
