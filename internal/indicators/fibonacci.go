package indicators

var FibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// FibLevel — уровень коррекции от свинга.
type FibLevel struct {
	Ratio float64
	Price float64
}

// FibLevels строит уровни по экстремумам последних period баров.
func FibLevels(highs, lows []float64, period int) []FibLevel {
	if len(highs) < period || len(lows) < period || period <= 0 {
		return nil
	}
	hi := MaxLast(highs, period)
	lo := MinLast(lows, period)
	out := make([]FibLevel, 0, len(FibRatios))
	for _, r := range FibRatios {
		out = append(out, FibLevel{Ratio: r, Price: hi - (hi-lo)*r})
	}
	return out
}
