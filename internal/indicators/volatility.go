package indicators

import "math"

// ATR со сглаживанием Уайлдера.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// StdDevLast — выборочное стандартное отклонение последних n значений.
func StdDevLast(values []float64, n int) float64 {
	tail := Tail(values, n)
	if len(tail) < 2 {
		return 0
	}
	mean := MeanLast(tail, len(tail))
	ss := 0.0
	for _, v := range tail {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(tail)-1))
}

// CoefVariation — std/mean последних n значений.
func CoefVariation(values []float64, n int) float64 {
	mean := MeanLast(values, n)
	if mean == 0 {
		return 0
	}
	return StdDevLast(values, n) / mean
}

// Bollinger возвращает последние значения полос.
func Bollinger(closes []float64, period int, k float64) (lower, mid, upper float64) {
	if len(closes) < period {
		return 0, 0, 0
	}
	mid = MeanLast(closes, period)
	sd := StdDevLast(closes, period)
	return mid - k*sd, mid, mid + k*sd
}
