package indicators

// SMA — скользящее среднее; значения до period-1 равны нулю.
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA с adjust=false, стартует с первого значения.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACD(fast, slow, signal): линия и сигнальная.
func MACD(closes []float64, fast, slow, signal int) (macd, sig []float64) {
	ef := EMA(closes, fast)
	es := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = ef[i] - es[i]
	}
	return macd, EMA(macd, signal)
}

// MeanLast — среднее последних n значений.
func MeanLast(values []float64, n int) float64 {
	if n <= 0 || len(values) == 0 {
		return 0
	}
	if n > len(values) {
		n = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

func MaxLast(values []float64, n int) float64 {
	tail := Tail(values, n)
	if len(tail) == 0 {
		return 0
	}
	m := tail[0]
	for _, v := range tail[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func MinLast(values []float64, n int) float64 {
	tail := Tail(values, n)
	if len(tail) == 0 {
		return 0
	}
	m := tail[0]
	for _, v := range tail[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func Tail(values []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n > len(values) {
		n = len(values)
	}
	return values[len(values)-n:]
}

func Last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
