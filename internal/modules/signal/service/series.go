package service

import "swap_engine/internal/models"

// series — свечи, разложенные по колонкам, старые первыми.
type series struct {
	open   []float64
	high   []float64
	low    []float64
	close  []float64
	volume []float64
}

func newSeries(candles []models.Candle) series {
	s := series{
		open:   make([]float64, len(candles)),
		high:   make([]float64, len(candles)),
		low:    make([]float64, len(candles)),
		close:  make([]float64, len(candles)),
		volume: make([]float64, len(candles)),
	}
	for i, c := range candles {
		s.open[i] = c.Open
		s.high[i] = c.High
		s.low[i] = c.Low
		s.close[i] = c.Close
		s.volume[i] = c.Volume
	}
	return s
}

func (s series) len() int { return len(s.close) }

func (s series) lastClose() float64 {
	if len(s.close) == 0 {
		return 0
	}
	return s.close[len(s.close)-1]
}

// bar(-1) — последняя свеча, bar(-2) — предыдущая.
func (s series) bar(back int) (o, h, l, c float64) {
	i := len(s.close) + back
	return s.open[i], s.high[i], s.low[i], s.close[i]
}
