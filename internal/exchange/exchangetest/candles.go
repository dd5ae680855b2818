package exchangetest

import (
	"time"

	"swap_engine/internal/models"
)

// Trend строит n часовых свечей от start с шагом step на бар.
// Объём ровный, последний бар — с множителем lastVolMult.
func Trend(instID string, n int, start, step, lastVolMult float64) []models.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	px := start
	for i := 0; i < n; i++ {
		open := px
		px += step
		hi, lo := max(open, px), min(open, px)
		vol := 100.0
		if i == n-1 {
			vol *= lastVolMult
		}
		out[i] = models.Candle{
			InstID: instID, Open: open, High: hi * 1.001, Low: lo * 0.999, Close: px,
			Volume: vol, Start: t0.Add(time.Duration(i) * time.Hour),
			End: t0.Add(time.Duration(i+1) * time.Hour), Confirmed: true,
		}
	}
	return out
}
