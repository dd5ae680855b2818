package models

// Level — уровень поддержки или сопротивления.
type Level struct {
	Price    float64
	Strength float64
}

// SignalResult живёт один цикл по символу.
type SignalResult struct {
	Symbol    string
	Tradable  bool
	Direction Direction
	Strength  float64

	LongStrength  float64
	ShortStrength float64
	Components    map[string]float64
	Failures      map[string]string

	Support    Level
	Resistance Level

	FundingSignal     float64
	FundingConfidence float64

	LastClose  float64
	Volatility float64 // ATR/close
	Candles    []Candle
}

func NeutralSignal(symbol string) SignalResult {
	return SignalResult{
		Symbol:     symbol,
		Direction:  Neutral,
		Components: map[string]float64{},
		Failures:   map[string]string{},
	}
}
