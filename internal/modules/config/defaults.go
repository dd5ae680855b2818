package config

import "time"

// Default — полный набор значений по умолчанию.
func Default() *Config {
	c := &Config{}

	c.OKX.BaseURL = "https://www.okx.com"
	c.OKX.WSPublicURL = "wss://ws.okx.com:8443/ws/v5/public"
	c.OKX.Timeout = 10 * time.Second
	c.OKX.RateLimitRPS = 8
	c.OKX.RateBurst = 4

	c.Log.Level = "info"
	c.Log.MaxSizeMB = 10
	c.Log.MaxBackups = 30
	c.Log.MaxAgeDays = 30
	c.Log.Compress = true

	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831

	c.Health.Addr = ":8080"

	c.Signal = SignalConfig{
		Threshold:        0.4,
		EnableShort:      true,
		Bar:              "1H",
		CandleLimit:      120,
		RSIPeriod:        14,
		RSIOversold:      30,
		RSIOverbought:    70,
		VolumeMultiple:   2,
		FundingThreshold: 0.0005,
		Weights: Weights{
			MACD:              0.12,
			RSI:               0.12,
			Trend:             0.10,
			Technical:         0.10,
			Enhanced:          0.15,
			Support:           0.12,
			Chain:             0.08,
			Sentiment:         0.05,
			Funding:           0.08,
			Market:            0.08,
			ResistancePenalty: 0.10,
		},
	}

	c.Risk = RiskConfig{
		LowVolatility:      0.02,
		HighVolatility:     0.05,
		LeverageLowVol:     [2]int{2, 4},
		LeverageHighVol:    [2]int{1, 3},
		MaxLeverage:        5,
		BaseRisk:           0.05,
		StopFraction:       0.15,
		MaxMarginRatio:     0.15,
		CoinCap:            0.10,
		TradeCap:           0.15,
		RiskEquityCap:      0.15,
		MinTradable:        2,
		MaxAccountDrawdown: 0.10,
		FatalLoss:          0.5,
	}

	c.Exit.StopLossInit = 0.08
	c.Exit.TakeProfits = [3]float64{0.15, 0.35, 0.75}
	c.Exit.Smart.StrongSignal = 0.7
	c.Exit.Smart.WeakSignal = 0.4
	c.Exit.Smart.PartialRatios = [3]float64{0.3, 0.4, 0.3}
	c.Exit.Smart.MinRolloverProfit = 0.12
	c.Exit.Smart.NearLevelPct = 0.01
	c.Exit.Smart.NearLevelStrength = 0.7
	c.Exit.Smart.NearLevelBoost = 0.2
	c.Exit.Trailing.ActivatePeak = 0.08
	c.Exit.Trailing.Drawdown = 0.12
	c.Exit.Stages.First = -0.08
	c.Exit.Stages.Second = -0.12
	c.Exit.Stages.Final = -0.15
	c.Exit.Stages.FirstClose = 0.3
	c.Exit.Stages.SecondClose = 0.4

	c.Rollover = RolloverConfig{
		ProfitThreshold:   0.15,
		UseProfitRatio:    0.5,
		RatioDecay:        0.2,
		MinRatio:          0.2,
		SignalThreshold:   0.6,
		MaxTimes:          3,
		FundingConfidence: 0.7,
		FundingMinProfit:  0.05,
		LowVolatility:     0.03,
		LowVolMinProfit:   0.08,
	}

	c.FloatAdd = FloatAddConfig{
		Enabled:            true,
		MaxTimes:           1,
		MaxRatio:           0.5,
		MinRatio:           0.1,
		LossThreshold:      0.08,
		SignalRequirement:  0.6,
		SupportRequirement: 0.7,
		SupportDistance:    0.03,
	}

	c.AddOn = AddOnConfig{MinStrength: 0.6, MaxRatio: 0.3, Cooldown: 5 * time.Minute}

	c.Entry = EntryConfig{
		StrongSignal:       0.8,
		MinSignal:          0.4,
		SupportStrength:    0.6,
		ResistanceStrength: 0.6,
		SupportOffset:      0.001,
		ResistanceOffset:   0.001,
	}

	c.Pending = PendingConfig{MonitorInterval: 10 * time.Minute, MaxWait: 12 * time.Hour, Deviation: 0.05}

	c.Gateway = GatewayConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
		TdMode:         "cross",
		LeverageTTL:    24 * time.Hour,
	}

	c.Ledger.LowBalanceFloor = 3.0

	c.Cache = CacheConfig{
		Chain:         30 * time.Minute,
		Sentiment:     5 * time.Minute,
		Kline:         60 * time.Second,
		MarketCap:     12 * time.Hour,
		FundingRate:   3 * time.Minute,
		MarkPrice:     15 * time.Second,
		LeverageRatio: 3 * time.Minute,
		TakerVolume:   3 * time.Minute,
		Instrument:    time.Hour,
	}

	c.Scheduler = SchedulerConfig{
		Tick:              time.Second,
		High:              30 * time.Second,
		Medium:            60 * time.Second,
		Low:               180 * time.Second,
		LowBalanceHigh:    15 * time.Second,
		LowBalanceMedium:  30 * time.Second,
		LowBalanceLow:     60 * time.Second,
		SelectSymbols:     time.Hour,
		UpdateBalance:     120 * time.Second,
		SyncPositions:     300 * time.Second,
		RecalculateAssets: 120 * time.Second,
		CheckLowBalance:   30 * time.Second,
		CleanupLeverage:   time.Hour,
		PerformanceReport: 10 * time.Minute,
		SymbolPause:       200 * time.Millisecond,
		SlowSymbol:        5 * time.Second,
	}

	c.Universe = UniverseConfig{
		High: []string{
			"BTC-USDT-SWAP", "ETH-USDT-SWAP", "BNB-USDT-SWAP", "XRP-USDT-SWAP", "SOL-USDT-SWAP",
			"ADA-USDT-SWAP", "DOGE-USDT-SWAP", "TRX-USDT-SWAP", "LTC-USDT-SWAP", "DOT-USDT-SWAP",
		},
		Medium: []string{
			"AVAX-USDT-SWAP", "LINK-USDT-SWAP", "BCH-USDT-SWAP", "TON-USDT-SWAP",
			"HBAR-USDT-SWAP", "ATOM-USDT-SWAP", "FIL-USDT-SWAP",
		},
		Low:          []string{"XLM-USDT-SWAP", "ALGO-USDT-SWAP", "XTZ-USDT-SWAP", "SAND-USDT-SWAP"},
		TopVolumeN:   10,
		VolumeRerank: 24 * time.Hour,
	}

	return c
}
