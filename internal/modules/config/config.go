package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs"
	defaultConfigFile = "values_local.yaml"
)

// Config ...
type Config struct {
	OKX struct {
		APIKey       string        `yaml:"api_key"`
		APISecret    string        `yaml:"api_secret"`
		Passphrase   string        `yaml:"passphrase"`
		BaseURL      string        `yaml:"base_url"`
		WSPublicURL  string        `yaml:"ws_public_url"`
		Simulated    bool          `yaml:"simulated"`
		Timeout      time.Duration `yaml:"timeout"`
		RateLimitRPS float64       `yaml:"rate_limit_rps"`
		RateBurst    int           `yaml:"rate_burst"`
	} `yaml:"okx"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"`

	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Signal    SignalConfig    `yaml:"signal"`
	Risk      RiskConfig      `yaml:"risk"`
	Exit      ExitConfig      `yaml:"exit"`
	Rollover  RolloverConfig  `yaml:"rollover"`
	FloatAdd  FloatAddConfig  `yaml:"float_add"`
	AddOn     AddOnConfig     `yaml:"add_on"`
	Entry     EntryConfig     `yaml:"entry"`
	Pending   PendingConfig   `yaml:"pending"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Universe  UniverseConfig  `yaml:"universe"`
}

type Weights struct {
	MACD              float64 `yaml:"macd"`
	RSI               float64 `yaml:"rsi"`
	Trend             float64 `yaml:"trend"`
	Technical         float64 `yaml:"technical"`
	Enhanced          float64 `yaml:"enhanced"`
	Support           float64 `yaml:"support"`
	Chain             float64 `yaml:"chain"`
	Sentiment         float64 `yaml:"sentiment"`
	Funding           float64 `yaml:"funding"`
	Market            float64 `yaml:"market"`
	ResistancePenalty float64 `yaml:"resistance_penalty"`
}

// Sum — сумма положительных весов одной стороны.
func (w Weights) Sum() float64 {
	return w.MACD + w.RSI + w.Trend + w.Technical + w.Enhanced + w.Support +
		w.Chain + w.Sentiment + w.Funding + w.Market
}

type SignalConfig struct {
	Threshold        float64 `yaml:"threshold"`
	EnableShort      bool    `yaml:"enable_short"`
	Bar              string  `yaml:"bar"`
	CandleLimit      int     `yaml:"candle_limit"`
	RSIPeriod        int     `yaml:"rsi_period"`
	RSIOversold      float64 `yaml:"rsi_oversold"`
	RSIOverbought    float64 `yaml:"rsi_overbought"`
	VolumeMultiple   float64 `yaml:"volume_multiple"`
	FundingThreshold float64 `yaml:"funding_threshold"`
	SentimentAPIKey  string  `yaml:"sentiment_api_key"`
	Weights          Weights `yaml:"weights"`
}

type RiskConfig struct {
	LowVolatility      float64 `yaml:"low_volatility"`
	HighVolatility     float64 `yaml:"high_volatility"`
	LeverageLowVol     [2]int  `yaml:"leverage_low_vol"`
	LeverageHighVol    [2]int  `yaml:"leverage_high_vol"`
	MaxLeverage        int     `yaml:"max_leverage"`
	BaseRisk           float64 `yaml:"base_risk"`
	StopFraction       float64 `yaml:"stop_fraction"`
	MaxMarginRatio     float64 `yaml:"max_margin_ratio"`
	CoinCap            float64 `yaml:"coin_cap"`
	TradeCap           float64 `yaml:"trade_cap"`
	RiskEquityCap      float64 `yaml:"risk_equity_cap"`
	MinTradable        float64 `yaml:"min_tradable"`
	MaxAccountDrawdown float64 `yaml:"max_account_drawdown"`
	FatalLoss          float64 `yaml:"fatal_loss"`
}

type ExitConfig struct {
	StopLossInit float64    `yaml:"stop_loss_init"`
	TakeProfits  [3]float64 `yaml:"take_profits"`
	Smart        struct {
		StrongSignal      float64    `yaml:"strong_signal"`
		WeakSignal        float64    `yaml:"weak_signal"`
		PartialRatios     [3]float64 `yaml:"partial_ratios"`
		MinRolloverProfit float64    `yaml:"min_rollover_profit"`
		NearLevelPct      float64    `yaml:"near_level_pct"`
		NearLevelStrength float64    `yaml:"near_level_strength"`
		NearLevelBoost    float64    `yaml:"near_level_boost"`
	} `yaml:"smart"`
	Trailing struct {
		ActivatePeak float64 `yaml:"activate_peak"`
		Drawdown     float64 `yaml:"drawdown"`
	} `yaml:"trailing"`
	Stages struct {
		First       float64 `yaml:"first"`
		Second      float64 `yaml:"second"`
		Final       float64 `yaml:"final"`
		FirstClose  float64 `yaml:"first_close"`
		SecondClose float64 `yaml:"second_close"`
	} `yaml:"stages"`
}

type RolloverConfig struct {
	ProfitThreshold   float64 `yaml:"profit_threshold"`
	UseProfitRatio    float64 `yaml:"use_profit_ratio"`
	RatioDecay        float64 `yaml:"ratio_decay"`
	MinRatio          float64 `yaml:"min_ratio"`
	SignalThreshold   float64 `yaml:"signal_threshold"`
	MaxTimes          int     `yaml:"max_times"`
	FundingConfidence float64 `yaml:"funding_confidence"`
	FundingMinProfit  float64 `yaml:"funding_min_profit"`
	LowVolatility     float64 `yaml:"low_volatility"`
	LowVolMinProfit   float64 `yaml:"low_vol_min_profit"`
}

type FloatAddConfig struct {
	Enabled            bool    `yaml:"enabled"`
	MaxTimes           int     `yaml:"max_times"`
	MaxRatio           float64 `yaml:"max_ratio"`
	MinRatio           float64 `yaml:"min_ratio"`
	LossThreshold      float64 `yaml:"loss_threshold"`
	SignalRequirement  float64 `yaml:"signal_requirement"`
	SupportRequirement float64 `yaml:"support_requirement"`
	SupportDistance    float64 `yaml:"support_distance"`
}

type AddOnConfig struct {
	MinStrength float64       `yaml:"min_strength"`
	MaxRatio    float64       `yaml:"max_ratio"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

type EntryConfig struct {
	StrongSignal       float64 `yaml:"strong_signal"`
	MinSignal          float64 `yaml:"min_signal"`
	SupportStrength    float64 `yaml:"support_strength"`
	ResistanceStrength float64 `yaml:"resistance_strength"`
	SupportOffset      float64 `yaml:"support_offset"`
	ResistanceOffset   float64 `yaml:"resistance_offset"`
}

type PendingConfig struct {
	MonitorInterval time.Duration `yaml:"monitor_interval"`
	MaxWait         time.Duration `yaml:"max_wait"`
	Deviation       float64       `yaml:"deviation"`
}

type GatewayConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	TdMode         string        `yaml:"td_mode"`
	LeverageTTL    time.Duration `yaml:"leverage_ttl"`
}

type LedgerConfig struct {
	LowBalanceFloor float64 `yaml:"low_balance_floor"`
}

type CacheConfig struct {
	Chain         time.Duration `yaml:"chain"`
	Sentiment     time.Duration `yaml:"sentiment"`
	Kline         time.Duration `yaml:"kline"`
	MarketCap     time.Duration `yaml:"market_cap"`
	FundingRate   time.Duration `yaml:"funding_rate"`
	MarkPrice     time.Duration `yaml:"mark_price"`
	LeverageRatio time.Duration `yaml:"leverage_ratio"`
	TakerVolume   time.Duration `yaml:"taker_volume"`
	Instrument    time.Duration `yaml:"instrument"`
}

type SchedulerConfig struct {
	Tick              time.Duration `yaml:"tick"`
	High              time.Duration `yaml:"high"`
	Medium            time.Duration `yaml:"medium"`
	Low               time.Duration `yaml:"low"`
	LowBalanceHigh    time.Duration `yaml:"low_balance_high"`
	LowBalanceMedium  time.Duration `yaml:"low_balance_medium"`
	LowBalanceLow     time.Duration `yaml:"low_balance_low"`
	SelectSymbols     time.Duration `yaml:"select_symbols"`
	UpdateBalance     time.Duration `yaml:"update_balance"`
	SyncPositions     time.Duration `yaml:"sync_positions"`
	RecalculateAssets time.Duration `yaml:"recalculate_assets"`
	CheckLowBalance   time.Duration `yaml:"check_low_balance"`
	CleanupLeverage   time.Duration `yaml:"cleanup_leverage"`
	PerformanceReport time.Duration `yaml:"performance_report"`
	SymbolPause       time.Duration `yaml:"symbol_pause"`
	SlowSymbol        time.Duration `yaml:"slow_symbol"`
}

type UniverseConfig struct {
	High         []string      `yaml:"high"`
	Medium       []string      `yaml:"medium"`
	Low          []string      `yaml:"low"`
	TopVolumeN   int           `yaml:"top_volume_n"`
	VolumeRerank time.Duration `yaml:"volume_rerank"`
}

// NewConfig читает configs/$CONFIG_FILE поверх дефолтов и накладывает окружение.
func NewConfig() (*Config, error) {
	v := newEnv()

	name := v.GetString("config_file")
	file, err := os.Open(filepath.Join(configDir, name))
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", name)
	}
	defer func() {
		_ = file.Close()
	}()

	cfg, err := Decode(file)
	if err != nil {
		return nil, err
	}
	applyEnv(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode разбирает yaml поверх Default().
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetDefault("config_file", defaultConfigFile)
	_ = v.BindEnv("config_file", configFilePathENV)
	_ = v.BindEnv("okx.api_key", "OKX_API_KEY")
	_ = v.BindEnv("okx.api_secret", "OKX_API_SECRET")
	_ = v.BindEnv("okx.passphrase", "OKX_PASSPHRASE")
	_ = v.BindEnv("okx.simulated", "OKX_SIMULATED")
	_ = v.BindEnv("telegram.token", "TELEGRAM_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("db_dsn", "DATABASE_DSN")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("signal.sentiment_api_key", "SENTIMENT_API_KEY")
	return v
}

// applyEnv: переменные окружения главнее файла.
func applyEnv(v *viper.Viper, cfg *Config) {
	setString(v, "okx.api_key", &cfg.OKX.APIKey)
	setString(v, "okx.api_secret", &cfg.OKX.APISecret)
	setString(v, "okx.passphrase", &cfg.OKX.Passphrase)
	setString(v, "telegram.token", &cfg.Telegram.Token)
	setString(v, "db_dsn", &cfg.DB)
	setString(v, "log.level", &cfg.Log.Level)
	setString(v, "signal.sentiment_api_key", &cfg.Signal.SentimentAPIKey)

	if v.IsSet("okx.simulated") {
		cfg.OKX.Simulated = v.GetBool("okx.simulated")
	}
	if id := v.GetInt64("telegram.chat_id"); id != 0 {
		cfg.Telegram.ChatID = id
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
