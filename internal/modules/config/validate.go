package config

import (
	"fmt"

	"github.com/pkg/errors"
)

const weightTolerance = 1e-9

// Validate отсекает несогласованные настройки до старта.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if s := c.Signal.Weights.Sum(); s > 1+weightTolerance {
		add("signal weights sum to %.3f, must be <= 1", s)
	}
	if c.Signal.Threshold < 0 || c.Signal.Threshold >= 1 {
		add("signal.threshold must be in [0,1)")
	}
	if c.Risk.MaxLeverage < 1 {
		add("risk.max_leverage must be >= 1")
	}
	for name, band := range map[string][2]int{
		"leverage_low_vol":  c.Risk.LeverageLowVol,
		"leverage_high_vol": c.Risk.LeverageHighVol,
	} {
		if band[0] < 1 || band[1] < band[0] || band[1] > c.Risk.MaxLeverage {
			add("risk.%s %v must satisfy 1 <= min <= max <= max_leverage", name, band)
		}
	}
	if c.Risk.LowVolatility >= c.Risk.HighVolatility {
		add("risk.low_volatility must be below high_volatility")
	}
	if c.Risk.StopFraction <= 0 {
		add("risk.stop_fraction must be > 0")
	}
	tp := c.Exit.TakeProfits
	if !(tp[0] > 0 && tp[0] < tp[1] && tp[1] < tp[2]) {
		add("exit.take_profits must be positive and increasing")
	}
	st := c.Exit.Stages
	if !(st.First < 0 && st.Second < st.First && st.Final < st.Second) {
		add("exit.stages must be negative and decreasing")
	}
	if c.Rollover.MaxTimes < 0 {
		add("rollover.max_times must be >= 0")
	}
	if c.Gateway.MaxAttempts < 1 {
		add("gateway.max_attempts must be >= 1")
	}
	if c.Gateway.TdMode != "cross" && c.Gateway.TdMode != "isolated" {
		add("gateway.td_mode must be cross or isolated")
	}
	for name, d := range map[string]interface{ Seconds() float64 }{
		"scheduler.tick":   c.Scheduler.Tick,
		"scheduler.high":   c.Scheduler.High,
		"scheduler.medium": c.Scheduler.Medium,
		"scheduler.low":    c.Scheduler.Low,
		"pending.max_wait": c.Pending.MaxWait,
	} {
		if d.Seconds() <= 0 {
			add("%s must be > 0", name)
		}
	}

	if len(problems) > 0 {
		return errors.Errorf("invalid config: %v", problems)
	}
	return nil
}
