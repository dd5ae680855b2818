package models

import "time"

// AllocationSnapshot пересчитывается целиком, инкрементально не правится.
type AllocationSnapshot struct {
	Equity        float64
	InitialEquity float64
	ManualMargin  float64
	AutoMargin    float64
	PendingMargin float64
	Tradable      float64
	LowBalance    bool
	ComputedAt    time.Time
}

func (a AllocationSnapshot) PositionMargin() float64 { return a.ManualMargin + a.AutoMargin }

func (a AllocationSnapshot) TotalMargin() float64 { return a.PositionMargin() + a.PendingMargin }
