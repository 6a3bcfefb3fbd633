package farm

import (
	"math"
	"time"
)

// YearDuration is a flat 365-day year; yield is linear, not compounding.
const YearDuration = 365 * 24 * time.Hour

const ExperienceUnit = 10.0

type YieldResult struct {
	Amount    float64
	ClockSkew bool
}

type YieldCalculator struct {
	Classes ClassTable
}

func NewYieldCalculator(classes ClassTable) YieldCalculator {
	if len(classes) == 0 {
		classes = DefaultClassTable()
	}
	return YieldCalculator{Classes: classes}
}

func (c YieldCalculator) Spec(class PlotClass) (ClassSpec, bool) {
	return c.Classes.Lookup(class)
}

func (c YieldCalculator) ValidateInvestment(class PlotClass, amount float64) bool {
	spec, ok := c.Classes.Lookup(class)
	if !ok {
		return false
	}
	return amount >= spec.MinInvestment
}

// Yield evaluates the payout at now. A harvest instant before plantedAt is
// clamped to zero elapsed time and flagged as ClockSkew.
func (c YieldCalculator) Yield(amount float64, plantedAt time.Time, class PlotClass, now time.Time) YieldResult {
	spec, ok := c.Classes.Lookup(class)
	if !ok || amount <= 0 {
		return YieldResult{}
	}
	elapsed := now.Sub(plantedAt)
	skew := false
	if elapsed < 0 {
		elapsed = 0
		skew = true
	}
	years := float64(elapsed) / float64(YearDuration)
	v := RoundCents(amount * spec.BaseYieldRate * years)
	if v < 0 {
		v = 0
	}
	return YieldResult{Amount: v, ClockSkew: skew}
}

func ExperienceGain(amount float64) int64 {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(math.Floor(amount / ExperienceUnit))
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c YieldCalculator) ExperienceGain(amount float64) int64 {
	return ExperienceGain(amount)
}
