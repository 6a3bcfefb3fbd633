package metrics

import (
	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
)

// Multi fans every farm event out to each recorder in order. Nil entries are
// skipped.
type Multi []ports.FarmMetrics

func (m Multi) RecordPlant(class farm.PlotClass, amount float64) {
	for _, r := range m {
		if r != nil {
			r.RecordPlant(class, amount)
		}
	}
}

func (m Multi) RecordHarvest(class farm.PlotClass, yieldAmount float64) {
	for _, r := range m {
		if r != nil {
			r.RecordHarvest(class, yieldAmount)
		}
	}
}

func (m Multi) RecordRejection(op, reason string) {
	for _, r := range m {
		if r != nil {
			r.RecordRejection(op, reason)
		}
	}
}

func (m Multi) RecordFailure(op string) {
	for _, r := range m {
		if r != nil {
			r.RecordFailure(op)
		}
	}
}

func (m Multi) RecordClockSkew() {
	for _, r := range m {
		if r != nil {
			r.RecordClockSkew()
		}
	}
}
