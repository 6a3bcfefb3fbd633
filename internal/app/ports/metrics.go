package ports

import "farmstead/internal/domain/farm"

type FarmMetrics interface {
	RecordPlant(class farm.PlotClass, amount float64)
	RecordHarvest(class farm.PlotClass, yieldAmount float64)
	RecordRejection(op, reason string)
	RecordFailure(op string)
	RecordClockSkew()
}
