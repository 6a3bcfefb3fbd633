package farming

import (
	"time"

	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
)

type PlantRequest struct {
	OwnerID          string
	Class            farm.PlotClass
	X                float64
	Y                float64
	InvestmentAmount float64
}

type HarvestRequest struct {
	PlotID  string
	OwnerID string
}

type HarvestResult struct {
	PlotID      string    `json:"plot_id"`
	YieldAmount float64   `json:"yield_amount"`
	HarvestedAt time.Time `json:"harvested_at"`
}

type AreaQuery struct {
	Rect    spatial.Rect
	OwnerID string
}

type WorldSnapshot struct {
	Owner            farm.Owner  `json:"owner"`
	Level            int64       `json:"level"`
	UnharvestedPlots []farm.Plot `json:"unharvested_plots"`
}

type Profile struct {
	Owner     farm.Owner `json:"owner"`
	Level     int64      `json:"level"`
	Growing   int64      `json:"growing"`
	Harvested int64      `json:"harvested"`
}

type PlotStatus struct {
	Progress         float64 `json:"progress"`
	Mature           bool    `json:"mature"`
	RemainingSeconds int64   `json:"remaining_seconds"`
}
