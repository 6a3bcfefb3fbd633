package farm

import (
	"errors"
	"time"

	"farmstead/internal/domain/spatial"
)

var (
	ErrPlotAlreadyHarvested = errors.New("plot already harvested")
	ErrInvalidPlotState     = errors.New("invalid plot state")
)

type Plot struct {
	ID               string        `json:"id"`
	OwnerID          string        `json:"owner_id"`
	Class            PlotClass     `json:"plot_class"`
	X                float64       `json:"x"`
	Y                float64       `json:"y"`
	GridX            int           `json:"grid_x"`
	GridY            int           `json:"grid_y"`
	PlantedAt        time.Time     `json:"planted_at"`
	GrowthDuration   time.Duration `json:"growth_duration"`
	InvestmentAmount float64       `json:"investment_amount"`
	Harvested        bool          `json:"harvested"`
	YieldAmount      *float64      `json:"yield_amount"`
	HarvestedAt      *time.Time    `json:"harvested_at"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type NewPlotParams struct {
	ID               string
	OwnerID          string
	Class            PlotClass
	Spec             ClassSpec
	X                float64
	Y                float64
	InvestmentAmount float64
	Now              time.Time
}

// NewPlot builds a growing plot. The grid cell is derived here and never recomputed.
func NewPlot(grid spatial.Grid, p NewPlotParams) Plot {
	cell := grid.CellOf(p.X, p.Y)
	return Plot{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		Class:            p.Class,
		X:                p.X,
		Y:                p.Y,
		GridX:            cell.X,
		GridY:            cell.Y,
		PlantedAt:        p.Now,
		GrowthDuration:   p.Spec.GrowthDuration,
		InvestmentAmount: p.InvestmentAmount,
		CreatedAt:        p.Now,
		UpdatedAt:        p.Now,
	}
}

func (p Plot) Cell() spatial.Cell {
	return spatial.Cell{X: p.GridX, Y: p.GridY}
}

func (p Plot) Validate() error {
	if !p.Cell().InRange() {
		return ErrInvalidPlotState
	}
	if p.Harvested {
		if p.YieldAmount == nil || p.HarvestedAt == nil || *p.YieldAmount < 0 || p.HarvestedAt.Before(p.PlantedAt) {
			return ErrInvalidPlotState
		}
		return nil
	}
	if p.YieldAmount != nil || p.HarvestedAt != nil {
		return ErrInvalidPlotState
	}
	return nil
}

// MarkHarvested is the single growing -> harvested transition.
func (p *Plot) MarkHarvested(yieldAmount float64, now time.Time) error {
	if p.Harvested {
		return ErrPlotAlreadyHarvested
	}
	if yieldAmount < 0 {
		yieldAmount = 0
	}
	at := now
	if at.Before(p.PlantedAt) {
		at = p.PlantedAt
	}
	p.Harvested = true
	p.YieldAmount = &yieldAmount
	p.HarvestedAt = &at
	p.UpdatedAt = now
	return nil
}

func (p Plot) elapsed(now time.Time) time.Duration {
	d := now.Sub(p.PlantedAt)
	if d < 0 {
		return 0
	}
	return d
}

func (p Plot) IsMature(now time.Time) bool {
	if p.Harvested {
		return true
	}
	return p.elapsed(now) >= p.GrowthDuration
}

func (p Plot) TimeRemaining(now time.Time) time.Duration {
	if p.Harvested {
		return 0
	}
	left := p.GrowthDuration - p.elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// Progress is a percentage in [0, 100].
func (p Plot) Progress(now time.Time) float64 {
	if p.Harvested || p.GrowthDuration <= 0 {
		return 100
	}
	pct := float64(p.elapsed(now)) / float64(p.GrowthDuration) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
