package farming

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
	"farmstead/internal/logger"

	"github.com/google/uuid"
)

const DefaultCollisionRadius = 50.0

const (
	opPlant   = "plant"
	opHarvest = "harvest"
	opRename  = "rename_owner"
	opRemove  = "remove_plot"
)

type Engine struct {
	TxManager       ports.TxManager
	Plots           ports.PlotRepository
	Owners          ports.OwnerRepository
	Metrics         ports.FarmMetrics
	Grid            spatial.Grid
	Yield           farm.YieldCalculator
	CollisionRadius float64
	Now             func() time.Time
	NewID           func() string
}

func (e Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now()
}

func (e Engine) newID() string {
	if e.NewID == nil {
		return uuid.NewString()
	}
	return e.NewID()
}

func (e Engine) grid() spatial.Grid {
	return spatial.NewGrid(e.Grid.CellSize)
}

func (e Engine) yield() farm.YieldCalculator {
	if len(e.Yield.Classes) == 0 {
		return farm.NewYieldCalculator(nil)
	}
	return e.Yield
}

func (e Engine) collisionRadius() float64 {
	if e.CollisionRadius <= 0 {
		return DefaultCollisionRadius
	}
	return e.CollisionRadius
}

func (e Engine) Plant(ctx context.Context, req PlantRequest) (farm.Plot, error) {
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.Class = farm.ParsePlotClass(string(req.Class))
	if req.OwnerID == "" || !finite(req.X) || !finite(req.Y) || !finite(req.InvestmentAmount) || req.InvestmentAmount <= 0 {
		return farm.Plot{}, e.reject(ctx, opPlant, ErrInvalidRequest)
	}
	if !e.grid().InRange(req.X, req.Y) {
		return farm.Plot{}, e.reject(ctx, opPlant, ErrInvalidRequest)
	}

	calc := e.yield()
	spec, ok := calc.Spec(req.Class)
	if !ok {
		return farm.Plot{}, e.reject(ctx, opPlant, &InvalidPlotClassError{Class: req.Class, Known: calc.Classes.Classes()})
	}
	if !calc.ValidateInvestment(req.Class, req.InvestmentAmount) {
		return farm.Plot{}, e.reject(ctx, opPlant, &InsufficientInvestmentError{
			Class:   req.Class,
			Minimum: spec.MinInvestment,
			Amount:  req.InvestmentAmount,
		})
	}

	radius := e.collisionRadius()
	if err := e.checkVacant(ctx, req.X, req.Y, radius); err != nil {
		if IsRejection(err) {
			return farm.Plot{}, e.reject(ctx, opPlant, err)
		}
		return farm.Plot{}, e.fail(ctx, opPlant, &InfrastructureError{Op: "list near", Err: err})
	}

	now := e.now()
	plot := farm.NewPlot(e.grid(), farm.NewPlotParams{
		ID:               e.newID(),
		OwnerID:          req.OwnerID,
		Class:            req.Class,
		Spec:             spec,
		X:                req.X,
		Y:                req.Y,
		InvestmentAmount: req.InvestmentAmount,
		Now:              now,
	})
	gain := calc.ExperienceGain(req.InvestmentAmount)

	err := e.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := e.Plots.ReserveArea(txCtx, e.grid().CellRadius(req.X, req.Y, radius)); err != nil {
			return err
		}
		if err := e.checkVacant(txCtx, req.X, req.Y, radius); err != nil {
			return err
		}
		if err := e.Plots.Save(txCtx, plot); err != nil {
			return err
		}
		owner, _, err := ports.FindOrCreateOwner(txCtx, e.Owners, req.OwnerID, req.OwnerID, now)
		if err != nil {
			return err
		}
		owner.GainExperience(gain, now)
		return e.Owners.Save(txCtx, owner)
	})
	if err != nil {
		if IsRejection(err) {
			return farm.Plot{}, e.reject(ctx, opPlant, err)
		}
		return farm.Plot{}, e.fail(ctx, opPlant, &TransactionFailedError{Op: opPlant, Err: err})
	}

	if e.Metrics != nil {
		e.Metrics.RecordPlant(plot.Class, plot.InvestmentAmount)
	}
	logger.FromContext(ctx).Info("plot planted",
		"plot_id", plot.ID,
		"owner_id", plot.OwnerID,
		"plot_class", string(plot.Class),
		"x", plot.X,
		"y", plot.Y,
		"investment", plot.InvestmentAmount,
		"xp_gain", gain,
	)
	return plot, nil
}

func (e Engine) Harvest(ctx context.Context, req HarvestRequest) (HarvestResult, error) {
	req.PlotID = strings.TrimSpace(req.PlotID)
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	if req.PlotID == "" || req.OwnerID == "" {
		return HarvestResult{}, e.reject(ctx, opHarvest, ErrInvalidRequest)
	}

	if _, err := e.loadHarvestable(ctx, req, e.now()); err != nil {
		if IsRejection(err) {
			return HarvestResult{}, e.reject(ctx, opHarvest, err)
		}
		return HarvestResult{}, e.fail(ctx, opHarvest, &InfrastructureError{Op: "get plot", Err: err})
	}

	var out HarvestResult
	var class farm.PlotClass
	var skewed bool
	err := e.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := e.now()
		plot, err := e.loadHarvestable(txCtx, req, now)
		if err != nil {
			return err
		}
		res := e.yield().Yield(plot.InvestmentAmount, plot.PlantedAt, plot.Class, now)
		skewed = res.ClockSkew
		if err := plot.MarkHarvested(res.Amount, now); err != nil {
			if errors.Is(err, farm.ErrPlotAlreadyHarvested) {
				return ErrAlreadyHarvested
			}
			return err
		}
		if err := e.Plots.Save(txCtx, plot); err != nil {
			return err
		}
		class = plot.Class
		out = HarvestResult{
			PlotID:      plot.ID,
			YieldAmount: *plot.YieldAmount,
			HarvestedAt: *plot.HarvestedAt,
		}
		return nil
	})
	if skewed {
		if e.Metrics != nil {
			e.Metrics.RecordClockSkew()
		}
		logger.FromContext(ctx).Warn("harvest instant precedes planting, elapsed time clamped", "plot_id", req.PlotID)
	}
	if err != nil {
		if IsRejection(err) {
			return HarvestResult{}, e.reject(ctx, opHarvest, err)
		}
		return HarvestResult{}, e.fail(ctx, opHarvest, &TransactionFailedError{Op: opHarvest, Err: err})
	}

	if e.Metrics != nil {
		e.Metrics.RecordHarvest(class, out.YieldAmount)
	}
	logger.FromContext(ctx).Info("plot harvested",
		"plot_id", out.PlotID,
		"owner_id", req.OwnerID,
		"yield", out.YieldAmount,
	)
	return out, nil
}

// loadHarvestable applies every harvest precondition. Inside a transaction
// the read is locking, so the checks hold until commit.
func (e Engine) loadHarvestable(ctx context.Context, req HarvestRequest, now time.Time) (farm.Plot, error) {
	plot, err := e.Plots.GetByID(ctx, req.PlotID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return farm.Plot{}, ErrPlotNotFound
		}
		return farm.Plot{}, err
	}
	if plot.OwnerID != req.OwnerID {
		return farm.Plot{}, ErrNotOwner
	}
	if plot.Harvested {
		return farm.Plot{}, ErrAlreadyHarvested
	}
	if !plot.IsMature(now) {
		return farm.Plot{}, &NotMatureError{
			PlotID:    plot.ID,
			Remaining: plot.TimeRemaining(now),
			Progress:  plot.Progress(now),
		}
	}
	return plot, nil
}

func (e Engine) checkVacant(ctx context.Context, x, y, radius float64) error {
	near, err := e.Plots.ListNear(ctx, x, y, radius)
	if err != nil {
		return err
	}
	if len(near) > 0 {
		return &PositionOccupiedError{X: x, Y: y, BlockingPlotID: near[0].ID}
	}
	return nil
}

func (e Engine) reject(ctx context.Context, op string, err error) error {
	reason := ReasonCode(err)
	if e.Metrics != nil {
		e.Metrics.RecordRejection(op, reason)
	}
	logger.FromContext(ctx).Debug("farm request rejected", "op", op, "reason", reason, "error", err)
	return err
}

func (e Engine) fail(ctx context.Context, op string, err error) error {
	if e.Metrics != nil {
		e.Metrics.RecordFailure(op)
	}
	logger.FromContext(ctx).Error("farm operation failed", "op", op, "error", err)
	return err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
