package farming

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
)

func (e Engine) PlotsOf(ctx context.Context, ownerID string) ([]farm.Plot, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrInvalidRequest
	}
	plots, err := e.Plots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, &InfrastructureError{Op: "list plots by owner", Err: err}
	}
	return plots, nil
}

func (e Engine) UnharvestedPlotsOf(ctx context.Context, ownerID string) ([]farm.Plot, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrInvalidRequest
	}
	plots, err := e.Plots.ListUnharvestedByOwner(ctx, ownerID)
	if err != nil {
		return nil, &InfrastructureError{Op: "list unharvested plots", Err: err}
	}
	return plots, nil
}

// PlotsInArea returns the unharvested plots whose position lies inside q.Rect.
func (e Engine) PlotsInArea(ctx context.Context, q AreaQuery) ([]farm.Plot, error) {
	r := q.Rect.Normalize()
	if !finite(r.MinX) || !finite(r.MinY) || !finite(r.MaxX) || !finite(r.MaxY) {
		return nil, ErrInvalidRequest
	}
	plots, err := e.Plots.ListInArea(ctx, r, strings.TrimSpace(q.OwnerID))
	if err != nil {
		return nil, &InfrastructureError{Op: "list plots in area", Err: err}
	}
	return plots, nil
}

// IsAvailable reports whether a plot could be planted at (x, y). A
// non-positive radius means the configured collision radius. Points outside
// the plantable range are rejected rather than reported as taken.
func (e Engine) IsAvailable(ctx context.Context, x, y, radius float64) (bool, error) {
	if !finite(x) || !finite(y) || !finite(radius) || !e.grid().InRange(x, y) {
		return false, ErrInvalidRequest
	}
	if radius <= 0 {
		radius = e.collisionRadius()
	}
	near, err := e.Plots.ListNear(ctx, x, y, radius)
	if err != nil {
		return false, &InfrastructureError{Op: "list near", Err: err}
	}
	return len(near) == 0, nil
}

// WorldSnapshot is the read a session performs when it loads an owner's world.
// The owner is created on first sight.
func (e Engine) WorldSnapshot(ctx context.Context, ownerID, displayName string) (WorldSnapshot, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return WorldSnapshot{}, ErrInvalidRequest
	}
	owner, err := e.findOrCreateOwner(ctx, ownerID, displayName)
	if err != nil {
		return WorldSnapshot{}, err
	}
	plots, err := e.Plots.ListUnharvestedByOwner(ctx, ownerID)
	if err != nil {
		return WorldSnapshot{}, &InfrastructureError{Op: "list unharvested plots", Err: err}
	}
	if plots == nil {
		plots = []farm.Plot{}
	}
	return WorldSnapshot{Owner: owner, Level: owner.Level(), UnharvestedPlots: plots}, nil
}

func (e Engine) OwnerProfile(ctx context.Context, ownerID string) (Profile, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Profile{}, ErrInvalidRequest
	}
	owner, err := e.findOrCreateOwner(ctx, ownerID, "")
	if err != nil {
		return Profile{}, err
	}
	growing, harvested := false, true
	nGrowing, err := e.Plots.CountByOwner(ctx, ownerID, &growing)
	if err != nil {
		return Profile{}, &InfrastructureError{Op: "count growing plots", Err: err}
	}
	nHarvested, err := e.Plots.CountByOwner(ctx, ownerID, &harvested)
	if err != nil {
		return Profile{}, &InfrastructureError{Op: "count harvested plots", Err: err}
	}
	return Profile{
		Owner:     owner,
		Level:     owner.Level(),
		Growing:   nGrowing,
		Harvested: nHarvested,
	}, nil
}

func (e Engine) findOrCreateOwner(ctx context.Context, ownerID, displayName string) (farm.Owner, error) {
	owner, err := e.Owners.GetByID(ctx, ownerID)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return farm.Owner{}, &InfrastructureError{Op: "get owner", Err: err}
	}
	owner, _, err = e.Owners.CreateIfAbsent(ctx, farm.NewOwner(ownerID, displayName, e.now()))
	if err != nil {
		return farm.Owner{}, &InfrastructureError{Op: "create owner", Err: err}
	}
	return owner, nil
}

func (e Engine) Progress(plot farm.Plot) float64 {
	return plot.Progress(e.now())
}

func (e Engine) IsMature(plot farm.Plot) bool {
	return plot.IsMature(e.now())
}

func (e Engine) TimeRemaining(plot farm.Plot) time.Duration {
	return plot.TimeRemaining(e.now())
}

func (e Engine) Status(plot farm.Plot) PlotStatus {
	now := e.now()
	return PlotStatus{
		Progress:         plot.Progress(now),
		Mature:           plot.IsMature(now),
		RemainingSeconds: int64(math.Ceil(plot.TimeRemaining(now).Seconds())),
	}
}
