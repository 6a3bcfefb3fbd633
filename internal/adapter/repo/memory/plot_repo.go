package memory

import (
	"context"
	"fmt"

	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
)

type PlotRepo struct {
	store *Store
}

func NewPlotRepo(store *Store) PlotRepo {
	return PlotRepo{store: store}
}

func (r PlotRepo) GetByID(ctx context.Context, id string) (farm.Plot, error) {
	var (
		p  farm.Plot
		ok bool
	)
	r.store.read(ctx, func() {
		p, ok = r.store.plots[id]
	})
	if !ok {
		return farm.Plot{}, ports.ErrNotFound
	}
	return p, nil
}

func (r PlotRepo) ListByOwner(ctx context.Context, ownerID string) ([]farm.Plot, error) {
	return r.filter(ctx, func(p farm.Plot) bool { return p.OwnerID == ownerID }), nil
}

func (r PlotRepo) ListUnharvestedByOwner(ctx context.Context, ownerID string) ([]farm.Plot, error) {
	return r.filter(ctx, func(p farm.Plot) bool { return p.OwnerID == ownerID && !p.Harvested }), nil
}

func (r PlotRepo) filter(ctx context.Context, keep func(farm.Plot) bool) []farm.Plot {
	out := make([]farm.Plot, 0)
	r.store.read(ctx, func() {
		for _, p := range r.store.plots {
			if keep(p) {
				out = append(out, p)
			}
		}
	})
	sortPlots(out)
	return out
}

func (r PlotRepo) ListInArea(ctx context.Context, rect spatial.Rect, ownerID string) ([]farm.Plot, error) {
	rect = rect.Normalize()
	out := make([]farm.Plot, 0)
	r.store.read(ctx, func() {
		for _, p := range r.store.candidates(r.store.grid.CellRangeForBox(rect)) {
			if p.Harvested || !rect.Contains(p.X, p.Y) {
				continue
			}
			if ownerID != "" && p.OwnerID != ownerID {
				continue
			}
			out = append(out, p)
		}
	})
	sortPlots(out)
	return out, nil
}

func (r PlotRepo) ListNear(ctx context.Context, x, y, radius float64) ([]farm.Plot, error) {
	out := make([]farm.Plot, 0)
	r.store.read(ctx, func() {
		for _, p := range r.store.candidates(r.store.grid.CellRadius(x, y, radius)) {
			if !p.Harvested && spatial.WithinRadius(x, y, p.X, p.Y, radius) {
				out = append(out, p)
			}
		}
	})
	sortPlots(out)
	return out, nil
}

// Save inserts a new plot or updates the harvest fields of an existing one.
// Position, owner and class are fixed at insert.
func (r PlotRepo) Save(ctx context.Context, plot farm.Plot) error {
	if err := plot.Validate(); err != nil {
		return fmt.Errorf("save plot %s: %w", plot.ID, err)
	}
	return r.store.write(ctx, func() error {
		existing, ok := r.store.plots[plot.ID]
		if !ok {
			r.store.plots[plot.ID] = plot
			r.store.index(plot.ID, plot.Cell())
			return nil
		}
		if existing.Harvested && !plot.Harvested {
			return fmt.Errorf("save plot %s: harvested plot cannot regrow: %w", plot.ID, ports.ErrConflict)
		}
		existing.Harvested = plot.Harvested
		existing.YieldAmount = plot.YieldAmount
		existing.HarvestedAt = plot.HarvestedAt
		existing.UpdatedAt = plot.UpdatedAt
		r.store.plots[plot.ID] = existing
		return nil
	})
}

func (r PlotRepo) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		p, ok := r.store.plots[id]
		if !ok {
			return ports.ErrNotFound
		}
		delete(r.store.plots, id)
		r.store.unindex(id, p.Cell())
		return nil
	})
}

func (r PlotRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	r.store.read(ctx, func() {
		_, ok = r.store.plots[id]
	})
	return ok, nil
}

func (r PlotRepo) CountByOwner(ctx context.Context, ownerID string, harvested *bool) (int64, error) {
	var n int64
	r.store.read(ctx, func() {
		for _, p := range r.store.plots {
			if p.OwnerID != ownerID {
				continue
			}
			if harvested != nil && p.Harvested != *harvested {
				continue
			}
			n++
		}
	})
	return n, nil
}

// ReserveArea is satisfied by the store-wide lock RunInTx already holds.
func (r PlotRepo) ReserveArea(ctx context.Context, _ spatial.CellBox) error {
	if !r.store.inTx(ctx) {
		return fmt.Errorf("reserve area outside transaction: %w", ports.ErrConflict)
	}
	return nil
}
