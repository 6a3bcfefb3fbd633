package gormrepo

import (
	"context"
	"fmt"
	"time"

	"farmstead/internal/adapter/repo/gorm/model"
	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlotRepo struct {
	db   *gorm.DB
	grid spatial.Grid
}

func NewPlotRepo(db *gorm.DB, grid spatial.Grid) PlotRepo {
	return PlotRepo{db: db, grid: spatial.NewGrid(grid.CellSize)}
}

func (r PlotRepo) GetByID(ctx context.Context, id string) (farm.Plot, error) {
	var m model.Plot
	if err := lockingDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return farm.Plot{}, mapError(err)
	}
	return plotFromModel(m), nil
}

func (r PlotRepo) ListByOwner(ctx context.Context, ownerID string) ([]farm.Plot, error) {
	return r.find(getDBFromCtx(ctx, r.db).Where("owner_id = ?", ownerID))
}

func (r PlotRepo) ListUnharvestedByOwner(ctx context.Context, ownerID string) ([]farm.Plot, error) {
	return r.find(getDBFromCtx(ctx, r.db).Where("owner_id = ? AND NOT harvested", ownerID))
}

func (r PlotRepo) ListInArea(ctx context.Context, rect spatial.Rect, ownerID string) ([]farm.Plot, error) {
	rect = rect.Normalize()
	q := r.cellRange(getDBFromCtx(ctx, r.db), r.grid.CellRangeForBox(rect)).
		Where("x BETWEEN ? AND ? AND y BETWEEN ? AND ?", rect.MinX, rect.MaxX, rect.MinY, rect.MaxY)
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	return r.find(q)
}

// ListNear narrows by cell range in SQL and decides distance in Go so both
// stores share one boundary rule.
func (r PlotRepo) ListNear(ctx context.Context, x, y, radius float64) ([]farm.Plot, error) {
	box := r.grid.CellRadius(x, y, radius)
	if box.Empty() {
		return []farm.Plot{}, nil
	}
	candidates, err := r.find(r.cellRange(getDBFromCtx(ctx, r.db), box))
	if err != nil {
		return nil, err
	}
	out := candidates[:0]
	for _, p := range candidates {
		if spatial.WithinRadius(x, y, p.X, p.Y, radius) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r PlotRepo) cellRange(q *gorm.DB, box spatial.CellBox) *gorm.DB {
	return q.Where("NOT harvested AND grid_x BETWEEN ? AND ? AND grid_y BETWEEN ? AND ?",
		int32(box.MinX), int32(box.MaxX), int32(box.MinY), int32(box.MaxY))
}

func (r PlotRepo) find(q *gorm.DB) ([]farm.Plot, error) {
	var rows []model.Plot
	if err := q.Order("planted_at, id").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]farm.Plot, 0, len(rows))
	for _, m := range rows {
		out = append(out, plotFromModel(m))
	}
	return out, nil
}

// Save inserts a new plot or moves an existing one to its harvested state.
// A harvested row never goes back to growing.
func (r PlotRepo) Save(ctx context.Context, plot farm.Plot) error {
	if err := plot.Validate(); err != nil {
		return fmt.Errorf("save plot %s: %w", plot.ID, err)
	}
	m := plotToModel(plot)
	res := getDBFromCtx(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"harvested", "yield_amount", "harvested_at", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "NOT plots.harvested OR excluded.harvested"},
		}},
	}).Create(&m)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save plot %s: harvested plot cannot regrow: %w", plot.ID, ports.ErrConflict)
	}
	return nil
}

func (r PlotRepo) Delete(ctx context.Context, id string) error {
	res := getDBFromCtx(ctx, r.db).Where("id = ?", id).Delete(&model.Plot{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r PlotRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := getDBFromCtx(ctx, r.db).Model(&model.Plot{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func (r PlotRepo) CountByOwner(ctx context.Context, ownerID string, harvested *bool) (int64, error) {
	q := getDBFromCtx(ctx, r.db).Model(&model.Plot{}).Where("owner_id = ?", ownerID)
	if harvested != nil {
		q = q.Where("harvested = ?", *harvested)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// ReserveArea takes a transaction-scoped advisory lock per cell. Cells are
// visited in row-major order so overlapping reservations cannot deadlock.
func (r PlotRepo) ReserveArea(ctx context.Context, box spatial.CellBox) error {
	tx, ok := txFromCtx(ctx)
	if !ok {
		return fmt.Errorf("reserve area outside transaction: %w", ports.ErrConflict)
	}
	for _, c := range box.Cells() {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(c.X), int32(c.Y)).Error; err != nil {
			return mapError(err)
		}
	}
	return nil
}

func plotToModel(p farm.Plot) model.Plot {
	return model.Plot{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		PlotClass:        string(p.Class),
		X:                p.X,
		Y:                p.Y,
		GridX:            int32(p.GridX),
		GridY:            int32(p.GridY),
		PlantedAt:        p.PlantedAt,
		GrowthDurationMs: p.GrowthDuration.Milliseconds(),
		InvestmentAmount: p.InvestmentAmount,
		Harvested:        p.Harvested,
		YieldAmount:      p.YieldAmount,
		HarvestedAt:      p.HarvestedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func plotFromModel(m model.Plot) farm.Plot {
	return farm.Plot{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Class:            farm.PlotClass(m.PlotClass),
		X:                m.X,
		Y:                m.Y,
		GridX:            int(m.GridX),
		GridY:            int(m.GridY),
		PlantedAt:        m.PlantedAt.UTC(),
		GrowthDuration:   time.Duration(m.GrowthDurationMs) * time.Millisecond,
		InvestmentAmount: m.InvestmentAmount,
		Harvested:        m.Harvested,
		YieldAmount:      m.YieldAmount,
		HarvestedAt:      utcPtr(m.HarvestedAt),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
