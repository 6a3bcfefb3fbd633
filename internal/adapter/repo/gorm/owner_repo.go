package gormrepo

import (
	"context"

	"farmstead/internal/adapter/repo/gorm/model"
	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OwnerRepo struct {
	db *gorm.DB
}

func NewOwnerRepo(db *gorm.DB) OwnerRepo {
	return OwnerRepo{db: db}
}

func (r OwnerRepo) GetByID(ctx context.Context, id string) (farm.Owner, error) {
	var m model.Owner
	if err := lockingDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return farm.Owner{}, mapError(err)
	}
	return ownerFromModel(m), nil
}

// CreateIfAbsent relies on ON CONFLICT DO NOTHING, so two sessions seeing the
// same new owner both end up with the single stored row.
func (r OwnerRepo) CreateIfAbsent(ctx context.Context, owner farm.Owner) (farm.Owner, bool, error) {
	m := ownerToModel(owner)
	res := getDBFromCtx(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return farm.Owner{}, false, mapError(res.Error)
	}
	if res.RowsAffected == 1 {
		return owner, true, nil
	}
	stored, err := r.GetByID(ctx, owner.ID)
	if err != nil {
		return farm.Owner{}, false, err
	}
	return stored, false, nil
}

func (r OwnerRepo) Save(ctx context.Context, owner farm.Owner) error {
	m := ownerToModel(owner)
	err := getDBFromCtx(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "experience", "updated_at"}),
	}).Create(&m).Error
	return mapError(err)
}

func (r OwnerRepo) Delete(ctx context.Context, id string) error {
	res := getDBFromCtx(ctx, r.db).Where("id = ?", id).Delete(&model.Owner{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r OwnerRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := getDBFromCtx(ctx, r.db).Model(&model.Owner{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func ownerToModel(o farm.Owner) model.Owner {
	return model.Owner{
		ID:          o.ID,
		DisplayName: o.DisplayName,
		Experience:  o.Experience,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func ownerFromModel(m model.Owner) farm.Owner {
	return farm.Owner{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Experience:  m.Experience,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}
