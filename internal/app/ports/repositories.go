package ports

import (
	"context"
	"errors"
	"time"

	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
)

type PlotRepository interface {
	GetByID(ctx context.Context, id string) (farm.Plot, error)
	ListByOwner(ctx context.Context, ownerID string) ([]farm.Plot, error)
	ListUnharvestedByOwner(ctx context.Context, ownerID string) ([]farm.Plot, error)
	// ListInArea returns unharvested plots inside rect; an empty ownerID matches every owner.
	ListInArea(ctx context.Context, rect spatial.Rect, ownerID string) ([]farm.Plot, error)
	// ListNear returns unharvested plots within radius of (x, y).
	ListNear(ctx context.Context, x, y, radius float64) ([]farm.Plot, error)
	Save(ctx context.Context, plot farm.Plot) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	CountByOwner(ctx context.Context, ownerID string, harvested *bool) (int64, error)
	// ReserveArea blocks concurrent transactions reserving any of the same
	// cells until the current transaction ends.
	ReserveArea(ctx context.Context, box spatial.CellBox) error
}

type OwnerRepository interface {
	GetByID(ctx context.Context, id string) (farm.Owner, error)
	// CreateIfAbsent inserts owner unless the id exists and returns the stored row.
	CreateIfAbsent(ctx context.Context, owner farm.Owner) (farm.Owner, bool, error)
	Save(ctx context.Context, owner farm.Owner) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// FindOrCreateOwner looks the owner up and creates it with displayName only
// when absent.
func FindOrCreateOwner(ctx context.Context, repo OwnerRepository, id, displayName string, now time.Time) (farm.Owner, bool, error) {
	owner, err := repo.GetByID(ctx, id)
	if err == nil {
		return owner, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return farm.Owner{}, false, err
	}
	return repo.CreateIfAbsent(ctx, farm.NewOwner(id, displayName, now))
}
