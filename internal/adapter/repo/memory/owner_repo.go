package memory

import (
	"context"

	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
)

type OwnerRepo struct {
	store *Store
}

func NewOwnerRepo(store *Store) OwnerRepo {
	return OwnerRepo{store: store}
}

func (r OwnerRepo) GetByID(ctx context.Context, id string) (farm.Owner, error) {
	var (
		o  farm.Owner
		ok bool
	)
	r.store.read(ctx, func() {
		o, ok = r.store.owners[id]
	})
	if !ok {
		return farm.Owner{}, ports.ErrNotFound
	}
	return o, nil
}

func (r OwnerRepo) CreateIfAbsent(ctx context.Context, owner farm.Owner) (farm.Owner, bool, error) {
	var (
		out     farm.Owner
		created bool
	)
	err := r.store.write(ctx, func() error {
		if existing, ok := r.store.owners[owner.ID]; ok {
			out = existing
			return nil
		}
		r.store.owners[owner.ID] = owner
		out, created = owner, true
		return nil
	})
	return out, created, err
}

func (r OwnerRepo) Save(ctx context.Context, owner farm.Owner) error {
	return r.store.write(ctx, func() error {
		if existing, ok := r.store.owners[owner.ID]; ok {
			owner.CreatedAt = existing.CreatedAt
		}
		r.store.owners[owner.ID] = owner
		return nil
	})
}

func (r OwnerRepo) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.owners[id]; !ok {
			return ports.ErrNotFound
		}
		delete(r.store.owners, id)
		return nil
	})
}

func (r OwnerRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	r.store.read(ctx, func() {
		_, ok = r.store.owners[id]
	})
	return ok, nil
}
