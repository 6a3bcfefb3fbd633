package memory

import (
	"context"

	"farmstead/internal/app/ports"
)

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serializes writers on the store lock and restores the pre-transaction
// state when fn fails.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.store.inTx(ctx) {
		return ports.ErrNestedTx
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(t.store.withTx(ctx)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
