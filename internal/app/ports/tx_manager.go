package ports

import "context"

// TxManager owns transaction boundaries. Calling RunInTx with a context that
// already carries a transaction fails with ErrNestedTx.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
