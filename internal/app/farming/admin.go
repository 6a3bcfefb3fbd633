package farming

import (
	"context"
	"errors"
	"strings"

	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
	"farmstead/internal/logger"
)

// RenameOwner updates the display name, creating the owner on first sight.
func (e Engine) RenameOwner(ctx context.Context, ownerID, displayName string) (farm.Owner, error) {
	ownerID = strings.TrimSpace(ownerID)
	displayName = strings.TrimSpace(displayName)
	if ownerID == "" || displayName == "" {
		return farm.Owner{}, e.reject(ctx, opRename, ErrInvalidRequest)
	}
	var out farm.Owner
	err := e.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := e.now()
		owner, _, err := ports.FindOrCreateOwner(txCtx, e.Owners, ownerID, displayName, now)
		if err != nil {
			return err
		}
		if owner.Rename(displayName, now) {
			if err := e.Owners.Save(txCtx, owner); err != nil {
				return err
			}
		}
		out = owner
		return nil
	})
	if err != nil {
		return farm.Owner{}, e.fail(ctx, opRename, &TransactionFailedError{Op: opRename, Err: err})
	}
	return out, nil
}

// RemovePlot is an administrative escape hatch; regular play never deletes plots.
func (e Engine) RemovePlot(ctx context.Context, plotID string) error {
	plotID = strings.TrimSpace(plotID)
	if plotID == "" {
		return e.reject(ctx, opRemove, ErrInvalidRequest)
	}
	err := e.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := e.Plots.Delete(txCtx, plotID); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrPlotNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			return e.reject(ctx, opRemove, err)
		}
		return e.fail(ctx, opRemove, &TransactionFailedError{Op: opRemove, Err: err})
	}
	logger.FromContext(ctx).Warn("plot removed by admin", "plot_id", plotID)
	return nil
}
