package gormrepo

import (
	"errors"
	"fmt"

	"farmstead/internal/app/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError folds driver errors into the ports sentinels. The original error
// stays in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgExclusionViolation, pgForeignKeyViolation, pgCheckViolation:
			return fmt.Errorf("%w: %s: %w", ports.ErrConflict, pgErr.ConstraintName, err)
		}
	}
	return err
}
