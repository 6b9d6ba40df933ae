package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/5w1tchy/library-api/internal/models"
)

// WithinTx runs fn in a transaction (commit on nil, rollback on error).
func WithinTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MapPGError normalizes driver errors onto the model failure kinds. Errors it
// does not recognise are returned unchanged.
func MapPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return err
	}
	switch pg.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", models.ErrDuplicate, pg.ConstraintName)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: still referenced (%s)", models.ErrConflict, pg.ConstraintName)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return fmt.Errorf("%w: %s", models.ErrStaleVersion, pg.Message)
	case "23514", "22P02", "22001":
		return fmt.Errorf("%w: %s", models.ErrInvalid, pg.Message)
	}
	return err
}
