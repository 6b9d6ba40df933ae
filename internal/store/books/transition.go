package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/dbx"
)

const (
	qApplyState = `UPDATE books
SET status = $2, reader_id = $3, taken_date = $4, give_date = $5, version = version + 1
WHERE id = $1 AND version = $6
RETURNING ` + bookColumns

	qBookExists = `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`

	qOpenLoan = `INSERT INTO loans (book_id, reader_id, taken_date, due_date) VALUES ($1, $2, $3, $4)`

	qCloseLoan = `UPDATE loans SET returned_date = $2 WHERE book_id = $1 AND returned_date IS NULL`
)

// Apply writes t.Next as one compare-and-set on the book's version and keeps
// the loan ledger in step, all in a single transaction. A stale version
// yields ErrStaleVersion; a missing book yields ErrNotFound.
func (s *Store) Apply(ctx context.Context, t models.Transition) (models.Book, error) {
	n := t.Next
	var out models.Book

	err := dbx.WithinTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &out, qApplyState,
			n.ID, string(n.Status), n.ReaderID, n.TakenDate, n.GiveDate, t.ExpectedVersion)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists, qBookExists, n.ID); err != nil {
				return err
			}
			if !exists {
				return models.ErrNotFound
			}
			return fmt.Errorf("%w: book %d is no longer at version %d", models.ErrStaleVersion, n.ID, t.ExpectedVersion)
		}
		if err != nil {
			return err
		}

		// A re-assignment closes the previous holder's loan before opening the new one.
		if _, err := tx.ExecContext(ctx, qCloseLoan, n.ID, t.On); err != nil {
			return err
		}
		if t.Kind != models.TransitionCheckout {
			return nil
		}
		if n.ReaderID == nil {
			return fmt.Errorf("%w: checkout without reader", models.ErrInvalid)
		}
		_, err = tx.ExecContext(ctx, qOpenLoan, n.ID, *n.ReaderID, t.On, t.On.AddDays(models.LoanPeriodDays))
		return err
	})
	if err != nil {
		return models.Book{}, dbx.MapPGError(err)
	}
	return out, nil
}
