package books

import (
	"context"
	"errors"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/dbx"
)

const (
	loanColumns = `id, book_id, reader_id, taken_date, due_date, returned_date`

	qLoans = `SELECT ` + loanColumns + ` FROM loans WHERE book_id = $1 ORDER BY taken_date DESC, id DESC`

	qLastClosedLoan = `SELECT ` + loanColumns + ` FROM loans
WHERE book_id = $1 AND returned_date IS NOT NULL
ORDER BY returned_date DESC, id DESC
LIMIT 1`
)

// Loans returns the loan history of a book, newest first.
func (s *Store) Loans(ctx context.Context, bookID int64) ([]models.Loan, error) {
	out := []models.Loan{}
	if err := s.db.SelectContext(ctx, &out, qLoans, bookID); err != nil {
		return nil, dbx.MapPGError(err)
	}
	return out, nil
}

// LastClosedLoan returns the most recently returned loan of a book.
func (s *Store) LastClosedLoan(ctx context.Context, bookID int64) (models.Loan, bool, error) {
	var l models.Loan
	err := s.db.GetContext(ctx, &l, qLastClosedLoan, bookID)
	if err != nil {
		err = dbx.MapPGError(err)
		if errors.Is(err, models.ErrNotFound) {
			return models.Loan{}, false, nil
		}
		return models.Loan{}, false, err
	}
	return l, true, nil
}
