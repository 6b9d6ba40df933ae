package circulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/5w1tchy/library-api/internal/models"
)

// Checkout lends the book to the reader from today for the loan period. A
// book already on loan is re-assigned. A concurrent transition on the same
// book makes this call fail with ErrConflict; it is not retried.
func (e *Engine) Checkout(ctx context.Context, bookID, readerID int64) (models.Book, error) {
	b, err := e.store.Get(ctx, bookID)
	if err != nil {
		return models.Book{}, fmt.Errorf("book %d: %w", bookID, err)
	}
	if _, err := e.readers.GetReader(ctx, readerID); err != nil {
		return models.Book{}, fmt.Errorf("reader %d: %w", readerID, err)
	}

	today := e.today()
	next := b
	next.Status = models.StatusBusy
	next.ReaderID = &readerID
	next.TakenDate = today.Ptr()
	next.GiveDate = today.AddDays(models.LoanPeriodDays).Ptr()

	out, err := e.store.Apply(ctx, models.Transition{
		Kind:            models.TransitionCheckout,
		Next:            next,
		ExpectedVersion: b.Version,
		On:              today,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			e.logger.Warn("checkout lost race", "book_id", bookID, "reader_id", readerID, "version", b.Version)
		}
		return models.Book{}, fmt.Errorf("checkout book %d: %w", bookID, err)
	}
	if b.ReaderID != nil && *b.ReaderID != readerID {
		e.logger.Info("book re-assigned", "book_id", bookID, "from_reader", *b.ReaderID, "to_reader", readerID)
	}
	e.logger.Info("book checked out", "book_id", bookID, "reader_id", readerID, "due", next.GiveDate.String())

	out.IsOverdue = overdueWhileBusy(out, today)
	return out, nil
}

// Return frees the book as of today. Returning a book that is already free
// succeeds and only moves its give date. Version conflicts are retried.
func (e *Engine) Return(ctx context.Context, bookID int64) (models.Book, error) {
	var out models.Book
	var late bool

	err := retryOnConflict(ctx, func(ctx context.Context) error {
		b, err := e.store.Get(ctx, bookID)
		if err != nil {
			return fmt.Errorf("book %d: %w", bookID, err)
		}

		today := e.today()
		late = b.Status == models.StatusBusy && b.TakenDate != nil && models.Overdue(*b.TakenDate, today)

		next := b
		next.Status = models.StatusFree
		next.ReaderID = nil
		next.TakenDate = nil
		next.GiveDate = today.Ptr()

		out, err = e.store.Apply(ctx, models.Transition{
			Kind:            models.TransitionReturn,
			Next:            next,
			ExpectedVersion: b.Version,
			On:              today,
		})
		if errors.Is(err, models.ErrConflict) {
			e.logger.Debug("return conflict, retrying", "book_id", bookID, "version", b.Version)
		}
		return err
	}, e.retry...)
	if err != nil {
		return models.Book{}, fmt.Errorf("return book %d: %w", bookID, err)
	}

	out.IsOverdue = late
	e.logger.Info("book returned", "book_id", bookID, "late", late)
	return out, nil
}
