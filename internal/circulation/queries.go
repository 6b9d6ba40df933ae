package circulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/validate"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// IsOverdue reports whether the book's loan ran past its due date. A book on
// loan is judged against the later of its give date and today; a free book is
// judged by how its most recent loan ended.
func (e *Engine) IsOverdue(ctx context.Context, bookID int64) (bool, error) {
	b, err := e.store.Get(ctx, bookID)
	if err != nil {
		return false, fmt.Errorf("book %d: %w", bookID, err)
	}
	return e.overdue(ctx, b)
}

func (e *Engine) overdue(ctx context.Context, b models.Book) (bool, error) {
	if b.Status == models.StatusBusy {
		return overdueWhileBusy(b, e.today()), nil
	}
	loan, ok, err := e.store.LastClosedLoan(ctx, b.ID)
	if err != nil || !ok {
		return false, err
	}
	return loan.Late(), nil
}

func overdueWhileBusy(b models.Book, today models.Date) bool {
	if b.TakenDate == nil {
		return false
	}
	give := today
	if b.GiveDate != nil {
		give = models.Later(*b.GiveDate, today)
	}
	return models.Overdue(*b.TakenDate, give)
}

// withOverdue fills the derived flag on every book in place.
func (e *Engine) withOverdue(ctx context.Context, books []models.Book) error {
	for i := range books {
		v, err := e.overdue(ctx, books[i])
		if err != nil {
			return err
		}
		books[i].IsOverdue = v
	}
	return nil
}

// Owner returns the current holder, or nil when the book is free.
func (e *Engine) Owner(ctx context.Context, bookID int64) (*models.Reader, error) {
	b, err := e.store.Get(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("book %d: %w", bookID, err)
	}
	if b.ReaderID == nil {
		return nil, nil
	}
	r, err := e.readers.GetReader(ctx, *b.ReaderID)
	if err != nil {
		return nil, fmt.Errorf("owner of book %d: %w", bookID, err)
	}
	return &r, nil
}

// FindByID treats absence as a valid outcome.
func (e *Engine) FindByID(ctx context.Context, bookID int64) (models.Book, bool, error) {
	b, err := e.store.Get(ctx, bookID)
	if errors.Is(err, models.ErrNotFound) {
		return models.Book{}, false, nil
	}
	if err != nil {
		return models.Book{}, false, err
	}
	if b.IsOverdue, err = e.overdue(ctx, b); err != nil {
		return models.Book{}, false, err
	}
	return b, true, nil
}

// FindByTitle fails with ErrEmptySearchResult when no title matches exactly.
// The query is cleaned the way titles are on write.
func (e *Engine) FindByTitle(ctx context.Context, title string) (models.Book, error) {
	b, err := e.store.FindByTitle(ctx, validate.CleanText(title))
	if errors.Is(err, models.ErrNotFound) {
		return models.Book{}, fmt.Errorf("title %q: %w", title, models.ErrEmptySearchResult)
	}
	if err != nil {
		return models.Book{}, err
	}
	if b.IsOverdue, err = e.overdue(ctx, b); err != nil {
		return models.Book{}, err
	}
	return b, nil
}

// FindByAuthor fails with ErrEmptySearchResult rather than returning an
// empty slice.
func (e *Engine) FindByAuthor(ctx context.Context, author string) ([]models.Book, error) {
	if validate.CleanText(author) == "" {
		return nil, fmt.Errorf("%w: author is required", models.ErrInvalid)
	}
	books, err := e.store.FindByAuthor(ctx, author)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("author %q: %w", author, models.ErrEmptySearchResult)
	}
	if err := e.withOverdue(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// List pages through the catalogue; an empty page is not an error.
func (e *Engine) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	f.Limit, f.Offset = validate.ClampPage(f.Limit, f.Offset, defaultPageSize, maxPageSize)
	books, err := e.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := e.withOverdue(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// ByReader lists the books a reader currently holds.
func (e *Engine) ByReader(ctx context.Context, readerID int64) ([]models.Book, error) {
	books, err := e.store.ListByReader(ctx, readerID)
	if err != nil {
		return nil, err
	}
	if err := e.withOverdue(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// Loans returns the loan history of a book, newest first.
func (e *Engine) Loans(ctx context.Context, bookID int64) ([]models.Loan, error) {
	if _, err := e.store.Get(ctx, bookID); err != nil {
		return nil, fmt.Errorf("book %d: %w", bookID, err)
	}
	return e.store.Loans(ctx, bookID)
}

// PastDue lists books still on loan whose due date is before today. Unlike
// IsOverdue this is a live view used by the maintenance sweep.
func (e *Engine) PastDue(ctx context.Context, today models.Date) ([]models.Book, error) {
	books, err := e.store.PastDue(ctx, today)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].IsOverdue = overdueWhileBusy(books[i], today)
	}
	return books, nil
}
