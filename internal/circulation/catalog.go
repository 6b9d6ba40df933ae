package circulation

import (
	"context"
	"fmt"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/validate"
)

// Create adds a free book; the store assigns the id.
func (e *Engine) Create(ctx context.Context, d models.BookDetails) (models.Book, error) {
	d, err := e.checkDetails(d)
	if err != nil {
		return models.Book{}, err
	}
	b, err := e.store.Create(ctx, d)
	if err != nil {
		return models.Book{}, fmt.Errorf("create book: %w", err)
	}
	e.logger.Info("book created", "book_id", b.ID, "title", b.Title)
	return b, nil
}

// Update replaces the descriptive fields only; lending state is untouched.
func (e *Engine) Update(ctx context.Context, bookID int64, d models.BookDetails) (models.Book, error) {
	d, err := e.checkDetails(d)
	if err != nil {
		return models.Book{}, err
	}
	b, err := e.store.UpdateDetails(ctx, bookID, d)
	if err != nil {
		return models.Book{}, fmt.Errorf("book %d: %w", bookID, err)
	}
	if b.IsOverdue, err = e.overdue(ctx, b); err != nil {
		return models.Book{}, err
	}
	return b, nil
}

func (e *Engine) Delete(ctx context.Context, bookID int64) error {
	if err := e.store.Delete(ctx, bookID); err != nil {
		return fmt.Errorf("book %d: %w", bookID, err)
	}
	e.logger.Info("book deleted", "book_id", bookID)
	return nil
}

func (e *Engine) checkDetails(d models.BookDetails) (models.BookDetails, error) {
	var err error
	if d.Title, err = validate.RequireBounded("title", validate.CleanText(d.Title), 1, 200); err != nil {
		return d, err
	}
	if d.Author, err = validate.RequireBounded("author", validate.CleanText(d.Author), 1, 120); err != nil {
		return d, err
	}
	if d.Type, err = models.ParseBookType(string(d.Type)); err != nil {
		return d, err
	}
	if d.Amount < 0 {
		return d, fmt.Errorf("%w: amount must not be negative", models.ErrInvalid)
	}
	if d.EditionYear < 0 || d.EditionYear > e.today().Time().Year()+1 {
		return d, fmt.Errorf("%w: edition_year %d out of range", models.ErrInvalid, d.EditionYear)
	}
	return d, nil
}
