package books

import (
	"context"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/dbx"
)

const (
	qInsertBook = `INSERT INTO books (title, author, edition_year, amount, type, status)
VALUES ($1, $2, $3, $4, $5, 'FREE')
RETURNING ` + bookColumns

	// Detail edits leave circulation columns and version alone.
	qUpdateDetails = `UPDATE books
SET title = $2, author = $3, edition_year = $4, amount = $5, type = $6
WHERE id = $1
RETURNING ` + bookColumns

	qDeleteBook = `DELETE FROM books WHERE id = $1`
)

// Create inserts a new FREE book with no circulation state.
func (s *Store) Create(ctx context.Context, d models.BookDetails) (models.Book, error) {
	var b models.Book
	err := s.db.GetContext(ctx, &b, qInsertBook, d.Title, d.Author, d.EditionYear, d.Amount, string(d.Type))
	if err != nil {
		return models.Book{}, dbx.MapPGError(err)
	}
	return b, nil
}

func (s *Store) UpdateDetails(ctx context.Context, id int64, d models.BookDetails) (models.Book, error) {
	var b models.Book
	err := s.db.GetContext(ctx, &b, qUpdateDetails, id, d.Title, d.Author, d.EditionYear, d.Amount, string(d.Type))
	if err != nil {
		return models.Book{}, dbx.MapPGError(err)
	}
	return b, nil
}

// Delete removes the book; its loan history goes with it.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, qDeleteBook, id)
	if err != nil {
		return dbx.MapPGError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
