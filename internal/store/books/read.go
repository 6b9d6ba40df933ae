package books

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/dbx"
	"github.com/5w1tchy/library-api/internal/store/shared"
)

const (
	qGetBook       = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	qFindByTitle   = `SELECT ` + bookColumns + ` FROM books WHERE title = $1 ORDER BY id LIMIT 1`
	qListByReader  = `SELECT ` + bookColumns + ` FROM books WHERE reader_id = $1 ORDER BY id`
	qListPastDue   = `SELECT ` + bookColumns + ` FROM books WHERE status = 'BUSY' AND give_date < $1 ORDER BY give_date, id`
	defaultListCap = 50
)

func (s *Store) Get(ctx context.Context, id int64) (models.Book, error) {
	var b models.Book
	if err := s.db.GetContext(ctx, &b, qGetBook, id); err != nil {
		return models.Book{}, dbx.MapPGError(err)
	}
	return b, nil
}

// FindByTitle returns the lowest-id book whose title matches exactly.
func (s *Store) FindByTitle(ctx context.Context, title string) (models.Book, error) {
	var b models.Book
	if err := s.db.GetContext(ctx, &b, qFindByTitle, title); err != nil {
		return models.Book{}, dbx.MapPGError(err)
	}
	return b, nil
}

// FindByAuthor matches author names containing the query, case-insensitively.
// No match yields an empty slice and a nil error.
func (s *Store) FindByAuthor(ctx context.Context, author string) ([]models.Book, error) {
	q := shared.NormalizeQuery(author)
	query, args, err := pg.From(tableBooks).
		Prepared(true).
		Select(selectColumns...).
		Where(goqu.C(colAuthor).ILike(shared.ContainsPattern(q))).
		Order(goqu.C(colID).Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build author query: %w", err)
	}
	out := []models.Book{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, dbx.MapPGError(err)
	}
	return out, nil
}

func (s *Store) ListByReader(ctx context.Context, readerID int64) ([]models.Book, error) {
	out := []models.Book{}
	if err := s.db.SelectContext(ctx, &out, qListByReader, readerID); err != nil {
		return nil, dbx.MapPGError(err)
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListCap
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	ds := pg.From(tableBooks).Prepared(true).Select(selectColumns...)
	where := goqu.Ex{}
	if f.Status != "" {
		where[colStatus] = string(f.Status)
	}
	if f.Type != "" {
		where[colType] = string(f.Type)
	}
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	query, args, err := ds.
		Order(goqu.C(colID).Asc()).
		Limit(uint(f.Limit)).
		Offset(uint(f.Offset)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	out := []models.Book{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, dbx.MapPGError(err)
	}
	return out, nil
}

// PastDue lists books still on loan whose due date lies before today.
func (s *Store) PastDue(ctx context.Context, today models.Date) ([]models.Book, error) {
	out := []models.Book{}
	if err := s.db.SelectContext(ctx, &out, qListPastDue, today); err != nil {
		return nil, dbx.MapPGError(err)
	}
	return out, nil
}
