package readers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/dbx"
)

const readerColumns = `id, username, phone_number, email, password_hash, roles, created_at`

const (
	qInsertReader = `INSERT INTO readers (username, phone_number, email, password_hash, roles)
VALUES ($1, $2, $3, $4, string_to_array($5, ','))
RETURNING ` + readerColumns

	qGetReader        = `SELECT ` + readerColumns + ` FROM readers WHERE id = $1`
	qGetReaderByEmail = `SELECT ` + readerColumns + ` FROM readers WHERE email = $1`
	qListReaders      = `SELECT ` + readerColumns + ` FROM readers ORDER BY id LIMIT $1 OFFSET $2`

	qUpdateProfile = `UPDATE readers SET username = $2, phone_number = $3 WHERE id = $1 RETURNING ` + readerColumns
	qUpdateHash    = `UPDATE readers SET password_hash = $2 WHERE id = $1`
	qSetRoles      = `UPDATE readers SET roles = string_to_array($2, ',') WHERE id = $1`
	qDeleteReader  = `DELETE FROM readers WHERE id = $1`
)

// Store persists reader accounts.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

// Create inserts r as given. An email already on file yields ErrDuplicate.
func (s *Store) Create(ctx context.Context, r models.Reader) (models.Reader, error) {
	var out models.Reader
	err := s.db.GetContext(ctx, &out, qInsertReader, r.Username, r.PhoneNumber, r.Email, r.PasswordHash, r.Roles.CSV())
	if err != nil {
		return models.Reader{}, dbx.MapPGError(err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (models.Reader, error) {
	var r models.Reader
	if err := s.db.GetContext(ctx, &r, qGetReader, id); err != nil {
		return models.Reader{}, dbx.MapPGError(err)
	}
	return r, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.Reader, error) {
	var r models.Reader
	if err := s.db.GetContext(ctx, &r, qGetReaderByEmail, email); err != nil {
		return models.Reader{}, dbx.MapPGError(err)
	}
	return r, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]models.Reader, error) {
	out := []models.Reader{}
	if err := s.db.SelectContext(ctx, &out, qListReaders, limit, offset); err != nil {
		return nil, dbx.MapPGError(err)
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, p models.Profile) (models.Reader, error) {
	var r models.Reader
	if err := s.db.GetContext(ctx, &r, qUpdateProfile, id, p.Username, p.PhoneNumber); err != nil {
		return models.Reader{}, dbx.MapPGError(err)
	}
	return r, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return s.execOne(ctx, qUpdateHash, id, hash)
}

func (s *Store) SetRoles(ctx context.Context, id int64, roles models.Roles) error {
	return s.execOne(ctx, qSetRoles, id, roles.CSV())
}

// Delete removes the reader. A reader still referenced by a book yields
// ErrConflict.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.execOne(ctx, qDeleteReader, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrConflict) {
		return fmt.Errorf("delete reader %d: %w", id, err)
	}
	return err
}

func (s *Store) execOne(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
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
