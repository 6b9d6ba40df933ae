package readers

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

// Update replaces username and phone number only.
func (d *Directory) Update(ctx context.Context, id int64, p models.Profile) (models.Reader, error) {
	p, err := cleanProfile(p)
	if err != nil {
		return models.Reader{}, err
	}
	r, err := d.store.UpdateProfile(ctx, id, p)
	if err != nil {
		return models.Reader{}, fmt.Errorf("reader %d: %w", id, err)
	}
	return r, nil
}

// Delete removes a reader. It is refused with ErrConflict while the reader
// still holds books; their loans are never released implicitly.
func (d *Directory) Delete(ctx context.Context, id int64) error {
	if _, err := d.store.Get(ctx, id); err != nil {
		return fmt.Errorf("reader %d: %w", id, err)
	}
	held, err := d.books.ByReader(ctx, id)
	if err != nil {
		return err
	}
	if len(held) > 0 {
		return fmt.Errorf("%w: reader %d still holds %d book(s)", models.ErrConflict, id, len(held))
	}
	if err := d.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("reader %d: %w", id, err)
	}
	d.logger.Info("reader deleted", "reader_id", id)
	return nil
}

// ListBooks returns the books the reader currently holds.
func (d *Directory) ListBooks(ctx context.Context, id int64) ([]models.Book, error) {
	if _, err := d.store.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("reader %d: %w", id, err)
	}
	return d.books.ByReader(ctx, id)
}

// FindByID treats absence as a valid outcome.
func (d *Directory) FindByID(ctx context.Context, id int64) (models.Reader, bool, error) {
	return optional(d.store.Get(ctx, id))
}

// FindByEmail normalizes email before looking it up; absence is not an error.
func (d *Directory) FindByEmail(ctx context.Context, email string) (models.Reader, bool, error) {
	return optional(d.store.GetByEmail(ctx, validate.NormalizeEmail(email)))
}

// GetReader resolves a reader for the circulation engine.
func (d *Directory) GetReader(ctx context.Context, id int64) (models.Reader, error) {
	return d.store.Get(ctx, id)
}

func (d *Directory) List(ctx context.Context, limit, offset int) ([]models.Reader, error) {
	limit, offset = validate.ClampPage(limit, offset, defaultPageSize, maxPageSize)
	return d.store.List(ctx, limit, offset)
}

func optional(r models.Reader, err error) (models.Reader, bool, error) {
	if errors.Is(err, models.ErrNotFound) {
		return models.Reader{}, false, nil
	}
	if err != nil {
		return models.Reader{}, false, err
	}
	return r, true, nil
}

func cleanProfile(p models.Profile) (models.Profile, error) {
	var err error
	if p.Username, err = validate.RequireBounded("username", validate.CleanText(p.Username), 1, 64); err != nil {
		return p, err
	}
	if p.PhoneNumber, err = validate.RequireBounded("phone_number", p.PhoneNumber, 0, 32); err != nil {
		return p, err
	}
	return p, nil
}
