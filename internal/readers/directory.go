// Package readers keeps reader identity records: registration, profile edits,
// removal and the listing of books a reader holds.
package readers

import (
	"context"

	"github.com/5w1tchy/library-api/internal/models"
)

// Store is the reader persistence the directory needs.
type Store interface {
	Create(ctx context.Context, r models.Reader) (models.Reader, error)
	Get(ctx context.Context, id int64) (models.Reader, error)
	GetByEmail(ctx context.Context, email string) (models.Reader, error)
	List(ctx context.Context, limit, offset int) ([]models.Reader, error)
	UpdateProfile(ctx context.Context, id int64, p models.Profile) (models.Reader, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SetRoles(ctx context.Context, id int64, roles models.Roles) error
	Delete(ctx context.Context, id int64) error
}

// Hasher is the password hashing capability.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, phc string) (ok bool, needsRehash bool, err error)
}

// BookLister yields the books a reader currently holds.
type BookLister interface {
	ByReader(ctx context.Context, readerID int64) ([]models.Book, error)
}

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

type Directory struct {
	store  Store
	hasher Hasher
	books  BookLister
	logger Logger
}

type Option func(*Directory)

func WithLogger(l Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(store Store, hasher Hasher, books BookLister, opts ...Option) *Directory {
	d := &Directory{store: store, hasher: hasher, books: books, logger: nopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
