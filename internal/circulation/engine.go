// Package circulation owns the lending state machine of a book: checkout,
// return, overdue evaluation and ownership, plus the catalogue operations and
// searches that surround it.
package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/5w1tchy/library-api/internal/models"
)

// Store is the book persistence the engine needs.
type Store interface {
	Create(ctx context.Context, d models.BookDetails) (models.Book, error)
	Get(ctx context.Context, id int64) (models.Book, error)
	List(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	FindByTitle(ctx context.Context, title string) (models.Book, error)
	FindByAuthor(ctx context.Context, author string) ([]models.Book, error)
	ListByReader(ctx context.Context, readerID int64) ([]models.Book, error)
	UpdateDetails(ctx context.Context, id int64, d models.BookDetails) (models.Book, error)
	Delete(ctx context.Context, id int64) error

	// Apply writes a transition as a compare-and-set on the book version.
	Apply(ctx context.Context, t models.Transition) (models.Book, error)

	Loans(ctx context.Context, bookID int64) ([]models.Loan, error)
	LastClosedLoan(ctx context.Context, bookID int64) (models.Loan, bool, error)
	PastDue(ctx context.Context, today models.Date) ([]models.Book, error)
}

// ReaderLookup resolves reader ids. A missing reader yields ErrNotFound.
type ReaderLookup interface {
	GetReader(ctx context.Context, id int64) (models.Reader, error)
}

// ReaderLookupFunc adapts a function to ReaderLookup.
type ReaderLookupFunc func(ctx context.Context, id int64) (models.Reader, error)

func (f ReaderLookupFunc) GetReader(ctx context.Context, id int64) (models.Reader, error) {
	return f(ctx, id)
}

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Clock supplies "today". Dates are taken in the clock's location.
type Clock interface {
	Now() time.Time
}

type systemClock struct{ loc *time.Location }

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// SystemClock reads the wall clock in loc (UTC when nil).
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

// Engine is safe for concurrent use; it holds no per-book state.
type Engine struct {
	store   Store
	readers ReaderLookup
	clock   Clock
	logger  Logger
	retry   []RetryOption
}

// Option configures an Engine.
type Option func(*Engine) error

var ErrNilDependency = errors.New("circulation: nil dependency")

func WithClock(c Clock) Option {
	return func(e *Engine) error {
		if c == nil {
			return ErrNilDependency
		}
		e.clock = c
		return nil
	}
}

func WithLogger(l Logger) Option {
	return func(e *Engine) error {
		if l == nil {
			return ErrNilDependency
		}
		e.logger = l
		return nil
	}
}

// WithRetry tunes how conflicting returns are retried.
func WithRetry(opts ...RetryOption) Option {
	return func(e *Engine) error {
		e.retry = append(e.retry, opts...)
		return nil
	}
}

func New(store Store, readers ReaderLookup, opts ...Option) (*Engine, error) {
	if store == nil || readers == nil {
		return nil, ErrNilDependency
	}
	e := &Engine{
		store:   store,
		readers: readers,
		clock:   SystemClock(time.UTC),
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) today() models.Date { return models.DateOf(e.clock.Now()) }
