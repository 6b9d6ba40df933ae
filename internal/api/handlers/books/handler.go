package books

import (
	"context"

	"github.com/5w1tchy/library-api/internal/models"
)

// Engine is the circulation surface the book endpoints call.
// *circulation.Engine satisfies it.
type Engine interface {
	Create(ctx context.Context, d models.BookDetails) (models.Book, error)
	Update(ctx context.Context, bookID int64, d models.BookDetails) (models.Book, error)
	Delete(ctx context.Context, bookID int64) error

	Checkout(ctx context.Context, bookID, readerID int64) (models.Book, error)
	Return(ctx context.Context, bookID int64) (models.Book, error)

	FindByID(ctx context.Context, bookID int64) (models.Book, bool, error)
	FindByTitle(ctx context.Context, title string) (models.Book, error)
	FindByAuthor(ctx context.Context, author string) ([]models.Book, error)
	List(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	Owner(ctx context.Context, bookID int64) (*models.Reader, error)
	IsOverdue(ctx context.Context, bookID int64) (bool, error)
	Loans(ctx context.Context, bookID int64) ([]models.Loan, error)
}

type Handler struct {
	Engine Engine
}

func New(e Engine) *Handler { return &Handler{Engine: e} }
