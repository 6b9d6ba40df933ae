package readers

import (
	"context"
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/validate"
)

// Directory is the reader surface the admin endpoints call.
// *readers.Directory satisfies it.
type Directory interface {
	List(ctx context.Context, limit, offset int) ([]models.Reader, error)
	FindByID(ctx context.Context, id int64) (models.Reader, bool, error)
	FindByEmail(ctx context.Context, email string) (models.Reader, bool, error)
	Update(ctx context.Context, id int64, p models.Profile) (models.Reader, error)
	Delete(ctx context.Context, id int64) error
	ListBooks(ctx context.Context, id int64) ([]models.Book, error)
}

type Handler struct {
	Dir Directory
}

func New(d Directory) *Handler { return &Handler{Dir: d} }

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), 20, 100)
	rs, err := h.Dir.List(r.Context(), limit, offset)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, rs)
}

// Get serves GET /readers/{id}; a miss is a 404 with an empty record body.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.writeOptional(w, r)(h.Dir.FindByID(r.Context(), id))
}

// Lookup serves GET /readers/lookup?email=.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "email is required")
		return
	}
	h.writeOptional(w, r)(h.Dir.FindByEmail(r.Context(), email))
}

func (h *Handler) writeOptional(w http.ResponseWriter, r *http.Request) func(models.Reader, bool, error) {
	return func(rd models.Reader, found bool, err error) {
		switch {
		case err != nil:
			apperr.WriteError(w, r, err)
		case !found:
			httpx.NotFoundEmpty(w)
		default:
			httpx.OK(w, rd)
		}
	}
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	var p models.Profile
	if err := httpx.DecodeJSON(r, &p); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	rd, err := h.Dir.Update(r.Context(), id, p)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, rd)
}

// Delete refuses with 409 while the reader still holds books.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	if err := h.Dir.Delete(r.Context(), id); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Books(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	books, err := h.Dir.ListBooks(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, books)
}
