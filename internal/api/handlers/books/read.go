package books

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/validate"
)

// List serves GET /books with optional status, type, limit and offset.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f models.BookFilter
	f.Limit, f.Offset = validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), 20, 100)

	if s := strings.ToUpper(strings.TrimSpace(q.Get("status"))); s != "" {
		switch models.BookStatus(s) {
		case models.StatusFree, models.StatusBusy:
			f.Status = models.BookStatus(s)
		default:
			apperr.WriteError(w, r, fmt.Errorf("%w: unknown status %q", models.ErrInvalid, s))
			return
		}
	}
	if t := q.Get("type"); t != "" {
		bt, err := models.ParseBookType(t)
		if err != nil {
			apperr.WriteError(w, r, err)
			return
		}
		f.Type = bt
	}

	books, err := h.Engine.List(r.Context(), f)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, books)
}

// Get serves GET /books/{id}. A missing book is a 404 with an empty body
// record, not a problem document.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	b, found, err := h.Engine.FindByID(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	if !found {
		httpx.NotFoundEmpty(w)
		return
	}
	httpx.OK(w, b)
}

func (h *Handler) FindByTitle(w http.ResponseWriter, r *http.Request) {
	b, err := h.Engine.FindByTitle(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, b)
}

func (h *Handler) FindByAuthor(w http.ResponseWriter, r *http.Request) {
	books, err := h.Engine.FindByAuthor(r.Context(), r.URL.Query().Get("author"))
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, books)
}

// Owner answers with the current holder, or null for a FREE book.
func (h *Handler) Owner(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	owner, err := h.Engine.Owner(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, owner)
}

func (h *Handler) Overdue(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	late, err := h.Engine.IsOverdue(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{"book_id": id, "overdue": late})
}

func (h *Handler) Loans(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	loans, err := h.Engine.Loans(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, loans)
}
