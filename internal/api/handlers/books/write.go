package books

import (
	"fmt"
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
)

type detailsReq struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	EditionYear int    `json:"edition_year"`
	Amount      int    `json:"amount"`
	Type        string `json:"type"`
}

func (req detailsReq) details() models.BookDetails {
	return models.BookDetails{
		Title:       req.Title,
		Author:      req.Author,
		EditionYear: req.EditionYear,
		Amount:      req.Amount,
		Type:        models.BookType(req.Type),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req detailsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	b, err := h.Engine.Create(r.Context(), req.details())
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/books/%d", b.ID))
	httpx.Created(w, b)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	var req detailsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	b, err := h.Engine.Update(r.Context(), id, req.details())
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	if err := h.Engine.Delete(r.Context(), id); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	// No response body on successful delete.
	w.WriteHeader(http.StatusNoContent)
}

type checkoutReq struct {
	ReaderID int64 `json:"reader_id"`
}

// Checkout serves POST /books/{id}/checkout. A lost race is a retryable 409.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	var req checkoutReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	if req.ReaderID <= 0 {
		apperr.WriteError(w, r, fmt.Errorf("%w: reader_id must be a positive integer", models.ErrInvalid))
		return
	}
	b, err := h.Engine.Checkout(r.Context(), id, req.ReaderID)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, b)
}

func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	b, err := h.Engine.Return(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	httpx.OK(w, b)
}
