package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/validate"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, map[string]any{"status": "success", "data": data})
}

func OKNoData(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

// NotFoundEmpty answers a by-id miss: 404 with an empty record body.
func NotFoundEmpty(w http.ResponseWriter) {
	WriteJSON(w, http.StatusNotFound, map[string]any{})
}

// DecodeJSON reads exactly one JSON object into dst. Malformed input and
// unknown fields are ErrInvalid; an oversized body keeps its
// *http.MaxBytesError so it can be answered with 413.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", models.ErrInvalid)
		}
		return fmt.Errorf("%w: malformed JSON: %v", models.ErrInvalid, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", models.ErrInvalid)
	}
	return nil
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (int64, error) {
	return validate.ParseID(r.PathValue("id"))
}
