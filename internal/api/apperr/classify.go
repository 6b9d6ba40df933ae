package apperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/models"
)

// FromError maps the failure kinds of the core onto problems. Unknown errors
// become an opaque 500 and are logged.
func FromError(err error) Problem {
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return Problem{Status: http.StatusOK}
	case errors.Is(err, models.ErrEmptySearchResult):
		return Problem{Status: http.StatusNotFound, Title: "No matches", Detail: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		return Problem{Status: http.StatusNotFound, Title: "Not Found", Detail: err.Error()}
	case errors.Is(err, models.ErrDuplicateReader):
		return Problem{
			Status:      http.StatusConflict,
			Title:       "Conflict",
			FieldErrors: []FieldError{{Field: "email", Code: "unique", Message: "a reader with this email already exists"}},
		}
	case errors.Is(err, models.ErrDuplicate):
		return Problem{Status: http.StatusConflict, Title: "Conflict", Detail: err.Error()}
	case errors.Is(err, models.ErrConflict):
		return Problem{Status: http.StatusConflict, Title: "Conflict", Detail: err.Error(), Retryable: errors.Is(err, models.ErrStaleVersion)}
	case errors.Is(err, models.ErrInvalid):
		return Problem{Status: http.StatusBadRequest, Title: "Bad Request", Detail: err.Error()}
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, access.ErrUnauthenticated):
		return Problem{Status: http.StatusUnauthorized, Title: "Unauthorized", Detail: err.Error()}
	case errors.Is(err, access.ErrForbidden):
		return Problem{Status: http.StatusForbidden, Title: "Forbidden"}
	case errors.As(err, &tooLarge):
		return Problem{Status: http.StatusRequestEntityTooLarge, Title: "Payload Too Large"}
	}
	if p, ok := FromPG(err); ok {
		return p
	}
	log.Printf("[apperr] unclassified error: %v", err)
	return Problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"}
}
