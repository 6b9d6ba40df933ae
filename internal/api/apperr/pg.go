package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Map well-known constraint names to fields (extend as you add constraints)
var constraintField = map[string]string{
	"readers_email_key":         "email",
	"books_reader_id_fkey":      "reader_id",
	"books_lending_state_check": "status",
	"books_amount_check":        "amount",
	"books_edition_year_check":  "edition_year",
	"books_type_check":          "type",
	"loans_book_id_fkey":        "book_id",
	"loans_reader_id_fkey":      "reader_id",
}

func fieldFromConstraint(c string) string {
	if f, ok := constraintField[c]; ok {
		return f
	}
	return ""
}

// FromPG maps driver errors the stores did not classify. Returns
// (Problem, true) if err carries a *pgconn.PgError.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	p := Problem{Title: "Database error", Status: http.StatusInternalServerError}
	field := fieldFromConstraint(pg.ConstraintName)
	if field == "" {
		field = pg.ColumnName
	}

	switch {
	case pg.Code == "23502": // not_null_violation
		if field == "" {
			field = "field"
		}
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		p.FieldErrors = []FieldError{{Field: field, Code: "not_null", Message: "required field is missing"}}
	case pg.Code == "57014": // query_canceled
		p.Status = http.StatusServiceUnavailable
		p.Title = "Service Unavailable"
		p.Retryable = true
	case strings.HasPrefix(pg.Code, "08"): // connection_exception
		p.Status = http.StatusServiceUnavailable
		p.Title = "Service Unavailable"
		p.Retryable = true
	}
	return p, true
}
