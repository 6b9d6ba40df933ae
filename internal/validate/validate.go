package validate

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/5w1tchy/library-api/internal/models"
)

// ErrInvalid is the models failure kind; handlers map it to 400.
var ErrInvalid = models.ErrInvalid

// RequireBounded trims and ensures length bounds.
func RequireBounded(name, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n < min || n > max {
		return "", fmt.Errorf("%w: %s must be between %d and %d characters", ErrInvalid, name, min, max)
	}
	return s, nil
}

// CleanText puts free text in NFC form, trims it and collapses whitespace runs.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// NormalizeEmail case-folds and trims an address so lookups are stable.
func NormalizeEmail(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// RequireEmail normalizes s and checks it is a bare address.
func RequireEmail(s string) (string, error) {
	e := NormalizeEmail(s)
	if e == "" || utf8.RuneCountInString(e) > 254 {
		return "", fmt.Errorf("%w: email is required", ErrInvalid)
	}
	a, err := mail.ParseAddress(e)
	if err != nil || a.Address != e || !strings.Contains(e, "@") {
		return "", fmt.Errorf("%w: malformed email %q", ErrInvalid, s)
	}
	return e, nil
}

// RequirePassword only checks length; composition rules are not enforced.
func RequirePassword(p string, min int) error {
	if utf8.RuneCountInString(p) < min {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalid, min)
	}
	if len(p) > 1024 {
		return fmt.Errorf("%w: password too long", ErrInvalid)
	}
	return nil
}

// ParseID parses a positive path identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", ErrInvalid)
	}
	return id, nil
}

// ClampPage applies paging defaults and bounds. A limit above max is capped.
func ClampPage(limit, offset, def, max int) (int, int) {
	switch {
	case limit < 1:
		limit = def
	case limit > max:
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ClampLimitOffset parses and clamps paging.
func ClampLimitOffset(limitRaw, offsetRaw string, def, max int) (int, int) {
	limit, err := strconv.Atoi(strings.TrimSpace(limitRaw))
	if err != nil {
		limit = def
	}
	offset, err := strconv.Atoi(strings.TrimSpace(offsetRaw))
	if err != nil {
		offset = 0
	}
	return ClampPage(limit, offset, def, max)
}
