package shared

import (
	"strings"

	"github.com/5w1tchy/library-api/internal/validate"
)

// NormalizeQuery canonicalizes user-entered search text: NFC composed form,
// trimmed, with internal whitespace runs collapsed to a single space.
func NormalizeQuery(s string) string {
	return validate.CleanText(s)
}

// ContainsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s escaped.
func ContainsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
