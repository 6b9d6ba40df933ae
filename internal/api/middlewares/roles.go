package middlewares

import (
	"errors"
	"net/http"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/api/apperr"
)

// Gate admits the request only if the policy grants op to the principal that
// Authenticate attached.
func Gate(policy *access.Policy, op access.Operation, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := policy.Authorize(op, access.PrincipalFrom(r.Context()))
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}
		if errors.Is(err, access.ErrUnauthenticated) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="library"`)
		}
		apperr.WriteError(w, r, err)
	})
}
