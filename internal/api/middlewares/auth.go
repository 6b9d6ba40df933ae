package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/models"
	jwtutil "github.com/5w1tchy/library-api/internal/security/jwt"
)

// TokenParser verifies an access token. *jwtutil.Signer satisfies it.
type TokenParser interface {
	ParseAccess(token string) (*jwtutil.AccessClaims, error)
}

// Authenticate attaches the caller's principal when a Bearer token is present.
// Requests without one continue anonymous; a bad header or token is a 401.
func Authenticate(tokens TokenParser, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		tokenStr, err := bearer(raw)
		if err != nil {
			unauthorized(w, r, "invalid Authorization header")
			return
		}
		claims, err := tokens.ParseAccess(tokenStr)
		if err != nil {
			unauthorized(w, r, "invalid token")
			return
		}
		readerID, err := claims.ReaderID()
		if err != nil || readerID <= 0 {
			unauthorized(w, r, "invalid token subject")
			return
		}

		roles := make(models.Roles, 0, len(claims.Roles))
		for _, s := range claims.Roles {
			roles = append(roles, models.Role(s))
		}
		ctx := access.WithPrincipal(r.Context(), access.Principal{ReaderID: readerID, Roles: roles})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="library"`)
	apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", detail)
}

func bearer(h string) (string, error) {
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", errors.New("no bearer")
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	if tok == "" {
		return "", errors.New("empty bearer")
	}
	return tok, nil
}
