package router

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/api/handlers/books"
	"github.com/5w1tchy/library-api/internal/api/handlers/readers"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/api/middlewares"
	"github.com/5w1tchy/library-api/internal/auth"
)

type Deps struct {
	Books   *books.Handler
	Readers *readers.Handler
	Auth    *auth.Handler

	Policy *access.Policy
	Tokens middlewares.TokenParser

	// RDB backs the login attempt limiter; nil disables it.
	RDB              *redis.Client
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// AfterAuth runs once the principal is known, outermost first.
	AfterAuth []func(http.Handler) http.Handler
}

// Router mounts every endpoint behind Authenticate. Each route names the one
// operation the policy evaluates for it.
func Router(d Deps) http.Handler {
	mux := http.NewServeMux()
	gate := func(op access.Operation, h http.HandlerFunc) http.Handler {
		return middlewares.Gate(d.Policy, op, h)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.OKNoData(w)
	})

	// Accounts
	var attempts redis.Scripter
	if d.RDB != nil {
		attempts = d.RDB
	}
	loginLimit := middlewares.LoginRateLimit(attempts, d.LoginMaxAttempts, d.LoginWindow)
	mux.Handle("POST /register", gate(access.OpRegister, d.Auth.Register))
	mux.Handle("POST /login", loginLimit(gate(access.OpLogin, d.Auth.Login)))

	// Books
	mux.Handle("GET /books", gate(access.OpListBooks, d.Books.List))
	mux.Handle("POST /books", gate(access.OpCreateBook, d.Books.Create))
	mux.Handle("GET /books/{id}", gate(access.OpFindBook, d.Books.Get))
	mux.Handle("PUT /books/{id}", gate(access.OpUpdateBook, d.Books.Put))
	mux.Handle("DELETE /books/{id}", gate(access.OpDeleteBook, d.Books.Delete))
	mux.Handle("GET /books/find/title", gate(access.OpSearchBooks, d.Books.FindByTitle))
	mux.Handle("GET /books/find/author", gate(access.OpSearchBooks, d.Books.FindByAuthor))

	// Circulation
	mux.Handle("POST /books/{id}/checkout", gate(access.OpCheckout, d.Books.Checkout))
	mux.Handle("POST /books/{id}/return", gate(access.OpReturn, d.Books.Return))
	mux.Handle("GET /books/{id}/owner", gate(access.OpBookOwner, d.Books.Owner))
	mux.Handle("GET /books/{id}/overdue", gate(access.OpBookOverdue, d.Books.Overdue))
	mux.Handle("GET /books/{id}/loans", gate(access.OpBookLoans, d.Books.Loans))

	MountReaders(mux, d.Readers, gate)

	var h http.Handler = mux
	for i := len(d.AfterAuth) - 1; i >= 0; i-- {
		h = d.AfterAuth[i](h)
	}
	return middlewares.Authenticate(d.Tokens, h)
}
