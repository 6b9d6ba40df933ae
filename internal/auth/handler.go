package auth

import (
	"log"
	"net/http"
	"strconv"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/readers"
)

type Handler struct {
	Accounts Accounts
	Tokens   TokenIssuer
}

func New(accounts Accounts, tokens TokenIssuer) *Handler {
	return &Handler{Accounts: accounts, Tokens: tokens}
}

// Register creates a USER account and signs the caller in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req readers.RegisterInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	rd, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	tok, ok := h.issue(w, r, rd)
	if !ok {
		return
	}
	w.Header().Set("Location", "/readers/"+strconv.FormatInt(rd.ID, 10))
	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{Reader: rd, TokenResponse: tok})
}

// Login exchanges credentials for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	rd, err := h.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	tok, ok := h.issue(w, r, rd)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tok)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, rd models.Reader) (TokenResponse, bool) {
	access, exp, err := h.Tokens.SignAccess(rd.ID, rd.Roles.Strings())
	if err != nil {
		log.Printf("[auth] sign access token for reader %d: %v", rd.ID, err)
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to sign access token")
		return TokenResponse{}, false
	}
	return TokenResponse{AccessToken: access, TokenType: "Bearer", ExpiresAt: exp}, true
}
