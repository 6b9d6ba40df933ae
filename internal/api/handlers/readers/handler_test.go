package readers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/library-api/internal/models"
)

type stubDir struct {
	readers map[int64]models.Reader
	holding map[int64]int
}

func (s *stubDir) List(_ context.Context, limit, offset int) ([]models.Reader, error) {
	out := make([]models.Reader, 0, len(s.readers))
	for _, r := range s.readers {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubDir) FindByID(_ context.Context, id int64) (models.Reader, bool, error) {
	r, ok := s.readers[id]
	return r, ok, nil
}

func (s *stubDir) FindByEmail(_ context.Context, email string) (models.Reader, bool, error) {
	for _, r := range s.readers {
		if r.Email == strings.ToLower(email) {
			return r, true, nil
		}
	}
	return models.Reader{}, false, nil
}

func (s *stubDir) Update(_ context.Context, id int64, p models.Profile) (models.Reader, error) {
	r, ok := s.readers[id]
	if !ok {
		return models.Reader{}, models.ErrNotFound
	}
	if p.Username == "" {
		return models.Reader{}, fmt.Errorf("%w: username required", models.ErrInvalid)
	}
	r.Username = p.Username
	r.PhoneNumber = p.PhoneNumber
	return r, nil
}

func (s *stubDir) Delete(_ context.Context, id int64) error {
	if _, ok := s.readers[id]; !ok {
		return models.ErrNotFound
	}
	if n := s.holding[id]; n > 0 {
		return fmt.Errorf("%w: reader %d still holds %d book(s)", models.ErrConflict, id, n)
	}
	return nil
}

func (s *stubDir) ListBooks(_ context.Context, id int64) ([]models.Book, error) {
	if _, ok := s.readers[id]; !ok {
		return nil, models.ErrNotFound
	}
	return []models.Book{{ID: 1, Title: "Dune", ReaderID: &id}}, nil
}

func newMux() *http.ServeMux {
	h := New(&stubDir{
		readers: map[int64]models.Reader{
			42: {ID: 42, Username: "ann", Email: "ann@example.com", PasswordHash: "secret-hash", Roles: models.Roles{models.RoleUser}},
			43: {ID: 43, Username: "bob", Email: "bob@example.com", Roles: models.Roles{models.RoleUser}},
		},
		holding: map[int64]int{42: 1},
	})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /readers", h.List)
	mux.HandleFunc("GET /readers/lookup", h.Lookup)
	mux.HandleFunc("GET /readers/{id}", h.Get)
	mux.HandleFunc("PUT /readers/{id}", h.Put)
	mux.HandleFunc("DELETE /readers/{id}", h.Delete)
	mux.HandleFunc("GET /readers/{id}/books", h.Books)
	return mux
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGet_NeverLeaksPasswordHash(t *testing.T) {
	rec := serve(newMux(), "GET", "/readers/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ann"`)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestGet_MissingIsEmptyRecord(t *testing.T) {
	rec := serve(newMux(), "GET", "/readers/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestLookup(t *testing.T) {
	mux := newMux()

	rec := serve(mux, "GET", "/readers/lookup?email=BOB@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":43`)

	rec = serve(mux, "GET", "/readers/lookup?email=nobody@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(mux, "GET", "/readers/lookup", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPut(t *testing.T) {
	mux := newMux()

	rec := serve(mux, "PUT", "/readers/43", `{"username":"robert","phone_number":"+1 555 0100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"robert"`)

	rec = serve(mux, "PUT", "/readers/43", `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, "PUT", "/readers/99", `{"username":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete_BlockedWhileHoldingBooks(t *testing.T) {
	mux := newMux()

	rec := serve(mux, "DELETE", "/readers/42", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"retryable":true`)

	rec = serve(mux, "DELETE", "/readers/43", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBooksAndList(t *testing.T) {
	mux := newMux()

	rec := serve(mux, "GET", "/readers/42/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Dune"`)

	rec = serve(mux, "GET", "/readers?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bob"`)
}
