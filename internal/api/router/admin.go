package router

import (
	"net/http"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/api/handlers/readers"
)

// MountReaders wires the reader administration endpoints. All of them are
// admin operations in the default policy.
func MountReaders(mux *http.ServeMux, h *readers.Handler, gate func(access.Operation, http.HandlerFunc) http.Handler) {
	mux.Handle("GET /readers", gate(access.OpListReaders, h.List))
	mux.Handle("GET /readers/lookup", gate(access.OpLookupReader, h.Lookup))
	mux.Handle("GET /readers/{id}", gate(access.OpFindReader, h.Get))
	mux.Handle("PUT /readers/{id}", gate(access.OpUpdateReader, h.Put))
	mux.Handle("DELETE /readers/{id}", gate(access.OpDeleteReader, h.Delete))
	mux.Handle("GET /readers/{id}/books", gate(access.OpReaderBooks, h.Books))
}
