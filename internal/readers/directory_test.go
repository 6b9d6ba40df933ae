package readers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/library-api/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	byID    map[int64]models.Reader
	nextID  int64
	created []models.Reader
}

func newMemStore() *memStore { return &memStore{byID: map[int64]models.Reader{}} }

func (s *memStore) Create(_ context.Context, r models.Reader) (models.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.byID {
		if x.Email == r.Email {
			return models.Reader{}, models.ErrDuplicate
		}
	}
	s.nextID++
	r.ID = s.nextID
	s.byID[r.ID] = r
	s.created = append(s.created, r)
	return r, nil
}

func (s *memStore) Get(_ context.Context, id int64) (models.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.Reader{}, models.ErrNotFound
	}
	return r, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (models.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		if r.Email == email {
			return r, nil
		}
	}
	return models.Reader{}, models.ErrNotFound
}

func (s *memStore) List(_ context.Context, limit, offset int) ([]models.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Reader{}
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.byID[id]; ok {
			out = append(out, r)
		}
	}
	if offset >= len(out) {
		return []models.Reader{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) UpdateProfile(_ context.Context, id int64, p models.Profile) (models.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.Reader{}, models.ErrNotFound
	}
	r.Username, r.PhoneNumber = p.Username, p.PhoneNumber
	s.byID[id] = r
	return r, nil
}

func (s *memStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	r.PasswordHash = hash
	s.byID[id] = r
	return nil
}

func (s *memStore) SetRoles(_ context.Context, id int64, roles models.Roles) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	r.Roles = roles
	s.byID[id] = r
	return nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// prefixHasher marks hashes with the policy generation so rehash can be observed.
type prefixHasher struct{ gen string }

func (h prefixHasher) Hash(plain string) (string, error) { return h.gen + ":" + plain, nil }

func (h prefixHasher) Verify(plain, phc string) (bool, bool, error) {
	gen, pw, ok := strings.Cut(phc, ":")
	if !ok {
		return false, false, errors.New("bad hash")
	}
	return pw == plain, gen != h.gen, nil
}

type heldBooks map[int64][]models.Book

func (h heldBooks) ByReader(_ context.Context, id int64) ([]models.Book, error) {
	return h[id], nil
}

func newDirectory(books heldBooks) (*Directory, *memStore) {
	s := newMemStore()
	return New(s, prefixHasher{gen: "v2"}, books), s
}

func TestRegister_PersistsHashedRecord(t *testing.T) {
	d, s := newDirectory(heldBooks{})
	ctx := context.Background()

	r, err := d.Register(ctx, RegisterInput{
		Username: " Ann ", PhoneNumber: "+1 555", Email: "Ann@Example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", r.Email)
	assert.Equal(t, "Ann", r.Username)
	assert.Equal(t, models.Roles{models.RoleUser}, r.Roles)

	require.Len(t, s.created, 1)
	assert.Equal(t, "v2:s3cret-pass", s.created[0].PasswordHash, "store must receive the encoded record")
	assert.NotEqual(t, "s3cret-pass", r.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	d, _ := newDirectory(heldBooks{})
	ctx := context.Background()

	_, err := d.Register(ctx, RegisterInput{Username: "ann", Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = d.Register(ctx, RegisterInput{Username: "other", Email: "ANN@example.com", Password: "password2"})
	assert.ErrorIs(t, err, models.ErrDuplicateReader)
}

func TestRegister_Invalid(t *testing.T) {
	d, s := newDirectory(heldBooks{})
	ctx := context.Background()

	for name, in := range map[string]RegisterInput{
		"bad email":      {Username: "a", Email: "nope", Password: "password1"},
		"short password": {Username: "a", Email: "a@example.com", Password: "short"},
		"no username":    {Username: "  ", Email: "a@example.com", Password: "password1"},
	} {
		_, err := d.Register(ctx, in)
		assert.ErrorIs(t, err, models.ErrInvalid, name)
	}
	assert.Empty(t, s.created)
}

func TestUpdate_OnlyProfileFields(t *testing.T) {
	d, s := newDirectory(heldBooks{})
	ctx := context.Background()

	r, err := d.Register(ctx, RegisterInput{Username: "ann", Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)

	up, err := d.Update(ctx, r.ID, models.Profile{Username: "annie", PhoneNumber: "123"})
	require.NoError(t, err)
	assert.Equal(t, "annie", up.Username)
	assert.Equal(t, "123", up.PhoneNumber)
	assert.Equal(t, "ann@example.com", up.Email)
	assert.Equal(t, s.byID[r.ID].PasswordHash, "v2:password1")

	_, err = d.Update(ctx, 99, models.Profile{Username: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete_BlockedWhileHoldingBooks(t *testing.T) {
	books := heldBooks{}
	d, _ := newDirectory(books)
	ctx := context.Background()

	r, err := d.Register(ctx, RegisterInput{Username: "ann", Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)
	books[r.ID] = []models.Book{{ID: 1, Title: "Dune", Status: models.StatusBusy}}

	err = d.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, models.ErrConflict)

	delete(books, r.ID)
	require.NoError(t, d.Delete(ctx, r.ID))
	assert.ErrorIs(t, d.Delete(ctx, r.ID), models.ErrNotFound)
}

func TestListBooksAndLookups(t *testing.T) {
	books := heldBooks{}
	d, _ := newDirectory(books)
	ctx := context.Background()

	r, err := d.Register(ctx, RegisterInput{Username: "ann", Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)
	books[r.ID] = []models.Book{{ID: 3}, {ID: 4}}

	got, err := d.ListBooks(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = d.ListBooks(ctx, 404)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, ok, err := d.FindByID(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)

	found, ok, err := d.FindByEmail(ctx, " ANN@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, r.ID, found.ID)

	_, err = d.GetReader(ctx, 404)
	assert.ErrorIs(t, err, models.ErrNotFound)

	list, err := d.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAuthenticate_RehashesOldPolicy(t *testing.T) {
	d, s := newDirectory(heldBooks{})
	ctx := context.Background()

	old, err := s.Create(ctx, models.Reader{Username: "ann", Email: "ann@example.com", PasswordHash: "v1:password1", Roles: models.Roles{models.RoleUser}})
	require.NoError(t, err)

	_, err = d.Authenticate(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = d.Authenticate(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	r, err := d.Authenticate(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, old.ID, r.ID)
	assert.Equal(t, "v2:password1", s.byID[old.ID].PasswordHash)
}

func TestEnsureAdmin(t *testing.T) {
	d, s := newDirectory(heldBooks{})
	ctx := context.Background()

	a, err := d.EnsureAdmin(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.True(t, a.Roles.Has(models.RoleAdmin))

	again, err := d.EnsureAdmin(ctx, "admin@example.com", "ignored-password")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
	assert.Len(t, s.created, 1)

	u, err := d.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password1"})
	require.NoError(t, err)
	p, err := d.EnsureAdmin(ctx, "bob@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.True(t, s.byID[u.ID].Roles.Has(models.RoleAdmin))
	assert.Equal(t, "v2:password1", s.byID[u.ID].PasswordHash, "promotion keeps the password")
}
