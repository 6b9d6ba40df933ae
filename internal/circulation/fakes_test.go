package circulation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/5w1tchy/library-api/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	books  map[int64]models.Book
	loans  []models.Loan
	nextID int64

	// getGate, when set, holds every Get after its read until all expected
	// callers have read.
	getGate *sync.WaitGroup
	// conflicts makes the next n Apply calls lose a version race.
	conflicts int
	applies   int
}

func newMemStore(books ...models.Book) *memStore {
	s := &memStore{books: map[int64]models.Book{}}
	for _, b := range books {
		s.books[b.ID] = b
		if b.ID > s.nextID {
			s.nextID = b.ID
		}
	}
	return s
}

func (s *memStore) Create(_ context.Context, d models.BookDetails) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b := models.Book{
		ID: s.nextID, Title: d.Title, Author: d.Author, EditionYear: d.EditionYear,
		Amount: d.Amount, Type: d.Type, Status: models.StatusFree,
	}
	s.books[b.ID] = b
	return b, nil
}

func (s *memStore) Get(_ context.Context, id int64) (models.Book, error) {
	s.mu.Lock()
	b, ok := s.books[id]
	s.mu.Unlock()

	// Callers leave only once all of them hold the same snapshot.
	if s.getGate != nil {
		s.getGate.Done()
		s.getGate.Wait()
	}
	if !ok {
		return models.Book{}, models.ErrNotFound
	}
	return b, nil
}

func (s *memStore) sorted(keep func(models.Book) bool) []models.Book {
	out := []models.Book{}
	for _, b := range s.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) List(_ context.Context, f models.BookFilter) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(func(b models.Book) bool {
		return (f.Status == "" || b.Status == f.Status) && (f.Type == "" || b.Type == f.Type)
	})
	if f.Offset >= len(all) {
		return []models.Book{}, nil
	}
	all = all[f.Offset:]
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (s *memStore) FindByTitle(_ context.Context, title string) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := s.sorted(func(b models.Book) bool { return b.Title == title })
	if len(found) == 0 {
		return models.Book{}, models.ErrNotFound
	}
	return found[0], nil
}

func (s *memStore) FindByAuthor(_ context.Context, author string) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(author)
	return s.sorted(func(b models.Book) bool { return strings.Contains(strings.ToLower(b.Author), q) }), nil
}

func (s *memStore) ListByReader(_ context.Context, readerID int64) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(b models.Book) bool { return b.ReaderID != nil && *b.ReaderID == readerID }), nil
}

func (s *memStore) UpdateDetails(_ context.Context, id int64, d models.BookDetails) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return models.Book{}, models.ErrNotFound
	}
	b.Title, b.Author, b.EditionYear, b.Amount, b.Type = d.Title, d.Author, d.EditionYear, d.Amount, d.Type
	s.books[id] = b
	return b, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *memStore) Apply(_ context.Context, t models.Transition) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applies++
	if s.conflicts > 0 {
		s.conflicts--
		return models.Book{}, fmt.Errorf("%w: injected", models.ErrStaleVersion)
	}
	cur, ok := s.books[t.Next.ID]
	if !ok {
		return models.Book{}, models.ErrNotFound
	}
	if cur.Version != t.ExpectedVersion {
		return models.Book{}, fmt.Errorf("%w: book %d", models.ErrStaleVersion, t.Next.ID)
	}

	next := t.Next
	next.Version = cur.Version + 1
	s.books[next.ID] = next

	for i := range s.loans {
		if s.loans[i].BookID == next.ID && s.loans[i].ReturnedDate == nil {
			s.loans[i].ReturnedDate = t.On.Ptr()
		}
	}
	if t.Kind == models.TransitionCheckout {
		s.loans = append(s.loans, models.Loan{
			ID: int64(len(s.loans) + 1), BookID: next.ID, ReaderID: *next.ReaderID,
			TakenDate: t.On, DueDate: t.On.AddDays(models.LoanPeriodDays),
		})
	}
	return next, nil
}

func (s *memStore) Loans(_ context.Context, bookID int64) ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Loan{}
	for i := len(s.loans) - 1; i >= 0; i-- {
		if s.loans[i].BookID == bookID {
			out = append(out, s.loans[i])
		}
	}
	return out, nil
}

func (s *memStore) LastClosedLoan(ctx context.Context, bookID int64) (models.Loan, bool, error) {
	loans, _ := s.Loans(ctx, bookID)
	for _, l := range loans {
		if l.ReturnedDate != nil {
			return l, true, nil
		}
	}
	return models.Loan{}, false, nil
}

func (s *memStore) PastDue(_ context.Context, today models.Date) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(b models.Book) bool {
		return b.Status == models.StatusBusy && b.GiveDate != nil && b.GiveDate.Before(today)
	}), nil
}

type memReaders map[int64]models.Reader

func (m memReaders) GetReader(_ context.Context, id int64) (models.Reader, error) {
	r, ok := m[id]
	if !ok {
		return models.Reader{}, models.ErrNotFound
	}
	return r, nil
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}
