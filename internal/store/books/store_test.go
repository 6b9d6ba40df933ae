package books

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/5w1tchy/library-api/internal/models"
)

var cols = []string{
	"id", "title", "author", "edition_year", "taken_date", "give_date",
	"status", "amount", "type", "reader_id", "version",
}

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "pgx")), mock
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestCreate(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qInsertBook)).
		WithArgs("War and Peace", "Leo Tolstoy", 1869, 2, "FICTION").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "War and Peace", "Leo Tolstoy", 1869, nil, nil, "FREE", 2, "FICTION", nil, 0))

	b, err := s.Create(t.Context(), models.BookDetails{
		Title: "War and Peace", Author: "Leo Tolstoy", EditionYear: 1869, Amount: 2, Type: models.TypeFiction,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if b.ID != 7 || b.Status != models.StatusFree || b.ReaderID != nil || b.TakenDate != nil {
		t.Fatalf("unexpected book: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qGetBook)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := s.Get(t.Context(), 404)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound; got %v", err)
	}
}

func TestGet_BusyScansDates(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qGetBook)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Dune", "Frank Herbert", 1965, day(2024, 3, 1), day(2024, 3, 31), "BUSY", 1, "FICTION", 9, 4))

	b, err := s.Get(t.Context(), 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if b.TakenDate == nil || b.TakenDate.String() != "2024-03-01" {
		t.Fatalf("taken date: %v", b.TakenDate)
	}
	if b.GiveDate == nil || b.GiveDate.String() != "2024-03-31" {
		t.Fatalf("give date: %v", b.GiveDate)
	}
	if b.ReaderID == nil || *b.ReaderID != 9 || b.Version != 4 {
		t.Fatalf("unexpected book: %+v", b)
	}
	if !b.Consistent() {
		t.Fatal("scanned book should be consistent")
	}
}

func TestFindByAuthor_EscapesAndNormalizes(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`FROM "books" WHERE .*"author" ILIKE \$1.*ORDER BY "id" ASC`).
		WithArgs("%Leo Tolstoy%").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "War and Peace", "Leo Tolstoy", 1869, nil, nil, "FREE", 1, "FICTION", nil, 0).
			AddRow(2, "Anna Karenina", "Leo Tolstoy", 1878, nil, nil, "FREE", 1, "FICTION", nil, 0))

	got, err := s.FindByAuthor(t.Context(), "  Leo   Tolstoy ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[1].Title != "Anna Karenina" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindByAuthor_NoMatchIsEmpty(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`FROM "books" WHERE .*"author" ILIKE`).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := s.FindByAuthor(t.Context(), "nobody")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice; got %#v", got)
	}
}

func TestList_StatusFilter(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`FROM "books" WHERE .*"status".*ORDER BY "id" ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, "Dune", "Frank Herbert", 1965, day(2024, 3, 1), day(2024, 3, 31), "BUSY", 1, "FICTION", 9, 1))

	got, err := s.List(t.Context(), models.BookFilter{Status: models.StatusBusy, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].Status != models.StatusBusy {
		t.Fatalf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateDetails_NotFound(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qUpdateDetails)).
		WithArgs(int64(5), "T", "A", 2000, 1, "REFERENCE").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := s.UpdateDetails(t.Context(), 5, models.BookDetails{
		Title: "T", Author: "A", EditionYear: 2000, Amount: 1, Type: models.TypeReference,
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound; got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(qDeleteBook)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qDeleteBook)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(t.Context(), 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := s.Delete(t.Context(), 4); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound; got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApply_CheckoutOpensLoan(t *testing.T) {
	s, mock := newStore(t)
	on := models.NewDate(2024, time.March, 1)
	reader := int64(9)

	next := models.Book{
		ID: 1, Status: models.StatusBusy, ReaderID: &reader,
		TakenDate: on.Ptr(), GiveDate: on.AddDays(30).Ptr(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qApplyState)).
		WithArgs(int64(1), "BUSY", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Dune", "Frank Herbert", 1965, day(2024, 3, 1), day(2024, 3, 31), "BUSY", 1, "FICTION", 9, 4))
	mock.ExpectExec(regexp.QuoteMeta(qCloseLoan)).
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(qOpenLoan)).
		WithArgs(int64(1), int64(9), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	b, err := s.Apply(t.Context(), models.Transition{
		Kind: models.TransitionCheckout, Next: next, ExpectedVersion: 3, On: on,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if b.Version != 4 || b.Status != models.StatusBusy {
		t.Fatalf("unexpected book: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApply_ReturnClosesLoan(t *testing.T) {
	s, mock := newStore(t)
	on := models.NewDate(2024, time.April, 2)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qApplyState)).
		WithArgs(int64(1), "FREE", nil, nil, sqlmock.AnyArg(), int64(4)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Dune", "Frank Herbert", 1965, nil, day(2024, 4, 2), "FREE", 1, "FICTION", nil, 5))
	mock.ExpectExec(regexp.QuoteMeta(qCloseLoan)).
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := s.Apply(t.Context(), models.Transition{
		Kind:            models.TransitionReturn,
		Next:            models.Book{ID: 1, Status: models.StatusFree, GiveDate: on.Ptr()},
		ExpectedVersion: 4,
		On:              on,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if b.ReaderID != nil || b.TakenDate != nil || !b.Consistent() {
		t.Fatalf("unexpected book: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApply_StaleVersionConflicts(t *testing.T) {
	s, mock := newStore(t)
	on := models.NewDate(2024, time.March, 1)
	reader := int64(2)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qApplyState)).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta(qBookExists)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.Apply(t.Context(), models.Transition{
		Kind:            models.TransitionCheckout,
		Next:            models.Book{ID: 1, Status: models.StatusBusy, ReaderID: &reader, TakenDate: on.Ptr(), GiveDate: on.AddDays(30).Ptr()},
		ExpectedVersion: 0,
		On:              on,
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("want ErrConflict; got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApply_MissingBook(t *testing.T) {
	s, mock := newStore(t)
	on := models.NewDate(2024, time.March, 1)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qApplyState)).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta(qBookExists)).
		WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := s.Apply(t.Context(), models.Transition{
		Kind: models.TransitionReturn, Next: models.Book{ID: 77, Status: models.StatusFree, GiveDate: on.Ptr()}, On: on,
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound; got %v", err)
	}
}

func TestLastClosedLoan(t *testing.T) {
	s, mock := newStore(t)
	loanCols := []string{"id", "book_id", "reader_id", "taken_date", "due_date", "returned_date"}

	mock.ExpectQuery(regexp.QuoteMeta(qLastClosedLoan)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(loanCols).
			AddRow(11, 1, 9, day(2024, 1, 1), day(2024, 1, 31), day(2024, 2, 5)))
	mock.ExpectQuery(regexp.QuoteMeta(qLastClosedLoan)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(loanCols))

	l, ok, err := s.LastClosedLoan(t.Context(), 1)
	if err != nil || !ok {
		t.Fatalf("want loan; ok=%v err=%v", ok, err)
	}
	if !l.Late() {
		t.Fatalf("loan returned 2024-02-05 on a 2024-01-01 checkout should be late: %+v", l)
	}

	_, ok, err = s.LastClosedLoan(t.Context(), 2)
	if err != nil || ok {
		t.Fatalf("want no loan; ok=%v err=%v", ok, err)
	}
}
