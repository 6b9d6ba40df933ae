package models

import (
	"fmt"
	"strings"
)

// LoanPeriodDays is the fixed loan period: the due date is the checkout date
// plus this many days.
const LoanPeriodDays = 30

type BookStatus string

const (
	StatusFree BookStatus = "FREE"
	StatusBusy BookStatus = "BUSY"
)

type BookType string

const (
	TypeFiction    BookType = "FICTION"
	TypeNonFiction BookType = "NON_FICTION"
	TypeReference  BookType = "REFERENCE"
)

var bookTypes = []BookType{TypeFiction, TypeNonFiction, TypeReference}

// ParseBookType accepts the canonical names case-insensitively, with '-' or
// ' ' in place of '_'.
func ParseBookType(s string) (BookType, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	for _, t := range bookTypes {
		if string(t) == n {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown book type %q", ErrInvalid, s)
}

type Book struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Author      string     `json:"author" db:"author"`
	EditionYear int        `json:"edition_year" db:"edition_year"`
	TakenDate   *Date      `json:"taken_date,omitempty" db:"taken_date"`
	GiveDate    *Date      `json:"give_date,omitempty" db:"give_date"`
	IsOverdue   bool       `json:"is_overdue" db:"-"`
	Status      BookStatus `json:"status" db:"status"`
	Amount      int        `json:"amount" db:"amount"`
	Type        BookType   `json:"type" db:"type"`
	ReaderID    *int64     `json:"reader_id,omitempty" db:"reader_id"`
	Version     int64      `json:"version" db:"version"`
}

// BookDetails are the caller-editable fields of a book. Circulation state is
// never part of it.
type BookDetails struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	EditionYear int      `json:"edition_year"`
	Amount      int      `json:"amount"`
	Type        BookType `json:"type"`
}

// BookFilter narrows a book listing. Zero fields do not filter.
type BookFilter struct {
	Status BookStatus
	Type   BookType
	Limit  int
	Offset int
}

// Consistent reports whether the lending invariant holds:
// BUSY <=> reader set <=> taken date set.
func (b Book) Consistent() bool {
	busy := b.Status == StatusBusy
	return busy == (b.ReaderID != nil) && busy == (b.TakenDate != nil)
}

// DueDate is the end of the current loan, if any.
func (b Book) DueDate() (Date, bool) {
	if b.TakenDate == nil {
		return Date{}, false
	}
	return b.TakenDate.AddDays(LoanPeriodDays), true
}

// Overdue reports whether a return on give happened after the due date of a
// loan that started on taken. The boundary day itself is not late.
func Overdue(taken, give Date) bool {
	return give.After(taken.AddDays(LoanPeriodDays))
}

type Loan struct {
	ID           int64 `json:"id" db:"id"`
	BookID       int64 `json:"book_id" db:"book_id"`
	ReaderID     int64 `json:"reader_id" db:"reader_id"`
	TakenDate    Date  `json:"taken_date" db:"taken_date"`
	DueDate      Date  `json:"due_date" db:"due_date"`
	ReturnedDate *Date `json:"returned_date,omitempty" db:"returned_date"`
}

// Late reports whether the loan was closed after its due date.
func (l Loan) Late() bool {
	return l.ReturnedDate != nil && Overdue(l.TakenDate, *l.ReturnedDate)
}

// TransitionKind tells the store how the loan ledger follows a state change.
type TransitionKind int

const (
	TransitionCheckout TransitionKind = iota + 1
	TransitionReturn
)

// Transition is one read-modify-write of a book's circulation state. Next
// carries the new state; the write only applies while the stored version
// still equals ExpectedVersion.
type Transition struct {
	Kind            TransitionKind
	Next            Book
	ExpectedVersion int64
	On              Date
}
