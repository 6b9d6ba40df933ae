package books

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
)

const (
	tableBooks = "books"

	colID          = "id"
	colTitle       = "title"
	colAuthor      = "author"
	colEditionYear = "edition_year"
	colTakenDate   = "taken_date"
	colGiveDate    = "give_date"
	colStatus      = "status"
	colAmount      = "amount"
	colType        = "type"
	colReaderID    = "reader_id"
	colVersion     = "version"
)

const bookColumns = `id, title, author, edition_year, taken_date, give_date, status, amount, type, reader_id, version`

var selectColumns = []any{
	colID, colTitle, colAuthor, colEditionYear, colTakenDate, colGiveDate,
	colStatus, colAmount, colType, colReaderID, colVersion,
}

var pg = goqu.Dialect("postgres")

// Store persists books and their loan ledger.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }
