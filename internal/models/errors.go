package models

import "errors"

// Failure kinds surfaced by the circulation engine and the reader directory.
// Callers classify with errors.Is; context is attached with %w wrapping.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateReader = errors.New("reader with this email already exists")
	ErrConflict        = errors.New("concurrent modification")
	ErrInvalid         = errors.New("invalid")

	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmptySearchResult also matches ErrNotFound.
	ErrEmptySearchResult = emptySearch{}

	// ErrStaleVersion is a lost version race. It also matches ErrConflict;
	// unlike other conflicts, a fresh attempt may succeed.
	ErrStaleVersion = staleVersion{}
)

type emptySearch struct{}

func (emptySearch) Error() string        { return "no matches" }
func (emptySearch) Is(target error) bool { return target == ErrNotFound }

type staleVersion struct{}

func (staleVersion) Error() string        { return "stale version" }
func (staleVersion) Is(target error) bool { return target == ErrConflict }

// ErrDuplicate is returned by the stores on unique violations; the reader
// directory turns it into ErrDuplicateReader.
var ErrDuplicate = errors.New("duplicate")
