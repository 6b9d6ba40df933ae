// Package access is the single place where caller privileges are checked
// against the operation being invoked. The circulation engine and the reader
// directory never look at roles.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/5w1tchy/library-api/internal/models"
)

type Operation string

const (
	OpRegister Operation = "reader.register"
	OpLogin    Operation = "auth.login"

	OpListBooks   Operation = "book.list"
	OpFindBook    Operation = "book.find"
	OpSearchBooks Operation = "book.search"
	OpCreateBook  Operation = "book.create"
	OpUpdateBook  Operation = "book.update"
	OpDeleteBook  Operation = "book.delete"
	OpCheckout    Operation = "book.checkout"
	OpReturn      Operation = "book.return"
	OpBookOwner   Operation = "book.owner"
	OpBookOverdue Operation = "book.overdue"
	OpBookLoans   Operation = "book.loans"

	OpListReaders  Operation = "reader.list"
	OpFindReader   Operation = "reader.find"
	OpLookupReader Operation = "reader.lookup"
	OpUpdateReader Operation = "reader.update"
	OpDeleteReader Operation = "reader.delete"
	OpReaderBooks  Operation = "reader.books"
)

type Requirement int

const (
	Anonymous Requirement = iota
	AnyRole
	Admin
)

func (r Requirement) String() string {
	switch r {
	case Anonymous:
		return "anonymous"
	case AnyRole:
		return "any-role"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("Requirement(%d)", int(r))
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// Principal is the authenticated caller. The zero value is anonymous.
type Principal struct {
	ReaderID int64
	Roles    models.Roles
}

func (p Principal) Authenticated() bool { return p.ReaderID != 0 }

// Policy maps every operation to the privilege it needs. Operations missing
// from the policy are denied.
type Policy struct {
	rules map[Operation]Requirement
}

func NewPolicy(rules map[Operation]Requirement) *Policy {
	cp := make(map[Operation]Requirement, len(rules))
	for op, req := range rules {
		cp[op] = req
	}
	return &Policy{rules: cp}
}

// DefaultPolicy: mutations, circulation and every reader record need ADMIN;
// book reads and searches need any signed-in role; registration and login are
// open.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Operation]Requirement{
		OpRegister: Anonymous,
		OpLogin:    Anonymous,

		OpListBooks:   AnyRole,
		OpFindBook:    AnyRole,
		OpSearchBooks: AnyRole,

		OpCreateBook:  Admin,
		OpUpdateBook:  Admin,
		OpDeleteBook:  Admin,
		OpCheckout:    Admin,
		OpReturn:      Admin,
		OpBookOwner:   Admin,
		OpBookOverdue: Admin,
		OpBookLoans:   Admin,

		OpListReaders:  Admin,
		OpFindReader:   Admin,
		OpLookupReader: Admin,
		OpUpdateReader: Admin,
		OpDeleteReader: Admin,
		OpReaderBooks:  Admin,
	})
}

func (p *Policy) Requirement(op Operation) (Requirement, bool) {
	r, ok := p.rules[op]
	return r, ok
}

// Authorize returns nil, ErrUnauthenticated or ErrForbidden.
func (p *Policy) Authorize(op Operation, who Principal) error {
	req, ok := p.rules[op]
	if !ok {
		return fmt.Errorf("%w: no rule for %s", ErrForbidden, op)
	}
	switch req {
	case Anonymous:
		return nil
	case AnyRole:
		if !who.Authenticated() {
			return ErrUnauthenticated
		}
		if len(who.Roles) == 0 {
			return ErrForbidden
		}
		return nil
	case Admin:
		if !who.Authenticated() {
			return ErrUnauthenticated
		}
		if !who.Roles.Has(models.RoleAdmin) {
			return ErrForbidden
		}
		return nil
	}
	return fmt.Errorf("%w: unknown requirement %s", ErrForbidden, req)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the caller attached to ctx, or the anonymous principal.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(ctxKey{}).(Principal)
	return p
}
