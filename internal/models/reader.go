package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Roles is stored as a PostgreSQL text[] and scanned from its text form.
type Roles []Role

func (rs Roles) Has(r Role) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// CSV is the form written through string_to_array on insert.
func (rs Roles) CSV() string { return strings.Join(rs.Strings(), ",") }

func (rs *Roles) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*rs = nil
		return nil
	default:
		return fmt.Errorf("models.Roles: cannot scan %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*rs = Roles{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Roles, 0, len(parts))
	for _, p := range parts {
		out = append(out, Role(strings.Trim(strings.TrimSpace(p), `"`)))
	}
	*rs = out
	return nil
}

type Reader struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Roles        Roles     `json:"roles" db:"roles"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	Books        []Book    `json:"books,omitempty" db:"-"`
}

// Profile holds the reader fields an administrator may edit.
type Profile struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
}
