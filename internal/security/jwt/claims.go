package jwtutil

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims identify a reader and carry the roles granted at login.
type AccessClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func NewAccessClaims(readerID int64, jti string, roles []string, now time.Time, ttl time.Duration) AccessClaims {
	return AccessClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(readerID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// ReaderID parses the subject back into a reader id.
func (c *AccessClaims) ReaderID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}
