package readers

import (
	"context"
	"errors"
	"fmt"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/validate"
)

type RegisterInput struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Register creates a USER account. The stored record carries the password
// hash, never the plaintext the caller supplied.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (models.Reader, error) {
	email, err := validate.RequireEmail(in.Email)
	if err != nil {
		return models.Reader{}, err
	}
	profile, err := cleanProfile(models.Profile{Username: in.Username, PhoneNumber: in.PhoneNumber})
	if err != nil {
		return models.Reader{}, err
	}
	if err := validate.RequirePassword(in.Password, validate.MinPasswordLen); err != nil {
		return models.Reader{}, err
	}

	if _, found, err := d.FindByEmail(ctx, email); err != nil {
		return models.Reader{}, err
	} else if found {
		return models.Reader{}, fmt.Errorf("%s: %w", email, models.ErrDuplicateReader)
	}

	hash, err := d.hasher.Hash(in.Password)
	if err != nil {
		return models.Reader{}, fmt.Errorf("hash password: %w", err)
	}

	r, err := d.store.Create(ctx, models.Reader{
		Username:     profile.Username,
		PhoneNumber:  profile.PhoneNumber,
		Email:        email,
		PasswordHash: hash,
		Roles:        models.Roles{models.RoleUser},
	})
	if errors.Is(err, models.ErrDuplicate) {
		// Lost the race against a concurrent registration.
		return models.Reader{}, fmt.Errorf("%s: %w", email, models.ErrDuplicateReader)
	}
	if err != nil {
		return models.Reader{}, err
	}
	d.logger.Info("reader registered", "reader_id", r.ID)
	return r, nil
}

// EnsureAdmin makes sure an account with the ADMIN role exists for email.
// An existing account keeps its password and gains the role.
func (d *Directory) EnsureAdmin(ctx context.Context, email, password string) (models.Reader, error) {
	email, err := validate.RequireEmail(email)
	if err != nil {
		return models.Reader{}, err
	}

	r, found, err := d.FindByEmail(ctx, email)
	if err != nil {
		return models.Reader{}, err
	}
	if found {
		if r.Roles.Has(models.RoleAdmin) {
			return r, nil
		}
		r.Roles = append(r.Roles, models.RoleAdmin)
		if err := d.store.SetRoles(ctx, r.ID, r.Roles); err != nil {
			return models.Reader{}, fmt.Errorf("promote %d: %w", r.ID, err)
		}
		d.logger.Info("reader promoted to admin", "reader_id", r.ID)
		return r, nil
	}

	if err := validate.RequirePassword(password, validate.MinPasswordLen); err != nil {
		return models.Reader{}, err
	}
	hash, err := d.hasher.Hash(password)
	if err != nil {
		return models.Reader{}, fmt.Errorf("hash password: %w", err)
	}
	r, err = d.store.Create(ctx, models.Reader{
		Username:     "admin",
		Email:        email,
		PasswordHash: hash,
		Roles:        models.Roles{models.RoleUser, models.RoleAdmin},
	})
	if err != nil {
		return models.Reader{}, err
	}
	d.logger.Info("admin account created", "reader_id", r.ID)
	return r, nil
}

// Authenticate checks credentials and upgrades the stored hash when the
// hashing policy has been raised since it was written.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (models.Reader, error) {
	r, found, err := d.FindByEmail(ctx, email)
	if err != nil {
		return models.Reader{}, err
	}
	if !found {
		return models.Reader{}, models.ErrInvalidCredentials
	}

	ok, needsRehash, err := d.hasher.Verify(password, r.PasswordHash)
	if err != nil || !ok {
		return models.Reader{}, models.ErrInvalidCredentials
	}

	if needsRehash {
		if h, err := d.hasher.Hash(password); err == nil {
			if err := d.store.UpdatePasswordHash(ctx, r.ID, h); err != nil {
				d.logger.Warn("password rehash not saved", "reader_id", r.ID, "error", err)
			} else {
				r.PasswordHash = h
			}
		}
	}
	return r, nil
}
