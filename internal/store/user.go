package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metapress/internal/models"
)

// UserStore handles API user lookups and enrollment.
type UserStore struct {
	c conn
}

const userColumns = `uid, name, api_password_hash, totp_secret, totp_enabled, created`

// FindByName retrieves a user by name. Returns nil if not found.
func (s *UserStore) FindByName(ctx context.Context, name string) (*models.User, error) {
	u := &models.User{}
	err := s.c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, []any{name},
		&u.ID, &u.Name, &u.APIPasswordHash, &u.TOTPSecret, &u.TOTPEnabled, &u.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	return u, nil
}

// Create inserts an API user with an already hashed password.
func (s *UserStore) Create(ctx context.Context, name, passwordHash string) (*models.User, error) {
	u := &models.User{Name: name, APIPasswordHash: passwordHash, Created: time.Now().Unix()}
	err := s.c.queryRow(ctx, `
		INSERT INTO users (name, api_password_hash, totp_enabled, created)
		VALUES ($1, $2, FALSE, $3)
		RETURNING uid`,
		[]any{u.Name, u.APIPasswordHash, u.Created}, &u.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SetTOTP stores a TOTP secret and enables or disables the second factor.
// A nil secret clears enrollment.
func (s *UserStore) SetTOTP(ctx context.Context, uid int64, secret *string, enabled bool) error {
	res, err := s.c.exec(ctx,
		`UPDATE users SET totp_secret = $1, totp_enabled = $2 WHERE uid = $3`, secret, enabled, uid)
	if err != nil {
		return fmt.Errorf("set totp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set totp: %w", sql.ErrNoRows)
	}
	return nil
}

// SetPassword replaces a user's password hash.
func (s *UserStore) SetPassword(ctx context.Context, uid int64, passwordHash string) error {
	res, err := s.c.exec(ctx, `UPDATE users SET api_password_hash = $1 WHERE uid = $2`, passwordHash, uid)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set password: %w", sql.ErrNoRows)
	}
	return nil
}
