package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Development seed values. The default category is the fallback for posts
// that name no category, so it must exist before the first post is created.
const (
	SeedUserName        = "admin"
	SeedUserPassword    = "admin"
	SeedDefaultCategory = "Uncategorized"
)

// Seed populates the database with initial development data: an API user
// and the default category. Each part is skipped if its table already has
// rows, so Seed is safe to call on every start.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := seedUser(ctx, db); err != nil {
		return err
	}
	return seedCategory(ctx, db)
}

func seedUser(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (name, api_password_hash, totp_enabled, created)
		VALUES ($1, $2, FALSE, $3)
	`, SeedUserName, string(hash), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	slog.Info("database seeded with default api user",
		"name", SeedUserName,
		"password", SeedUserPassword,
	)
	return nil
}

func seedCategory(ctx context.Context, db *sql.DB) error {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM metas WHERE type = 'category'").Scan(&count)
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO metas (name, slug, type, description, count, "order", parent)
		VALUES ($1, $2, 'category', '', 0, 1, 0)
	`, SeedDefaultCategory, "uncategorized")
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	slog.Info("database seeded with default category", "name", SeedDefaultCategory)
	return nil
}
