// Package dbtest provides a migrated PostgreSQL handle for integration
// tests. It connects to the database described by the POSTGRES_* variables,
// or starts a throwaway container when METAPRESS_TESTCONTAINERS=1. Tests are
// skipped when neither is reachable.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"metapress/internal/database"
)

// migrateMu serializes goose, which keeps its base FS in package state.
var migrateMu sync.Mutex

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DSN returns the connection string built from the POSTGRES_* variables.
func DSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "metapress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "metapress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// Open returns a handle whose search_path points at a fresh, migrated
// schema private to the calling test, so packages running in parallel never
// see each other's rows. The schema is dropped when the test finishes.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := DSN()
	if os.Getenv("METAPRESS_TESTCONTAINERS") == "1" {
		dsn = startContainer(t)
	}

	admin, err := database.ConnectDSN(dsn, database.PoolOptions{MaxOpenConns: 2, PingTimeout: 2 * time.Second})
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	t.Cleanup(func() { admin.Close() })

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP SCHEMA " + schema + " CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	db, err := database.ConnectDSN(dsn+"&search_path="+schema, database.PoolOptions{MaxOpenConns: 5, PingTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("connect to test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrateMu.Lock()
	err = database.Migrate(db)
	goose.SetBaseFS(nil)
	migrateMu.Unlock()
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("metapress"),
		postgres.WithUsername("metapress"),
		postgres.WithPassword("metapress"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("skipping: cannot start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}
	return connStr
}
