// Package testutil opens a migrated database for integration tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ifiscoder/CommunityApp/internal/adapters/postgres"
	"github.com/ifiscoder/CommunityApp/internal/adapters/postgres/migrations"
)

// OpenMigratedPool connects to the database named by TEST_DATABASE_URL,
// applies the schema, and empties the tables. Tests are skipped when the
// variable is unset so the suite stays runnable without a database.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, url)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE accounts, profiles, wizard_submissions`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
