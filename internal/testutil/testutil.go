// Package testutil holds fakes and fixtures shared by agentctx tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditTable mirrors storage.TableName. storage tests import this package,
// so it cannot import storage back.
const AuditTable = "agentctx_audit_events"

// TestDB is a PostgreSQL pool for integration tests. Every TestDB owns a
// fresh SessionID; audit rows written under it are deleted when the test
// finishes.
type TestDB struct {
	Pool      *pgxpool.Pool
	URL       string
	SessionID string
}

// NewTestDB connects to DATABASE_URL and skips the test when it is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := RequireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	db := &TestDB{
		Pool:      pool,
		URL:       dbURL,
		SessionID: "test-" + uuid.New().String(),
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PurgeSession(ctx); err != nil {
			t.Logf("purge session %s: %v", db.SessionID, err)
		}
		pool.Close()
	})
	return db
}

// PurgeSession deletes the audit rows tagged with db.SessionID. A missing
// table is not an error; the test may have failed before migrating.
func (db *TestDB) PurgeSession(ctx context.Context) error {
	var exists bool
	if err := db.Pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", AuditTable).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return nil
	}
	_, err := db.Pool.Exec(ctx, "DELETE FROM "+AuditTable+" WHERE session_id = $1", db.SessionID)
	return err
}

// RequireIntegration skips the test unless DATABASE_URL is set and returns it.
func RequireIntegration(t *testing.T) string {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
	return dbURL
}
