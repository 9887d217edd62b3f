package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/Devsama007/File-Share/internal/config"
	"github.com/Devsama007/File-Share/internal/db"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST and
// applies migrations; tests relying on it skip when the variable is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "fileshare",
		Password: "fileshare_pass",
		DBName:   "fileshare_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	cleanup := func() {
		for _, table := range []string{"share_grants", "shares", "files", "users"} {
			_, _ = conn.Exec("DELETE FROM " + table)
		}
		_ = conn.Close()
	}
	return conn, cleanup
}
