package repo

import (
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/db"
)

// testDB connects to the postgres instance named by TEST_DB_HOST and
// resets the tables. Tests are skipped when no instance is available.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set")
	}
	port := 5432
	if v := os.Getenv("TEST_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:   envOr("TEST_DB_NAME", "docqa_test"),
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	tables := []string{"chat_sessions", "embeddings", "chunks", "documents", "api_keys", "email_verification_codes", "users"}
	for _, table := range tables {
		if _, err := conn.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("reset table %s: %v", table, err)
		}
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
