package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fhuszti/levigram-go/internal/migration"
	"github.com/go-sql-driver/mysql"
)

func getenv(key string) string {
	return os.Getenv(key)
}

// NewTestDB creates a fresh database next to TEST_DB_DSN and drops it when the test ends.
// With migrate set the upload ledger schema is applied.
func NewTestDB(t *testing.T, migrate bool) *sql.DB {
	t.Helper()

	dsn := getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Fatal("TEST_DB_DSN env-var not set")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("parse DSN %q: %v", dsn, err)
	}

	cfg.DBName = ""
	rootDB, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		t.Fatalf("open root DB: %v", err)
	}

	dbName := fmt.Sprintf("levigram_%d", time.Now().UnixNano())
	if _, err := rootDB.Exec("CREATE DATABASE " + dbName); err != nil {
		_ = rootDB.Close()
		t.Fatalf("create database: %v", err)
	}

	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.MultiStatements = true
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		t.Fatalf("open test DB: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		if _, err := rootDB.Exec("DROP DATABASE " + dbName); err != nil {
			t.Logf("drop database %q: %v", dbName, err)
		}
		_ = rootDB.Close()
	})

	if migrate {
		if err := migration.MigrateUp(context.Background(), db); err != nil {
			t.Fatalf("run migrations: %v", err)
		}
	}
	return db
}
