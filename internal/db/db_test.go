package db

import (
	"context"
	"testing"
	"time"
)

// TestNew_PingError ensures that ping failures are propagated
// even when closing the connection succeeds.
func TestNew_PingError(t *testing.T) {
	cfg := Config{
		DSN:             "invalid:invalid@tcp(127.0.0.1:0)/dbname?timeout=1s",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Second,
	}
	database, err := New(context.Background(), cfg)
	if err == nil {
		if database != nil {
			_ = database.Close()
		}
		t.Fatalf("expected error, got nil")
	}
}

func TestConfig_Enabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty DSN should disable the ledger")
	}
	if !(Config{DSN: "u:p@tcp(db:3306)/levigram"}).Enabled() {
		t.Error("DSN set should enable the ledger")
	}
}
