package db

import "time"

// Config describes the MariaDB pool backing the upload ledger.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a DSN was configured; the ledger is optional.
func (c Config) Enabled() bool {
	return c.DSN != ""
}
