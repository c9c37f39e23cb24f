package testutil

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	mariaDBImage      = "mariadb"
	mariaDBDefaultTag = "11.4"
	// ledgerDB is created on start; NewTestDB creates its own databases next to it.
	ledgerDB      = "levigram"
	mariaRootPass = "levigram"
	// containers of an aborted run are reaped by docker after this
	mariaDBExpiry = 10 * time.Minute
)

// MariaDBContainerInfo is a throwaway MariaDB for the upload ledger tests.
type MariaDBContainerInfo struct {
	// DSN connects as root to the ledger database.
	DSN     string
	Cleanup func()
}

// StartMariaDBContainer runs MariaDB (TEST_MARIADB_TAG, default 11.4) in utf8mb4
// and waits until it accepts connections.
func StartMariaDBContainer() (*MariaDBContainerInfo, error) {
	tag := os.Getenv("TEST_MARIADB_TAG")
	if tag == "" {
		tag = mariaDBDefaultTag
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: mariaDBImage,
		Tag:        tag,
		Env: []string{
			"MARIADB_ROOT_PASSWORD=" + mariaRootPass,
			"MARIADB_DATABASE=" + ledgerDB,
		},
		// upload URLs and public IDs are stored verbatim
		Cmd:    []string{"--character-set-server=utf8mb4", "--collation-server=utf8mb4_unicode_ci"},
		Labels: map[string]string{"app": "levigram-tests", "role": "upload-ledger"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("could not start mariadb %s: %w", tag, err)
	}
	if err := resource.Expire(uint(mariaDBExpiry.Seconds())); err != nil {
		log.Printf("could not set expiry on mariadb container: %v", err)
	}

	dsn := mariaDBDSN("localhost:" + resource.GetPort("3306/tcp"))
	if err := pool.Retry(func() error { return pingDSN(dsn) }); err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("mariadb did not become ready: %w", err)
	}

	return &MariaDBContainerInfo{
		DSN: dsn,
		Cleanup: func() {
			if err := pool.Purge(resource); err != nil {
				log.Printf("could not purge mariadb container: %v", err)
			}
		},
	}, nil
}

func mariaDBDSN(addr string) string {
	cfg := mysql.NewConfig()
	cfg.User = "root"
	cfg.Passwd = mariaRootPass
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = ledgerDB
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func pingDSN(dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.Ping()
}
