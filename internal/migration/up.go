package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies the upload ledger schema. A dirty database is forced back
// to the previous version and migrated once more.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create source driver: %w", err)
	}

	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migration: %w", err)
	}

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	var dirtyErr migrate.ErrDirty
	if !errors.As(err, &dirtyErr) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	versions, err := embeddedVersions()
	if err != nil {
		return fmt.Errorf("dirty at %d: %w", dirtyErr.Version, err)
	}
	prev, err := previousVersion(versions, uint64(dirtyErr.Version))
	if err != nil {
		return err
	}
	logger.Warnf(ctx, "⚠️  database dirty at version %d, forcing back to %d", dirtyErr.Version, prev)
	if ferr := m.Force(int(prev)); ferr != nil {
		return fmt.Errorf("failed to force to version %d: %w", prev, ferr)
	}
	if err2 := m.Up(); err2 != nil && !errors.Is(err2, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed after force: %w", err2)
	}
	return nil
}

// embeddedVersions lists the sorted versions of the embedded up migrations.
func embeddedVersions() ([]uint64, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var versions []uint64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		// filename format: <version>_<description>.up.sql
		v, err := strconv.ParseUint(strings.SplitN(name, "_", 2)[0], 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func previousVersion(versions []uint64, dirty uint64) (uint64, error) {
	for i, v := range versions {
		if v == dirty && i > 0 {
			return versions[i-1], nil
		}
	}
	return 0, fmt.Errorf("could not determine previous version before %d", dirty)
}
