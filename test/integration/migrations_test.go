package integration

import (
	"context"
	"testing"

	"github.com/fhuszti/levigram-go/internal/migration"
	"github.com/fhuszti/levigram-go/test/testutil"
	_ "github.com/go-sql-driver/mysql"
)

func TestMigrateUpIntegration(t *testing.T) {
	db := testutil.NewTestDB(t, false)

	if err := migration.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	// a second run is a no-op
	if err := migration.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	recs := 0
	if err := db.QueryRow("SELECT COUNT(*) FROM uploads").Scan(&recs); err != nil {
		t.Fatalf("failed to query migrated table: %v", err)
	}
	if recs != 0 {
		t.Errorf("expected 0 rows in uploads after migration, got %d", recs)
	}

	var idx int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = 'uploads' AND index_name = 'idx_uploads_post'
	`).Scan(&idx)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if idx == 0 {
		t.Error("expected idx_uploads_post to exist")
	}
}
