package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voltbridge/markethub/pkg/migrate"
)

func TestInitMigrationContainsCoreTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE processes",
		"CREATE UNIQUE INDEX ux_processes_request_txn_grid_area",
		"CREATE TABLE bundles",
		"CREATE TABLE bundle_documents",
		"REFERENCES bundles (id) ON DELETE CASCADE",
		"CREATE TABLE delegations",
		"CREATE TABLE grid_area_ownerships",
		"DROP TABLE IF EXISTS processes",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
