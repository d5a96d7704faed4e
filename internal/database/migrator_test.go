package database

import (
	"testing"
	"testing/fstest"

	"depot-backend/migrations"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	files := fstest.MapFS{
		"002_orders.sql":   {Data: []byte("SELECT 1;")},
		"001_init.sql":     {Data: []byte("SELECT 1;")},
		"003_reset_db.sql": {Data: []byte("DROP TABLE x;")},
		"README.md":        {Data: []byte("notes")},
		"archive/004.sql":  {Data: []byte("SELECT 1;")},
	}

	names, err := MigrationFiles(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "001_init.sql" || names[1] != "002_orders.sql" {
		t.Fatalf("expected [001_init.sql 002_orders.sql], got %v", names)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := MigrationFiles(migrations.FS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("expected 001_init.sql first, got %v", names)
	}
}
