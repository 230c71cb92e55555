package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDirectoryAndPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "stats.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Errorf("path = %s", db.Path())
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmt := `CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY)`
	for i := 0; i < 2; i++ {
		if err := db.Migrate(context.Background(), stmt); err != nil {
			t.Fatalf("migrate %d: %v", i, err)
		}
	}
}
