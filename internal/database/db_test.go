package database

import (
	"testing"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:", Migrate: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"profiles", "assets", "vulnerabilities"} {
		var name string
		err := db.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
