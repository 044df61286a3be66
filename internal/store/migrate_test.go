package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
)

// v1Schema is the schema as it existed before any upgrade step.
var v1Schema = []string{
	`CREATE TABLE profiles (
		id       INTEGER PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		color    TEXT,
		archived INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE time_entries (
		id         INTEGER PRIMARY KEY,
		profile_id INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		start_ts   INTEGER NOT NULL,
		end_ts     INTEGER,
		note       TEXT,
		tags       TEXT
	)`,
	`INSERT INTO profiles (id, name, color) VALUES (1, 'Acme', '#ff0000')`,
	`INSERT INTO time_entries (profile_id, start_ts, end_ts, note) VALUES (1, 1700000000, 1700003600, 'legacy')`,
}

// seedDB writes a raw database file with the given statements and marker.
func seedDB(t *testing.T, version int, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solia.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
	if _, err := db.Exec("PRAGMA user_version = " + strconv.Itoa(version)); err != nil {
		t.Fatal(err)
	}
	return path
}

// reopen opens and closes the store once, returning the step it applied.
func reopen(t *testing.T, path string) MigrationResult {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer s.Close()
	return s.Migration()
}

func hasColumn(t *testing.T, path, table, column string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		rows.Scan(&name)
		if name == column {
			return true
		}
	}
	return false
}

func hasTable(t *testing.T, path, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	return n == 1
}

// ============================================================
// One step per open
// ============================================================

func TestMigrateOneStepPerOpen(t *testing.T) {
	path := seedDB(t, 1, v1Schema...)

	for want := 2; want <= CurrentVersion(); want++ {
		m := reopen(t, path)
		if !m.Applied || m.From != want-1 || m.To != want {
			t.Fatalf("open #%d: unexpected result %+v", want-1, m)
		}
	}

	m := reopen(t, path)
	if m.Applied || m.From != CurrentVersion() || m.To != CurrentVersion() {
		t.Fatalf("current schema should be a no-op, got %+v", m)
	}
	if m.Pending() {
		t.Fatal("nothing should be pending at the current version")
	}

	for _, col := range []string{"target_seconds", "company", "business_address"} {
		if !hasColumn(t, path, "profiles", col) {
			t.Fatalf("profiles.%s missing after upgrades", col)
		}
	}
	if !hasColumn(t, path, "time_entries", "project_id") {
		t.Fatal("time_entries.project_id missing after upgrades")
	}
	for _, table := range []string{"services", "projects", "profile_todos", "project_todos", "profile_services", "profile_service_todos"} {
		if !hasTable(t, path, table) {
			t.Fatalf("table %s missing after upgrades", table)
		}
	}
}

func TestMigratePreservesData(t *testing.T) {
	path := seedDB(t, 1, v1Schema...)
	for i := 1; i < CurrentVersion(); i++ {
		reopen(t, path)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	p, _ := s.GetProfile(1)
	if p == nil || p.Name != "Acme" || p.TargetSeconds != nil {
		t.Fatalf("profile not preserved: %+v", p)
	}
	entries, err := s.ListEntries(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Note != "legacy" || entries[0].ProjectID != nil {
		t.Fatalf("entry not preserved: %+v", entries)
	}
}

func TestMigrateStepPending(t *testing.T) {
	path := seedDB(t, 1, v1Schema...)
	m := reopen(t, path)
	if !m.Pending() {
		t.Fatal("steps should still be pending after the first upgrade")
	}
}

// ============================================================
// Tolerance and failure
// ============================================================

func TestMigrateToleratesExistingColumn(t *testing.T) {
	stmts := append([]string{}, v1Schema...)
	stmts = append(stmts, `ALTER TABLE profiles ADD COLUMN target_seconds INTEGER`)
	path := seedDB(t, 1, stmts...)

	m := reopen(t, path)
	if !m.Applied || m.To != 2 {
		t.Fatalf("expected step to version 2, got %+v", m)
	}
}

func TestMigrateFailureRollsBack(t *testing.T) {
	// Version 3 without time_entries: the upgrade creates services and
	// projects, then fails on the ALTER.
	path := seedDB(t, 3, v1Schema[0])

	_, err := Open(path)
	if !errors.Is(err, ErrMigration) {
		t.Fatalf("expected ErrMigration, got %v", err)
	}
	if hasTable(t, path, "services") {
		t.Fatal("failed step must not leave partial tables behind")
	}

	db, _ := sql.Open("sqlite", path)
	defer db.Close()
	v, _ := schemaVersion(db)
	if v != 3 {
		t.Fatalf("marker should stay at 3, got %d", v)
	}
}

func TestMigrateFutureVersionUntouched(t *testing.T) {
	path := seedDB(t, 9, v1Schema[0])
	m := reopen(t, path)
	if m.Applied || m.From != 9 {
		t.Fatalf("newer schema should be left alone, got %+v", m)
	}
}

func TestIsColumnAdd(t *testing.T) {
	if !isColumnAdd("  alter table profiles add column x TEXT") {
		t.Fatal("lowercase column add not recognised")
	}
	if isColumnAdd(servicesDDL) {
		t.Fatal("CREATE TABLE is not a column add")
	}
}
