package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// currentVersion is the schema version written by the baseline and reached
// by the last upgrade step.
const currentVersion = 5

// MigrationResult describes what a single MigrateStep call did.
type MigrationResult struct {
	From    int
	To      int
	Applied bool
}

// Pending reports whether further steps remain after this one.
func (r MigrationResult) Pending() bool {
	return r.To < currentVersion
}

// CurrentVersion is the schema version this build expects.
func CurrentVersion() int { return currentVersion }

// baseline creates the full current schema on an empty database.
var baseline = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id               INTEGER PRIMARY KEY,
		name             TEXT NOT NULL UNIQUE,
		color            TEXT,
		archived         INTEGER NOT NULL DEFAULT 0,
		target_seconds   INTEGER,
		company          TEXT,
		contact_person   TEXT,
		email            TEXT,
		phone            TEXT,
		business_address TEXT,
		notes            TEXT
	)`,
	servicesDDL,
	projectsDDL,
	`CREATE TABLE IF NOT EXISTS time_entries (
		id         INTEGER PRIMARY KEY,
		profile_id INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		project_id INTEGER REFERENCES projects(id) ON DELETE SET NULL,
		start_ts   INTEGER NOT NULL,
		end_ts     INTEGER,
		note       TEXT,
		tags       TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_profile_start ON time_entries(profile_id, start_ts)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_end ON time_entries(end_ts)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_project ON time_entries(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_profile ON projects(profile_id)`,
	profileTodosDDL,
	projectTodosDDL,
	profileServicesDDL,
	profileServiceTodosDDL,
}

const (
	servicesDDL = `CREATE TABLE IF NOT EXISTS services (
		id                INTEGER PRIMARY KEY,
		name              TEXT NOT NULL UNIQUE,
		rate_cents        INTEGER NOT NULL,
		estimated_seconds INTEGER
	)`
	projectsDDL = `CREATE TABLE IF NOT EXISTS projects (
		id                INTEGER PRIMARY KEY,
		profile_id        INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		name              TEXT NOT NULL,
		estimated_seconds INTEGER,
		service_id        INTEGER REFERENCES services(id) ON DELETE SET NULL,
		deadline_ts       INTEGER,
		start_date_ts     INTEGER,
		invoice_sent      INTEGER NOT NULL DEFAULT 0,
		invoice_paid      INTEGER NOT NULL DEFAULT 0,
		notes             TEXT,
		created_ts        INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
	)`
	profileTodosDDL = `CREATE TABLE IF NOT EXISTS profile_todos (
		id         INTEGER PRIMARY KEY,
		profile_id INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		text       TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		created_ts INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
	)`
	projectTodosDDL = `CREATE TABLE IF NOT EXISTS project_todos (
		id         INTEGER PRIMARY KEY,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		text       TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		created_ts INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
	)`
	profileServicesDDL = `CREATE TABLE IF NOT EXISTS profile_services (
		id         INTEGER PRIMARY KEY,
		profile_id INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		service_id INTEGER NOT NULL REFERENCES services(id) ON DELETE CASCADE,
		notes      TEXT,
		created_ts INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
	)`
	profileServiceTodosDDL = `CREATE TABLE IF NOT EXISTS profile_service_todos (
		id                 INTEGER PRIMARY KEY,
		profile_service_id INTEGER NOT NULL REFERENCES profile_services(id) ON DELETE CASCADE,
		text               TEXT NOT NULL,
		completed          INTEGER NOT NULL DEFAULT 0,
		created_ts         INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
	)`
)

// upgrades maps a stored version N to the statements that bring it to N+1.
var upgrades = map[int][]string{
	1: {
		`ALTER TABLE profiles ADD COLUMN target_seconds INTEGER`,
	},
	2: {
		`ALTER TABLE profiles ADD COLUMN company TEXT`,
		`ALTER TABLE profiles ADD COLUMN contact_person TEXT`,
		`ALTER TABLE profiles ADD COLUMN email TEXT`,
		`ALTER TABLE profiles ADD COLUMN phone TEXT`,
		`ALTER TABLE profiles ADD COLUMN notes TEXT`,
		profileTodosDDL,
	},
	3: {
		servicesDDL,
		projectsDDL,
		`ALTER TABLE time_entries ADD COLUMN project_id INTEGER REFERENCES projects(id) ON DELETE SET NULL`,
		`CREATE INDEX IF NOT EXISTS idx_entries_project ON time_entries(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_profile ON projects(profile_id)`,
		projectTodosDDL,
	},
	4: {
		`ALTER TABLE profiles ADD COLUMN business_address TEXT`,
		profileServicesDDL,
		profileServiceTodosDDL,
	},
}

// SchemaVersion reads the persisted schema marker.
func (s *Store) SchemaVersion() (int, error) {
	return schemaVersion(s.db)
}

func schemaVersion(q interface {
	QueryRow(query string, args ...any) *sql.Row
}) (int, error) {
	var version int
	if err := q.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// MigrateStep advances the schema by exactly one version, or installs the
// baseline on an empty database. A database already at (or beyond) the
// current version is left untouched. The step runs in a single transaction
// together with the marker update.
func (s *Store) MigrateStep() (MigrationResult, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return MigrationResult{}, fmt.Errorf("%w: %w", ErrMigration, err)
	}
	res := MigrationResult{From: version, To: version}
	if version >= currentVersion {
		return res, nil
	}

	stmts, target := baseline, currentVersion
	if version > 0 {
		var ok bool
		stmts, ok = upgrades[version]
		if !ok {
			return res, fmt.Errorf("%w: no upgrade from version %d", ErrMigration, version)
		}
		target = version + 1
	}

	err = s.withTx(func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				if isColumnAdd(stmt) && isDuplicateColumn(err) {
					continue
				}
				return err
			}
		}
		_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", target))
		return err
	})
	if err != nil {
		return res, fmt.Errorf("%w: version %d -> %d: %w", ErrMigration, version, target, err)
	}
	res.To = target
	res.Applied = true
	return res, nil
}

func isColumnAdd(stmt string) bool {
	s := strings.ToUpper(stmt)
	return strings.HasPrefix(strings.TrimSpace(s), "ALTER TABLE") && strings.Contains(s, "ADD COLUMN")
}
