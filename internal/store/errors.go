package store

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrConstraint reports a rejected write: duplicate unique value, missing
	// foreign key target or a NOT NULL violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidInput reports input rejected before it reached the database.
	ErrInvalidInput = errors.New("invalid input")

	// ErrActiveEntryExists is returned when an edit would leave a second
	// entry without an end time.
	ErrActiveEntryExists = errors.New("another time entry is already running")

	// ErrMigration wraps any schema step failure. It is fatal at startup.
	ErrMigration = errors.New("schema migration failed")
)

// classify tags driver errors with ErrConstraint so callers can use
// errors.Is without knowing about the driver.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraint(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
