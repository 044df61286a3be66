package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const entryColumns = `id, profile_id, project_id, start_ts, end_ts, COALESCE(note, ''), COALESCE(tags, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc rowScanner, extra ...any) (TimeEntry, error) {
	var e TimeEntry
	var projectID, end sql.NullInt64
	var start int64
	dest := append([]any{&e.ID, &e.ProfileID, &projectID, &start, &end, &e.Note, &e.Tags}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return e, err
	}
	e.ProjectID = intPtr(projectID)
	e.Start = fromEpoch(start)
	e.End = timePtr(end)
	return e, nil
}

// StartEntry inserts a running entry starting at at. It does not stop other
// entries; the timer service owns that transition.
func (s *Store) StartEntry(profileID int64, projectID *int64, note, tags string, at time.Time) (*TimeEntry, error) {
	res, err := s.db.Exec(
		`INSERT INTO time_entries (profile_id, project_id, start_ts, note, tags) VALUES (?, ?, ?, ?, ?)`,
		profileID, nullInt(projectID), epoch(at), note, tags,
	)
	if err != nil {
		return nil, classify("start entry", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEntry(id)
}

// StopActiveEntries sets end = at on every running entry and returns how
// many rows were closed.
func (s *Store) StopActiveEntries(at time.Time) (int64, error) {
	res, err := s.db.Exec(`UPDATE time_entries SET end_ts = ? WHERE end_ts IS NULL`, epoch(at))
	if err != nil {
		return 0, fmt.Errorf("stop active entries: %w", err)
	}
	return res.RowsAffected()
}

// GetEntry returns nil when no entry has the given id.
func (s *Store) GetEntry(id int64) (*TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRow(`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return &e, nil
}

// GetActiveEntry returns the running entry, or nil. Should more than one
// row be open, the most recently started wins.
func (s *Store) GetActiveEntry() (*TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRow(
		`SELECT ` + entryColumns + ` FROM time_entries WHERE end_ts IS NULL ORDER BY start_ts DESC, id DESC LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active entry: %w", err)
	}
	return &e, nil
}

func (s *Store) CountActiveEntries() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM time_entries WHERE end_ts IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active entries: %w", err)
	}
	return n, nil
}

// CreateEntry inserts a manually entered interval. A nil End is only
// accepted when nothing else is running.
func (s *Store) CreateEntry(in EntryInput) (*TimeEntry, error) {
	if in.Start.IsZero() {
		return nil, fmt.Errorf("create entry: %w: start time required", ErrInvalidInput)
	}
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		if in.End == nil {
			if err := ensureNoOtherActive(tx, 0); err != nil {
				return err
			}
		}
		res, err := tx.Exec(
			`INSERT INTO time_entries (profile_id, project_id, start_ts, end_ts, note, tags) VALUES (?, ?, ?, ?, ?, ?)`,
			in.ProfileID, nullInt(in.ProjectID), epoch(in.Start), nullEpoch(in.End), in.Note, in.Tags,
		)
		if err != nil {
			return err
		}
		id, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return nil, classify("create entry", err)
	}
	return s.GetEntry(id)
}

// UpdateEntry replaces every editable field of an entry.
func (s *Store) UpdateEntry(id int64, in EntryInput) error {
	if in.Start.IsZero() {
		return fmt.Errorf("update entry %d: %w: start time required", id, ErrInvalidInput)
	}
	err := s.withTx(func(tx *sql.Tx) error {
		if in.End == nil {
			if err := ensureNoOtherActive(tx, id); err != nil {
				return err
			}
		}
		_, err := tx.Exec(
			`UPDATE time_entries SET profile_id = ?, project_id = ?, start_ts = ?, end_ts = ?, note = ?, tags = ? WHERE id = ?`,
			in.ProfileID, nullInt(in.ProjectID), epoch(in.Start), nullEpoch(in.End), in.Note, in.Tags, id,
		)
		return err
	})
	return classify(fmt.Sprintf("update entry %d", id), err)
}

// UpdateEntryTimes edits start and end. Clearing the end re-opens the entry
// and is refused while another entry is running.
func (s *Store) UpdateEntryTimes(id int64, start time.Time, end *time.Time) error {
	err := s.withTx(func(tx *sql.Tx) error {
		if end == nil {
			if err := ensureNoOtherActive(tx, id); err != nil {
				return err
			}
		}
		_, err := tx.Exec(`UPDATE time_entries SET start_ts = ?, end_ts = ? WHERE id = ?`, epoch(start), nullEpoch(end), id)
		return err
	})
	return classify(fmt.Sprintf("update entry %d times", id), err)
}

func ensureNoOtherActive(tx *sql.Tx, id int64) error {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM time_entries WHERE end_ts IS NULL AND id != ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrActiveEntryExists
	}
	return nil
}

func (s *Store) UpdateEntryNoteTags(id int64, note, tags string) error {
	_, err := s.db.Exec(`UPDATE time_entries SET note = ?, tags = ? WHERE id = ?`, note, tags, id)
	if err != nil {
		return fmt.Errorf("update entry %d note: %w", id, err)
	}
	return nil
}

// ReassignEntry moves an entry to another profile and/or project.
func (s *Store) ReassignEntry(id, profileID int64, projectID *int64) error {
	_, err := s.db.Exec(
		`UPDATE time_entries SET profile_id = ?, project_id = ? WHERE id = ?`,
		profileID, nullInt(projectID), id,
	)
	return classify(fmt.Sprintf("reassign entry %d", id), err)
}

func (s *Store) DeleteEntry(id int64) error {
	_, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return nil
}

// DeleteEntries removes all given ids in one statement. An empty list is a
// no-op.
func (s *Store) DeleteEntries(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %d entries: %w", len(ids), err)
	}
	return res.RowsAffected()
}

// ListEntries returns entries joined with profile and project names, newest
// start first.
func (s *Store) ListEntries(f EntryFilter) ([]EntryRow, error) {
	query := `SELECT e.id, e.profile_id, e.project_id, e.start_ts, e.end_ts, COALESCE(e.note, ''), COALESCE(e.tags, ''),
	                 p.name, COALESCE(p.color, ''), COALESCE(pr.name, '')
	          FROM time_entries e
	          JOIN profiles p ON p.id = e.profile_id
	          LEFT JOIN projects pr ON pr.id = e.project_id
	          WHERE 1=1`
	var args []any

	if f.ProfileID != nil {
		query += ` AND e.profile_id = ?`
		args = append(args, *f.ProfileID)
	}
	if f.ProjectID != nil {
		query += ` AND e.project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.From != nil {
		query += ` AND e.start_ts >= ?`
		args = append(args, epoch(*f.From))
	}
	if f.To != nil {
		query += ` AND e.start_ts <= ?`
		args = append(args, epoch(*f.To))
	}
	query += ` ORDER BY e.start_ts DESC, e.id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryRow
	for rows.Next() {
		var r EntryRow
		e, err := scanEntry(rows, &r.ProfileName, &r.ProfileColor, &r.ProjectName)
		if err != nil {
			return nil, err
		}
		r.TimeEntry = e
		entries = append(entries, r)
	}
	return entries, rows.Err()
}

// ListProfileEntries returns the raw entries of one profile, newest first.
func (s *Store) ListProfileEntries(profileID int64) ([]TimeEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryColumns+` FROM time_entries WHERE profile_id = ? ORDER BY start_ts DESC, id DESC`, profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profile %d entries: %w", profileID, err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// WeeklySummary groups completed entries by year and Monday-based week
// number in local time, newest week first. profileID may be nil for all
// profiles.
func (s *Store) WeeklySummary(profileID *int64) ([]WeekSummary, error) {
	query := `
		SELECT CAST(strftime('%Y', start_ts, 'unixepoch', 'localtime') AS INTEGER) AS yr,
		       CAST(strftime('%W', start_ts, 'unixepoch', 'localtime') AS INTEGER) AS wk,
		       MIN(start_ts), MAX(end_ts),
		       COALESCE(SUM(MAX(end_ts - start_ts, 0)), 0), COUNT(*)
		FROM time_entries
		WHERE end_ts IS NOT NULL`
	var args []any
	if profileID != nil {
		query += ` AND profile_id = ?`
		args = append(args, *profileID)
	}
	query += ` GROUP BY yr, wk ORDER BY yr DESC, wk DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("weekly summary: %w", err)
	}
	defer rows.Close()

	var weeks []WeekSummary
	for rows.Next() {
		var w WeekSummary
		var start, end int64
		if err := rows.Scan(&w.Year, &w.Week, &start, &end, &w.TotalSeconds, &w.EntryCount); err != nil {
			return nil, err
		}
		w.Start = fromEpoch(start)
		w.End = fromEpoch(end)
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}
