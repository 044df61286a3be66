package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const projectColumns = `id, profile_id, name, estimated_seconds, service_id, deadline_ts, start_date_ts,
	invoice_sent, invoice_paid, COALESCE(notes, ''), created_ts`

func scanProject(sc rowScanner) (Project, error) {
	var p Project
	var estimate, service, deadline, startDate sql.NullInt64
	var sent, paid int
	var created int64
	err := sc.Scan(&p.ID, &p.ProfileID, &p.Name, &estimate, &service, &deadline, &startDate,
		&sent, &paid, &p.Notes, &created)
	if err != nil {
		return p, err
	}
	p.EstimatedSeconds = intPtr(estimate)
	p.ServiceID = intPtr(service)
	p.Deadline = timePtr(deadline)
	p.StartDate = timePtr(startDate)
	p.InvoiceSent = sent != 0
	p.InvoicePaid = paid != 0
	p.CreatedAt = fromEpoch(created)
	return p, nil
}

func (s *Store) CreateProject(in ProjectInput) (*Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("create project: %w: name required", ErrInvalidInput)
	}
	res, err := s.db.Exec(
		`INSERT INTO projects (profile_id, name, estimated_seconds, service_id, deadline_ts, start_date_ts, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ProfileID, strings.TrimSpace(in.Name), nullInt(in.EstimatedSeconds), nullInt(in.ServiceID),
		nullEpoch(in.Deadline), nullEpoch(in.StartDate), nullText(in.Notes),
	)
	if err != nil {
		return nil, classify("create project", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProject(id)
}

// GetProject returns nil when the project does not exist.
func (s *Store) GetProject(id int64) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &p, nil
}

// ListProjects returns the projects of one profile, or of all profiles when
// profileID is nil, ordered by name.
func (s *Store) ListProjects(profileID *int64) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if profileID != nil {
		query += ` WHERE profile_id = ?`
		args = append(args, *profileID)
	}
	query += ` ORDER BY name COLLATE NOCASE, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(id int64, in ProjectInput) error {
	op := fmt.Sprintf("update project %d", id)
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%s: %w: name required", op, ErrInvalidInput)
	}
	_, err := s.db.Exec(
		`UPDATE projects SET profile_id = ?, name = ?, estimated_seconds = ?, service_id = ?,
		        deadline_ts = ?, start_date_ts = ?, notes = ?
		 WHERE id = ?`,
		in.ProfileID, strings.TrimSpace(in.Name), nullInt(in.EstimatedSeconds), nullInt(in.ServiceID),
		nullEpoch(in.Deadline), nullEpoch(in.StartDate), nullText(in.Notes), id,
	)
	return classify(op, err)
}

// SetProjectInvoiceFlags records whether the project's invoice went out and
// whether it has been paid.
func (s *Store) SetProjectInvoiceFlags(id int64, sent, paid bool) error {
	_, err := s.db.Exec(
		`UPDATE projects SET invoice_sent = ?, invoice_paid = ? WHERE id = ?`,
		boolInt(sent), boolInt(paid), id,
	)
	if err != nil {
		return fmt.Errorf("set project %d invoice flags: %w", id, err)
	}
	return nil
}

// DeleteProject removes a project. Its entries stay and lose the project
// link.
func (s *Store) DeleteProject(id int64) error {
	_, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return nil
}

// ProjectSeconds sums the completed entry durations booked on a project.
func (s *Store) ProjectSeconds(id int64) (int64, error) {
	var total int64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(MAX(end_ts - start_ts, 0)), 0) FROM time_entries WHERE project_id = ? AND end_ts IS NOT NULL`, id,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("project %d seconds: %w", id, err)
	}
	return total, nil
}
