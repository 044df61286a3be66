package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const profileColumns = `id, name, COALESCE(color, ''), archived, target_seconds,
	COALESCE(company, ''), COALESCE(contact_person, ''), COALESCE(email, ''),
	COALESCE(phone, ''), COALESCE(business_address, ''), COALESCE(notes, '')`

func scanProfile(sc rowScanner) (Profile, error) {
	var p Profile
	var archived int
	var target sql.NullInt64
	err := sc.Scan(&p.ID, &p.Name, &p.Color, &archived, &target,
		&p.Company, &p.ContactPerson, &p.Email, &p.Phone, &p.BusinessAddress, &p.Notes)
	p.Archived = archived != 0
	p.TargetSeconds = intPtr(target)
	return p, err
}

func (in ProfileInput) validate(op string) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%s: %w: name required", op, ErrInvalidInput)
	}
	if in.TargetSeconds != nil && *in.TargetSeconds < 0 {
		return fmt.Errorf("%s: %w: negative target", op, ErrInvalidInput)
	}
	return nil
}

// CreateProfile inserts a profile. Names are unique; a duplicate yields
// ErrConstraint.
func (s *Store) CreateProfile(in ProfileInput) (*Profile, error) {
	if err := in.validate("create profile"); err != nil {
		return nil, err
	}
	res, err := s.db.Exec(
		`INSERT INTO profiles (name, color, target_seconds, company, contact_person, email, phone, business_address, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Name), nullText(in.Color), nullInt(in.TargetSeconds),
		nullText(in.Company), nullText(in.ContactPerson), nullText(in.Email),
		nullText(in.Phone), nullText(in.BusinessAddress), nullText(in.Notes),
	)
	if err != nil {
		return nil, classify("create profile", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProfile(id)
}

// GetProfile returns nil when the profile does not exist.
func (s *Store) GetProfile(id int64) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) GetProfileByName(name string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %q: %w", name, err)
	}
	return &p, nil
}

// ListProfiles returns profiles ordered by name.
func (s *Store) ListProfiles(includeArchived bool) ([]Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name COLLATE NOCASE, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Store) UpdateProfile(id int64, in ProfileInput) error {
	op := fmt.Sprintf("update profile %d", id)
	if err := in.validate(op); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE profiles SET name = ?, color = ?, target_seconds = ?, company = ?, contact_person = ?,
		        email = ?, phone = ?, business_address = ?, notes = ?
		 WHERE id = ?`,
		strings.TrimSpace(in.Name), nullText(in.Color), nullInt(in.TargetSeconds),
		nullText(in.Company), nullText(in.ContactPerson), nullText(in.Email),
		nullText(in.Phone), nullText(in.BusinessAddress), nullText(in.Notes), id,
	)
	return classify(op, err)
}

func (s *Store) RenameProfile(id int64, name string) error {
	op := fmt.Sprintf("rename profile %d", id)
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s: %w: name required", op, ErrInvalidInput)
	}
	_, err := s.db.Exec(`UPDATE profiles SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	return classify(op, err)
}

// SetProfileTarget sets the daily target in seconds. nil clears it.
func (s *Store) SetProfileTarget(id int64, seconds *int64) error {
	if seconds != nil && *seconds < 0 {
		return fmt.Errorf("set profile %d target: %w: negative target", id, ErrInvalidInput)
	}
	_, err := s.db.Exec(`UPDATE profiles SET target_seconds = ? WHERE id = ?`, nullInt(seconds), id)
	if err != nil {
		return fmt.Errorf("set profile %d target: %w", id, err)
	}
	return nil
}

func (s *Store) SetProfileArchived(id int64, archived bool) error {
	_, err := s.db.Exec(`UPDATE profiles SET archived = ? WHERE id = ?`, boolInt(archived), id)
	if err != nil {
		return fmt.Errorf("archive profile %d: %w", id, err)
	}
	return nil
}

// DeleteProfile removes a profile together with its entries, projects and
// todos.
func (s *Store) DeleteProfile(id int64) error {
	_, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return classify(fmt.Sprintf("delete profile %d", id), err)
	}
	return nil
}
