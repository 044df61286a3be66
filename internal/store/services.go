package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (s *Store) CreateService(name string, rateCents int64, estimatedSeconds *int64) (*Service, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("create service: %w: name required", ErrInvalidInput)
	}
	if rateCents < 0 {
		return nil, fmt.Errorf("create service: %w: negative rate", ErrInvalidInput)
	}
	res, err := s.db.Exec(
		`INSERT INTO services (name, rate_cents, estimated_seconds) VALUES (?, ?, ?)`,
		strings.TrimSpace(name), rateCents, nullInt(estimatedSeconds),
	)
	if err != nil {
		return nil, classify("create service", err)
	}
	id, _ := res.LastInsertId()
	return s.GetService(id)
}

// GetService returns nil when the service does not exist.
func (s *Store) GetService(id int64) (*Service, error) {
	var svc Service
	var est sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, name, rate_cents, estimated_seconds FROM services WHERE id = ?`, id,
	).Scan(&svc.ID, &svc.Name, &svc.RateCents, &est)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	svc.EstimatedSeconds = intPtr(est)
	return &svc, nil
}

func (s *Store) ListServices() ([]Service, error) {
	rows, err := s.db.Query(`SELECT id, name, rate_cents, estimated_seconds FROM services ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var svc Service
		var est sql.NullInt64
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.RateCents, &est); err != nil {
			return nil, err
		}
		svc.EstimatedSeconds = intPtr(est)
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (s *Store) UpdateService(id int64, name string, rateCents int64, estimatedSeconds *int64) error {
	op := fmt.Sprintf("update service %d", id)
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s: %w: name required", op, ErrInvalidInput)
	}
	if rateCents < 0 {
		return fmt.Errorf("%s: %w: negative rate", op, ErrInvalidInput)
	}
	_, err := s.db.Exec(
		`UPDATE services SET name = ?, rate_cents = ?, estimated_seconds = ? WHERE id = ?`,
		strings.TrimSpace(name), rateCents, nullInt(estimatedSeconds), id,
	)
	return classify(op, err)
}

// DeleteService removes a service. Projects referencing it keep existing
// without a service; bookings on profiles are removed.
func (s *Store) DeleteService(id int64) error {
	_, err := s.db.Exec(`DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete service %d: %w", id, err)
	}
	return nil
}

// AddProfileService books a catalogue service for a profile.
func (s *Store) AddProfileService(profileID, serviceID int64, notes string) (*ProfileService, error) {
	res, err := s.db.Exec(
		`INSERT INTO profile_services (profile_id, service_id, notes) VALUES (?, ?, ?)`,
		profileID, serviceID, nullText(notes),
	)
	if err != nil {
		return nil, classify("add profile service", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProfileService(id)
}

// GetProfileService returns nil when the booking does not exist.
func (s *Store) GetProfileService(id int64) (*ProfileService, error) {
	ps, err := s.listProfileServices(`ps.id = ?`, id)
	if err != nil || len(ps) == 0 {
		return nil, err
	}
	return &ps[0], nil
}

func (s *Store) ListProfileServices(profileID int64) ([]ProfileService, error) {
	return s.listProfileServices(`ps.profile_id = ?`, profileID)
}

func (s *Store) listProfileServices(where string, arg int64) ([]ProfileService, error) {
	rows, err := s.db.Query(
		`SELECT ps.id, ps.profile_id, ps.service_id, COALESCE(ps.notes, ''), ps.created_ts,
		        sv.name, sv.rate_cents, sv.estimated_seconds
		 FROM profile_services ps
		 JOIN services sv ON sv.id = ps.service_id
		 WHERE `+where+`
		 ORDER BY ps.created_ts, ps.id`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list profile services: %w", err)
	}
	defer rows.Close()

	var out []ProfileService
	for rows.Next() {
		var ps ProfileService
		var created int64
		var est sql.NullInt64
		if err := rows.Scan(&ps.ID, &ps.ProfileID, &ps.ServiceID, &ps.Notes, &created,
			&ps.ServiceName, &ps.RateCents, &est); err != nil {
			return nil, err
		}
		ps.CreatedAt = fromEpoch(created)
		ps.EstimatedSeconds = intPtr(est)
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProfileServiceNotes(id int64, notes string) error {
	_, err := s.db.Exec(`UPDATE profile_services SET notes = ? WHERE id = ?`, nullText(notes), id)
	if err != nil {
		return fmt.Errorf("update profile service %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteProfileService(id int64) error {
	_, err := s.db.Exec(`DELETE FROM profile_services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile service %d: %w", id, err)
	}
	return nil
}
