// Package state holds the application-wide selection (current profile and
// project), the persisted UI settings and the change notification bus.
package state

import (
	"fmt"

	"github.com/sadopc/solia/internal/store"
)

// Profiles is the part of the store State needs.
type Profiles interface {
	GetProfile(id int64) (*store.Profile, error)
	ListProfiles(includeArchived bool) ([]store.Profile, error)
}

type State struct {
	profiles  Profiles
	store     *SettingsStore
	bus       *Bus
	settings  Settings
	profileID *int64
	projectID *int64
}

// New loads the stored settings and restores the last selection.
func New(profiles Profiles, settings *SettingsStore, bus *Bus) *State {
	s := &State{profiles: profiles, store: settings, bus: bus}
	s.settings = settings.Load()
	s.profileID = s.settings.LastProfileID
	s.projectID = s.settings.LastProjectID
	return s
}

func (s *State) Bus() *Bus { return s.bus }

func (s *State) Settings() Settings { return s.settings }

func (s *State) CurrentProfileID() *int64 { return s.profileID }

func (s *State) CurrentProjectID() *int64 { return s.projectID }

// CurrentProfile returns the selected profile, or nil when none is
// selected or it no longer exists.
func (s *State) CurrentProfile() (*store.Profile, error) {
	if s.profileID == nil {
		return nil, nil
	}
	return s.profiles.GetProfile(*s.profileID)
}

// SelectProfile changes the current profile. The choice is persisted and
// ProfileChanged published only when it differs from the current one.
func (s *State) SelectProfile(id *int64) error {
	if sameID(s.profileID, id) {
		return nil
	}
	s.profileID = copyID(id)
	s.settings.LastProfileID = copyID(id)
	if err := s.store.Save(s.settings); err != nil {
		return fmt.Errorf("select profile: %w", err)
	}
	s.bus.Publish(Event{Kind: ProfileChanged, ProfileID: copyID(id)})
	return nil
}

// SelectProject remembers the project preselected for new timers.
func (s *State) SelectProject(id *int64) error {
	if sameID(s.projectID, id) {
		return nil
	}
	s.projectID = copyID(id)
	s.settings.LastProjectID = copyID(id)
	if err := s.store.Save(s.settings); err != nil {
		return fmt.Errorf("select project: %w", err)
	}
	return nil
}

// EnsureProfile falls back to the first active profile when nothing valid
// is selected, e.g. after the remembered profile was deleted.
func (s *State) EnsureProfile() (*store.Profile, error) {
	current, err := s.CurrentProfile()
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	profiles, err := s.profiles.ListProfiles(false)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, s.SelectProfile(nil)
	}
	p := profiles[0]
	if err := s.SelectProfile(&p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateSettings stores new settings and publishes SettingsChanged.
func (s *State) UpdateSettings(in Settings) error {
	if err := s.store.Save(in); err != nil {
		return err
	}
	s.settings = in
	s.profileID = copyID(in.LastProfileID)
	s.projectID = copyID(in.LastProjectID)
	published := in
	s.bus.Publish(Event{Kind: SettingsChanged, Settings: &published})
	return nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
