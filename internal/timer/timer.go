// Package timer owns the running-timer state machine: at most one time
// entry is open at any moment, and starting a timer closes whatever was
// running before.
package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sadopc/solia/internal/logger"
	"github.com/sadopc/solia/internal/store"
)

var (
	// ErrUnknownProfile is returned by Start when the profile does not exist.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrUnknownProject is returned by Start when the project does not exist
	// or belongs to another profile.
	ErrUnknownProject = errors.New("unknown project")
)

// Repository is the part of the store the timer needs.
type Repository interface {
	GetProfile(id int64) (*store.Profile, error)
	GetProject(id int64) (*store.Project, error)
	GetActiveEntry() (*store.TimeEntry, error)
	CountActiveEntries() (int, error)
	StartEntry(profileID int64, projectID *int64, note, tags string, at time.Time) (*store.TimeEntry, error)
	StopActiveEntries(at time.Time) (int64, error)
}

// Notifier hears about every transition that changed stored entries.
type Notifier interface {
	ActiveEntryChanged(active *store.TimeEntry)
	EntriesUpdated()
}

// Status is the timer state as derived from the store.
type Status struct {
	Running   bool
	EntryID   int64
	ProfileID int64
	ProjectID *int64
	Note      string
	Start     time.Time
}

// StartRequest describes a timer to start.
type StartRequest struct {
	ProfileID int64
	ProjectID *int64
	Note      string
	Tags      []string
}

type Service struct {
	repo     Repository
	now      func() time.Time
	events   *EventLog
	notifier Notifier
	log      *log.Logger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithEventLog(l *EventLog) Option {
	return func(s *Service) { s.events = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	return s
}

// State reads the running entry from the store, so a restarted process
// picks up a timer left running.
func (s *Service) State() (Status, error) {
	active, err := s.repo.GetActiveEntry()
	if err != nil {
		return Status{}, err
	}
	return statusOf(active), nil
}

func statusOf(e *store.TimeEntry) Status {
	if e == nil {
		return Status{}
	}
	return Status{
		Running:   true,
		EntryID:   e.ID,
		ProfileID: e.ProfileID,
		ProjectID: e.ProjectID,
		Note:      e.Note,
		Start:     e.Start,
	}
}

// Start closes any running entry and opens a new one for req.ProfileID.
// Both happen at the same instant, so the old entry's end equals the new
// entry's start. It returns the new entry's id. The profile and project are
// checked before anything is stopped; a store failure while opening the new
// entry still leaves the old one closed.
func (s *Service) Start(req StartRequest) (int64, error) {
	profile, err := s.repo.GetProfile(req.ProfileID)
	if err != nil {
		return 0, fmt.Errorf("start timer: %w", err)
	}
	if profile == nil {
		return 0, fmt.Errorf("start timer: %w: %d", ErrUnknownProfile, req.ProfileID)
	}
	if req.ProjectID != nil {
		project, err := s.repo.GetProject(*req.ProjectID)
		if err != nil {
			return 0, fmt.Errorf("start timer: %w", err)
		}
		if project == nil || project.ProfileID != profile.ID {
			return 0, fmt.Errorf("start timer: %w: %d", ErrUnknownProject, *req.ProjectID)
		}
	}

	now := s.now().Truncate(time.Second)
	if _, err := s.stopAt(now); err != nil {
		return 0, fmt.Errorf("start timer: %w", err)
	}

	entry, err := s.repo.StartEntry(req.ProfileID, req.ProjectID, req.Note, store.JoinTags(req.Tags), now)
	if err != nil {
		return 0, fmt.Errorf("start timer: %w", err)
	}
	s.events.Append(EventStart, now, profile.ID, profile.Name, req.Note)
	s.log.Debug("timer started", "entry", entry.ID, "profile", profile.Name)

	s.notify(entry)
	return entry.ID, nil
}

// Stop closes the running entry. Stopping an idle timer does nothing.
// It reports whether an entry was closed.
func (s *Service) Stop() (bool, error) {
	stopped, err := s.stopAt(s.now().Truncate(time.Second))
	if err != nil {
		return false, fmt.Errorf("stop timer: %w", err)
	}
	if stopped {
		s.notify(nil)
	}
	return stopped, nil
}

// Toggle stops a running timer or starts req when idle. It returns the
// new entry's id, or 0 after a stop.
func (s *Service) Toggle(req StartRequest) (int64, error) {
	st, err := s.State()
	if err != nil {
		return 0, err
	}
	if st.Running {
		_, err := s.Stop()
		return 0, err
	}
	return s.Start(req)
}

// stopAt closes every open entry at now and logs the one that was showing
// as active.
func (s *Service) stopAt(now time.Time) (bool, error) {
	active, err := s.repo.GetActiveEntry()
	if err != nil {
		return false, err
	}
	if active == nil {
		return false, nil
	}

	if n, err := s.repo.CountActiveEntries(); err == nil && n > 1 {
		s.log.Warn("more than one running entry, closing all", "count", n)
	}
	if _, err := s.repo.StopActiveEntries(now); err != nil {
		return false, err
	}

	name := ""
	if p, err := s.repo.GetProfile(active.ProfileID); err == nil && p != nil {
		name = p.Name
	}
	s.events.Append(EventStop, now, active.ProfileID, name, active.Note)
	s.log.Debug("timer stopped", "entry", active.ID, "profile", name)
	return true, nil
}

func (s *Service) notify(active *store.TimeEntry) {
	if s.notifier == nil {
		return
	}
	s.notifier.ActiveEntryChanged(active)
	s.notifier.EntriesUpdated()
}
