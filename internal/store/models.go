package store

import (
	"strings"
	"time"
)

type Profile struct {
	ID              int64
	Name            string
	Color           string
	Archived        bool
	TargetSeconds   *int64 // daily target, nil when unset
	Company         string
	ContactPerson   string
	Email           string
	Phone           string
	BusinessAddress string
	Notes           string
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Name            string
	Color           string
	TargetSeconds   *int64
	Company         string
	ContactPerson   string
	Email           string
	Phone           string
	BusinessAddress string
	Notes           string
}

type TimeEntry struct {
	ID        int64
	ProfileID int64
	ProjectID *int64
	Start     time.Time
	End       *time.Time // nil while running
	Note      string
	Tags      string // comma-joined
}

func (e TimeEntry) Running() bool { return e.End == nil }

// TagList splits Tags, dropping blanks.
func (e TimeEntry) TagList() []string {
	return SplitTags(e.Tags)
}

// EntryRow is a time entry joined with the display names of its owners.
type EntryRow struct {
	TimeEntry
	ProfileName  string
	ProfileColor string
	ProjectName  string // empty when the entry has no project
}

// EntryInput is used for manual entry creation and edits.
type EntryInput struct {
	ProfileID int64
	ProjectID *int64
	Start     time.Time
	End       *time.Time
	Note      string
	Tags      string
}

// EntryFilter narrows ListEntries. Nil fields are ignored; From and To bound
// the start time inclusively.
type EntryFilter struct {
	ProfileID *int64
	ProjectID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

// WeekSummary aggregates completed entries of one Monday-based week.
type WeekSummary struct {
	Year         int
	Week         int
	Start        time.Time // earliest start in the week
	End          time.Time // latest end in the week
	TotalSeconds int64
	EntryCount   int
}

type Project struct {
	ID               int64
	ProfileID        int64
	Name             string
	EstimatedSeconds *int64
	ServiceID        *int64
	Deadline         *time.Time
	StartDate        *time.Time
	InvoiceSent      bool
	InvoicePaid      bool
	Notes            string
	CreatedAt        time.Time
}

type ProjectInput struct {
	ProfileID        int64
	Name             string
	EstimatedSeconds *int64
	ServiceID        *int64
	Deadline         *time.Time
	StartDate        *time.Time
	Notes            string
}

type Service struct {
	ID               int64
	Name             string
	RateCents        int64
	EstimatedSeconds *int64
}

// ProfileService is a service booked for a profile, joined with the
// service's catalogue data.
type ProfileService struct {
	ID               int64
	ProfileID        int64
	ServiceID        int64
	Notes            string
	CreatedAt        time.Time
	ServiceName      string
	RateCents        int64
	EstimatedSeconds *int64
}

type Todo struct {
	ID        int64
	ParentID  int64
	Text      string
	Completed bool
	CreatedAt time.Time
}

// TodoScope selects which parent a todo hangs off.
type TodoScope int

const (
	TodoProfile TodoScope = iota
	TodoProject
	TodoProfileService
)

func (s TodoScope) table() string {
	switch s {
	case TodoProject:
		return "project_todos"
	case TodoProfileService:
		return "profile_service_todos"
	default:
		return "profile_todos"
	}
}

func (s TodoScope) parentColumn() string {
	switch s {
	case TodoProject:
		return "project_id"
	case TodoProfileService:
		return "profile_service_id"
	default:
		return "profile_id"
	}
}

// SplitTags splits a comma-joined tag list, trimming blanks.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	var kept []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, ",")
}
