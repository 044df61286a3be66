package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/state"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewEntries
	viewProfiles
	viewReports
	viewSettings
)

var viewNames = []string{"Timer", "Entries", "Profiles", "Reports", "Settings"}

// --- Messages ---

type timerChangedMsg struct {
	started bool
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type busMsg struct {
	event state.Event
}

type exportDoneMsg struct {
	path string
	rows int
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	return format.Duration(int64(d / time.Second))
}

// ago renders t relative to now, e.g. "3 hours ago".
func ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: "Error: " + err.Error(), isError: true}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
