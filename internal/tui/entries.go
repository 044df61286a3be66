package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
)

const (
	entryFormNew    = "new"
	entryFormEdit   = "edit"
	entryFormDelete = "delete"
)

var errBadTimestamp = errors.New("use YYYY-MM-DD HH:MM:SS")

type entriesModel struct {
	store *store.Store
	state *state.State
	clock func() time.Time

	width  int
	height int

	profile  *store.Profile
	rows     []store.EntryRow
	selected map[int64]bool
	table    table.Model

	formActive bool
	form       *huh.Form
	formType   string
	editingID  int64
	editing    store.TimeEntry
	deleting   []int64

	formStart   *string
	formEnd     *string
	formNote    *string
	formTags    *string
	formConfirm *bool
}

func newEntriesModel(s *store.Store, st *state.State, clock func() time.Time) entriesModel {
	start, end, note, tags := "", "", "", ""
	confirm := false

	t := table.New(
		table.WithColumns(entryColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(colorPrimary).Bold(true)
	t.SetStyles(styles)

	return entriesModel{
		store:       s,
		state:       st,
		clock:       clock,
		selected:    map[int64]bool{},
		table:       t,
		formStart:   &start,
		formEnd:     &end,
		formNote:    &note,
		formTags:    &tags,
		formConfirm: &confirm,
	}
}

// entryColumns splits the available width between the note and the fixed
// columns.
func entryColumns(w int) []table.Column {
	note := clamp(w-2-17-17-10-16-14-12, 10, 60)
	return []table.Column{
		{Title: " ", Width: 2},
		{Title: "Start", Width: 17},
		{Title: "End", Width: 17},
		{Title: "Duration", Width: 10},
		{Title: "Project", Width: 16},
		{Title: "Note", Width: note},
		{Title: "Tags", Width: 12},
	}
}

func (e *entriesModel) setSize(w, h int) {
	e.width = w
	e.height = h
	e.table.SetColumns(entryColumns(w - 8))
	e.table.SetHeight(clamp(h-8, 3, 50))
}

type entriesDataMsg struct {
	profile *store.Profile
	rows    []store.EntryRow
}

func (e entriesModel) refresh() tea.Cmd {
	profileID := e.state.CurrentProfileID()
	return func() tea.Msg {
		if profileID == nil {
			return entriesDataMsg{}
		}
		profile, err := e.store.GetProfile(*profileID)
		if err != nil || profile == nil {
			return entriesDataMsg{}
		}
		rows, err := e.store.ListEntries(store.EntryFilter{ProfileID: profileID})
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return entriesDataMsg{profile: profile, rows: rows}
	}
}

func (e *entriesModel) setRows(rows []store.EntryRow) {
	e.rows = rows
	keep := make(map[int64]bool, len(e.selected))
	for _, r := range rows {
		if e.selected[r.ID] {
			keep[r.ID] = true
		}
	}
	e.selected = keep
	e.renderRows()
}

func (e *entriesModel) renderRows() {
	now := e.clock()
	out := make([]table.Row, len(e.rows))
	for i, r := range e.rows {
		mark := ""
		if e.selected[r.ID] {
			mark = "✓"
		}
		end := "running"
		if r.End != nil {
			end = format.Timestamp(*r.End)[:16]
		}
		project := r.ProjectName
		if project == "" {
			project = format.Missing
		}
		out[i] = table.Row{
			mark,
			format.Timestamp(r.Start)[:16],
			end,
			formatDuration(progress.EntryDuration(r.TimeEntry, now)),
			project,
			r.Note,
			r.Tags,
		}
	}
	e.table.SetRows(out)
	if c := e.table.Cursor(); c >= len(out) && len(out) > 0 {
		e.table.SetCursor(len(out) - 1)
	}
}

func (e entriesModel) current() (store.EntryRow, bool) {
	c := e.table.Cursor()
	if c < 0 || c >= len(e.rows) {
		return store.EntryRow{}, false
	}
	return e.rows[c], true
}

// selectedIDs returns the marked entries, or the entry under the cursor
// when nothing is marked.
func (e entriesModel) selectedIDs() []int64 {
	var ids []int64
	for id, ok := range e.selected {
		if ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		if r, ok := e.current(); ok {
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesDataMsg:
		e.profile = msg.profile
		e.setRows(msg.rows)
		return e, nil

	case tickMsg:
		for _, r := range e.rows {
			if r.Running() {
				e.renderRows()
				break
			}
		}
		return e, nil
	}

	if e.formActive && e.form != nil {
		return e.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Select):
			if r, ok := e.current(); ok {
				if e.selected[r.ID] {
					delete(e.selected, r.ID)
				} else {
					e.selected[r.ID] = true
				}
				e.renderRows()
			}
			return e, nil
		case key.Matches(msg, keys.Back):
			e.selected = map[int64]bool{}
			e.renderRows()
			return e, nil
		case key.Matches(msg, keys.New):
			return e.showEntryForm(nil)
		case key.Matches(msg, keys.Edit):
			if r, ok := e.current(); ok {
				return e.showEntryForm(&r.TimeEntry)
			}
			return e, nil
		case key.Matches(msg, keys.Delete):
			return e.showDeleteConfirm()
		}
	}

	var cmd tea.Cmd
	e.table, cmd = e.table.Update(msg)
	return e, cmd
}

func validTimestamp(s string) error {
	if _, ok := format.ParseTimestamp(s); !ok {
		return errBadTimestamp
	}
	return nil
}

func validOptionalTimestamp(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validTimestamp(s)
}

func (e entriesModel) showEntryForm(entry *store.TimeEntry) (entriesModel, tea.Cmd) {
	if e.profile == nil {
		return e, errCmd(errNoProfile)
	}

	now := e.clock().Truncate(time.Second)
	title := "New Entry"
	if entry == nil {
		e.formType = entryFormNew
		*e.formStart = format.Timestamp(now.Add(-time.Hour))
		*e.formEnd = format.Timestamp(now)
		*e.formNote = ""
		*e.formTags = ""
	} else {
		title = "Edit Entry"
		e.formType = entryFormEdit
		e.editingID = entry.ID
		e.editing = *entry
		*e.formStart = format.Timestamp(entry.Start)
		*e.formEnd = ""
		if entry.End != nil {
			*e.formEnd = format.Timestamp(*entry.End)
		}
		*e.formNote = entry.Note
		*e.formTags = entry.Tags
	}

	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start").Value(e.formStart).Validate(validTimestamp),
			huh.NewInput().Title("End (empty while running)").Value(e.formEnd).Validate(validOptionalTimestamp),
			huh.NewInput().Title("Note").Value(e.formNote),
			huh.NewInput().Title("Tags (comma-separated)").Value(e.formTags),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	e.formActive = true
	return e, e.form.Init()
}

func (e entriesModel) showDeleteConfirm() (entriesModel, tea.Cmd) {
	ids := e.selectedIDs()
	if len(ids) == 0 {
		return e, nil
	}
	e.deleting = ids
	e.formType = entryFormDelete
	*e.formConfirm = false

	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %d %s?", len(ids), plural(len(ids), "entry", "entries"))).
				Affirmative("Delete").
				Negative("Cancel").
				Value(e.formConfirm),
		),
	).WithShowHelp(true)

	e.formActive = true
	return e, e.form.Init()
}

func (e entriesModel) updateForm(msg tea.Msg) (entriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		e.formActive = false
		e.form = nil
		return e, nil
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	if e.form.State == huh.StateCompleted {
		e.formActive = false
		e.form = nil
		switch e.formType {
		case entryFormDelete:
			if !*e.formConfirm {
				return e, nil
			}
			ids := e.deleting
			e.selected = map[int64]bool{}
			return e, e.deleteCmd(ids)
		default:
			return e, e.saveCmd()
		}
	}
	return e, cmd
}

func (e entriesModel) input() (store.EntryInput, error) {
	start, ok := format.ParseTimestamp(*e.formStart)
	if !ok {
		return store.EntryInput{}, errBadTimestamp
	}
	in := store.EntryInput{
		ProfileID: e.profile.ID,
		Start:     start,
		Note:      strings.TrimSpace(*e.formNote),
		Tags:      store.JoinTags(store.SplitTags(*e.formTags)),
	}
	if strings.TrimSpace(*e.formEnd) != "" {
		end, ok := format.ParseTimestamp(*e.formEnd)
		if !ok {
			return store.EntryInput{}, errBadTimestamp
		}
		in.End = &end
	}
	return in, nil
}

func (e entriesModel) saveCmd() tea.Cmd {
	in, err := e.input()
	if err != nil {
		return errCmd(err)
	}
	formType, id := e.formType, e.editingID
	if formType == entryFormEdit {
		in.ProfileID = e.editing.ProfileID
		in.ProjectID = e.editing.ProjectID
	}
	bus := e.state.Bus()
	return func() tea.Msg {
		var err error
		if formType == entryFormEdit {
			err = e.store.UpdateEntry(id, in)
		} else {
			_, err = e.store.CreateEntry(in)
		}
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		bus.EntriesUpdated()
		if formType == entryFormEdit {
			return statusMsg{text: "Entry updated"}
		}
		return statusMsg{text: "Entry added"}
	}
}

func (e entriesModel) deleteCmd(ids []int64) tea.Cmd {
	bus := e.state.Bus()
	return func() tea.Msg {
		n, err := e.store.DeleteEntries(ids)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		bus.EntriesUpdated()
		return statusMsg{text: fmt.Sprintf("Deleted %d %s", n, plural(int(n), "entry", "entries"))}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (e entriesModel) view() string {
	w := e.width - 4

	if e.formActive && e.form != nil {
		return activePanelStyle.Width(w).Render(e.form.View())
	}

	if e.profile == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No profile selected. Press 3 to create one."))
	}

	title := fmt.Sprintf("%s %s", dot(e.profile.Color), titleStyle.Render(e.profile.Name+" · Entries"))
	if n := len(e.selected); n > 0 {
		title += accentStyle.Render(fmt.Sprintf("  %d selected", n))
	}

	body := mutedStyle.Render("No entries yet. Press n to add one.")
	if len(e.rows) > 0 {
		body = e.table.View()
	}
	hint := mutedStyle.Render("  space: select  n: new  e: edit  d: delete  esc: clear selection")

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
}
