package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/billing"
	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
)

const (
	bookingFormNew    = "new"
	bookingFormNotes  = "notes"
	bookingFormDelete = "delete"
)

// bookingsModel lists the catalogue services booked for one profile. Each
// booking carries its own notes and todos.
type bookingsModel struct {
	store *store.Store
	state *state.State

	width  int
	height int

	profile   store.Profile
	bookings  []store.ProfileService
	catalogue []store.Service
	cursor    int

	viewingTodos bool
	todos        todosModel

	formActive bool
	form       *huh.Form
	formType   string
	editingID  int64

	formService *int64
	formNotes   *string
	formConfirm *bool
}

func newBookingsModel(s *store.Store, st *state.State) bookingsModel {
	var service int64
	notes := ""
	confirm := false
	return bookingsModel{
		store:       s,
		state:       st,
		todos:       newTodosModel(s),
		formService: &service,
		formNotes:   &notes,
		formConfirm: &confirm,
	}
}

func (b *bookingsModel) setSize(w, h int) {
	b.width = w
	b.height = h
	b.todos.setSize(w, h)
}

func (b bookingsModel) isFormActive() bool {
	if b.viewingTodos {
		return b.todos.formActive
	}
	return b.formActive
}

type bookingsDataMsg struct {
	profileID int64
	bookings  []store.ProfileService
	catalogue []store.Service
}

func (b bookingsModel) refresh() tea.Cmd {
	profileID := b.profile.ID
	cmds := []tea.Cmd{func() tea.Msg {
		bookings, err := b.store.ListProfileServices(profileID)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		catalogue, err := b.store.ListServices()
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return bookingsDataMsg{profileID: profileID, bookings: bookings, catalogue: catalogue}
	}}
	if b.viewingTodos {
		cmds = append(cmds, b.todos.refresh())
	}
	return tea.Batch(cmds...)
}

func (b bookingsModel) update(msg tea.Msg) (bookingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case bookingsDataMsg:
		if msg.profileID != b.profile.ID {
			return b, nil
		}
		b.bookings = msg.bookings
		b.catalogue = msg.catalogue
		b.cursor = clamp(b.cursor, 0, max(0, len(b.bookings)-1))
		return b, nil
	case todosDataMsg:
		var cmd tea.Cmd
		b.todos, cmd = b.todos.update(msg)
		return b, cmd
	}

	if b.formActive && b.form != nil {
		return b.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}
	if b.viewingTodos {
		if key.Matches(km, keys.Back) && !b.todos.formActive {
			b.viewingTodos = false
			return b, nil
		}
		var cmd tea.Cmd
		b.todos, cmd = b.todos.update(km)
		return b, cmd
	}

	switch {
	case key.Matches(km, keys.Up):
		if b.cursor > 0 {
			b.cursor--
		}
	case key.Matches(km, keys.Down):
		if b.cursor < len(b.bookings)-1 {
			b.cursor++
		}
	case key.Matches(km, keys.New):
		if len(b.catalogue) == 0 {
			return b, statusCmd("Add a service in settings first")
		}
		return b.showBookingForm()
	case key.Matches(km, keys.Edit):
		if ps, ok := b.current(); ok {
			return b.showNotesForm(ps)
		}
	case key.Matches(km, keys.Delete):
		if ps, ok := b.current(); ok {
			return b.showDeleteConfirm(ps)
		}
	case key.Matches(km, keys.Todos), key.Matches(km, keys.Enter):
		if ps, ok := b.current(); ok {
			b.viewingTodos = true
			var cmd tea.Cmd
			b.todos, cmd = b.todos.open(store.TodoProfileService, ps.ID, b.profile.Name+" · "+ps.ServiceName)
			return b, cmd
		}
	}
	return b, nil
}

func (b bookingsModel) current() (store.ProfileService, bool) {
	if b.cursor < 0 || b.cursor >= len(b.bookings) {
		return store.ProfileService{}, false
	}
	return b.bookings[b.cursor], true
}

func (b bookingsModel) showBookingForm() (bookingsModel, tea.Cmd) {
	b.formType = bookingFormNew
	*b.formService = b.catalogue[0].ID
	*b.formNotes = ""

	opts := make([]huh.Option[int64], len(b.catalogue))
	for i, s := range b.catalogue {
		opts[i] = huh.NewOption(fmt.Sprintf("%s (%s/h)", s.Name, format.Rate(s.RateCents)), s.ID)
	}
	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Service").Options(opts...).Value(b.formService),
			huh.NewText().Title("Notes").Value(b.formNotes),
		).Title("Book Service"),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b bookingsModel) showNotesForm(ps store.ProfileService) (bookingsModel, tea.Cmd) {
	b.formType = bookingFormNotes
	b.editingID = ps.ID
	*b.formNotes = ps.Notes

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Notes").Value(b.formNotes),
		).Title(ps.ServiceName),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b bookingsModel) showDeleteConfirm(ps store.ProfileService) (bookingsModel, tea.Cmd) {
	b.formType = bookingFormDelete
	b.editingID = ps.ID
	*b.formConfirm = false

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove %s from %s?", ps.ServiceName, b.profile.Name)).
				Description("Its todos are deleted too.").
				Affirmative("Remove").
				Negative("Cancel").
				Value(b.formConfirm),
		),
	).WithShowHelp(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b bookingsModel) updateForm(msg tea.Msg) (bookingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		b.formActive = false
		b.form = nil
		return b, nil
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}

	if b.form.State == huh.StateCompleted {
		b.formActive = false
		b.form = nil
		if b.formType == bookingFormDelete && !*b.formConfirm {
			return b, nil
		}
		return b, b.writeCmd(b.formWrite())
	}
	return b, cmd
}

// formWrite turns the finished form into the store call it stands for.
func (b bookingsModel) formWrite() func() error {
	id := b.editingID
	notes := strings.TrimSpace(*b.formNotes)
	switch b.formType {
	case bookingFormDelete:
		return func() error { return b.store.DeleteProfileService(id) }
	case bookingFormNotes:
		return func() error { return b.store.UpdateProfileServiceNotes(id, notes) }
	}
	profileID, serviceID := b.profile.ID, *b.formService
	return func() error {
		_, err := b.store.AddProfileService(profileID, serviceID, notes)
		return err
	}
}

func (b bookingsModel) writeCmd(fn func() error) tea.Cmd {
	return tea.Sequence(
		func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: "Error: " + err.Error(), isError: true}
			}
			return statusMsg{text: "Services saved"}
		},
		b.refresh(),
	)
}

// quote prices a booking's typical duration at its rate, before and after
// tax.
func quote(ps store.ProfileService, vat billing.VAT) (net, gross int64, ok bool) {
	if ps.EstimatedSeconds == nil {
		return 0, 0, false
	}
	net = billing.Amount(*ps.EstimatedSeconds, ps.RateCents)
	_, gross = vat.FromNet(net)
	return net, gross, true
}

func (b bookingsModel) view() string {
	w := b.width - 4

	if b.viewingTodos {
		return b.todos.view()
	}
	if b.formActive && b.form != nil {
		return activePanelStyle.Width(w).Render(b.form.View())
	}

	title := fmt.Sprintf("%s %s", dot(b.profile.Color), titleStyle.Render(b.profile.Name+" · Services"))
	if len(b.bookings) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No services booked. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-22s %-12s %-8s %-12s %s", "Service", "Rate", "Typical", "Quote", "Notes")))
	for i, ps := range b.bookings {
		cursor := "  "
		style := normalItemStyle
		if i == b.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		estimate, price := format.Missing, format.Missing
		if ps.EstimatedSeconds != nil {
			estimate = format.HHMM(*ps.EstimatedSeconds)
		}
		if _, gross, ok := quote(ps, billing.Standard); ok {
			price = format.Rate(gross)
		}
		notes := strings.ReplaceAll(ps.Notes, "\n", " ")
		row := fmt.Sprintf("%s%-24s %-12s %-8s %-12s %s", cursor, ps.ServiceName, format.Rate(ps.RateCents), estimate, price, notes)
		rows = append(rows, style.Render(row))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: book  e: notes  d: remove  t: todos  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
