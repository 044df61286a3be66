package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
)

var profileColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

var errBadTarget = errors.New("use H, HH:MM or HH:MM:SS")

const (
	profileFormNew    = "new"
	profileFormEdit   = "edit"
	profileFormDelete = "delete"
)

// profileSubview is the list shown in place of the profiles after enter,
// t or s.
type profileSubview int

const (
	subNone profileSubview = iota
	subProjects
	subTodos
	subBookings
)

type profilesModel struct {
	store *store.Store
	state *state.State

	width  int
	height int

	profiles []store.Profile
	cursor   int

	sub      profileSubview
	projects projectsModel
	todos    todosModel
	bookings bookingsModel

	formActive bool
	form       *huh.Form
	formType   string
	editingID  int64

	formName    *string
	formColor   *string
	formTarget  *string
	formCompany *string
	formContact *string
	formEmail   *string
	formPhone   *string
	formAddress *string
	formNotes   *string
	formConfirm *bool
}

func newProfilesModel(s *store.Store, st *state.State, projects projectsModel) profilesModel {
	fields := make([]string, 9)
	confirm := false
	fields[1] = profileColors[0]
	return profilesModel{
		store:       s,
		state:       st,
		projects:    projects,
		todos:       newTodosModel(s),
		bookings:    newBookingsModel(s, st),
		formName:    &fields[0],
		formColor:   &fields[1],
		formTarget:  &fields[2],
		formCompany: &fields[3],
		formContact: &fields[4],
		formEmail:   &fields[5],
		formPhone:   &fields[6],
		formAddress: &fields[7],
		formNotes:   &fields[8],
		formConfirm: &confirm,
	}
}

func (p *profilesModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.projects.setSize(w, h)
	p.todos.setSize(w, h)
	p.bookings.setSize(w, h)
}

func (p profilesModel) isFormActive() bool {
	switch p.sub {
	case subProjects:
		return p.projects.isFormActive()
	case subTodos:
		return p.todos.formActive
	case subBookings:
		return p.bookings.isFormActive()
	}
	return p.formActive
}

// subFormActive reports whether the open subview has a form or nested
// list that esc must close first.
func (p profilesModel) subFormActive() bool {
	switch p.sub {
	case subProjects:
		return p.projects.isFormActive() || p.projects.viewingTodos
	case subBookings:
		return p.bookings.isFormActive() || p.bookings.viewingTodos
	}
	return p.isFormActive()
}

type profilesDataMsg struct {
	profiles []store.Profile
}

func (p profilesModel) refresh() tea.Cmd {
	cmds := []tea.Cmd{func() tea.Msg {
		profiles, err := p.store.ListProfiles(true)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return profilesDataMsg{profiles: profiles}
	}}
	switch p.sub {
	case subProjects:
		cmds = append(cmds, p.projects.refresh())
		if p.projects.viewingTodos {
			cmds = append(cmds, p.projects.todos.refresh())
		}
	case subTodos:
		cmds = append(cmds, p.todos.refresh())
	case subBookings:
		cmds = append(cmds, p.bookings.refresh())
	}
	return tea.Batch(cmds...)
}

func (p profilesModel) update(msg tea.Msg) (profilesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profilesDataMsg:
		p.profiles = msg.profiles
		p.cursor = clamp(p.cursor, 0, max(0, len(p.profiles)-1))
		return p, nil
	case projectsDataMsg:
		var cmd tea.Cmd
		p.projects, cmd = p.projects.update(msg)
		return p, cmd
	case bookingsDataMsg:
		var cmd tea.Cmd
		p.bookings, cmd = p.bookings.update(msg)
		return p, cmd
	case todosDataMsg:
		// each todo list drops data for a parent it is not showing
		var c1, c2, c3 tea.Cmd
		p.todos, c1 = p.todos.update(msg)
		p.projects, c2 = p.projects.update(msg)
		p.bookings, c3 = p.bookings.update(msg)
		return p, tea.Batch(c1, c2, c3)
	}

	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && p.sub != subNone &&
		key.Matches(msg, keys.Back) && !p.subFormActive() {
		p.sub = subNone
		return p, nil
	}

	var cmd tea.Cmd
	switch p.sub {
	case subProjects:
		p.projects, cmd = p.projects.update(msg)
	case subTodos:
		p.todos, cmd = p.todos.update(msg)
	case subBookings:
		p.bookings, cmd = p.bookings.update(msg)
	default:
		if msg, ok := msg.(tea.KeyMsg); ok {
			return p.updateList(msg)
		}
	}
	return p, cmd
}

func (p profilesModel) updateList(msg tea.KeyMsg) (profilesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.profiles)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.profiles) > 0 {
			p.sub = subProjects
			p.projects = p.projects.open(p.profiles[p.cursor])
			return p, p.projects.refresh()
		}
	case key.Matches(msg, keys.Todos):
		if len(p.profiles) > 0 {
			prof := p.profiles[p.cursor]
			p.sub = subTodos
			var cmd tea.Cmd
			p.todos, cmd = p.todos.open(store.TodoProfile, prof.ID, prof.Name)
			return p, cmd
		}
	case key.Matches(msg, keys.Services):
		if len(p.profiles) > 0 {
			p.sub = subBookings
			p.bookings.profile = p.profiles[p.cursor]
			p.bookings.bookings = nil
			p.bookings.viewingTodos = false
			p.bookings.cursor = 0
			return p, p.bookings.refresh()
		}
	case key.Matches(msg, keys.Select):
		if len(p.profiles) > 0 {
			id := p.profiles[p.cursor].ID
			if err := p.state.SelectProfile(&id); err != nil {
				return p, errCmd(err)
			}
			return p, statusCmd("Switched to " + p.profiles[p.cursor].Name)
		}
	case key.Matches(msg, keys.New):
		return p.showProfileForm(nil)
	case key.Matches(msg, keys.Edit):
		if len(p.profiles) > 0 {
			prof := p.profiles[p.cursor]
			return p.showProfileForm(&prof)
		}
	case key.Matches(msg, keys.Archive):
		if len(p.profiles) > 0 {
			prof := p.profiles[p.cursor]
			return p, p.writeCmd(func() error {
				return p.store.SetProfileArchived(prof.ID, !prof.Archived)
			})
		}
	case key.Matches(msg, keys.Delete):
		if len(p.profiles) > 0 {
			return p.showDeleteConfirm(p.profiles[p.cursor])
		}
	}
	return p, nil
}

func validTarget(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := format.ParseDuration(s); !ok {
		return errBadTarget
	}
	return nil
}

func validName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func (p profilesModel) showProfileForm(prof *store.Profile) (profilesModel, tea.Cmd) {
	title := "New Profile"
	if prof == nil {
		p.formType = profileFormNew
		*p.formName, *p.formColor, *p.formTarget = "", profileColors[0], "8:00"
		*p.formCompany, *p.formContact, *p.formEmail = "", "", ""
		*p.formPhone, *p.formAddress, *p.formNotes = "", "", ""
	} else {
		title = "Edit Profile"
		p.formType = profileFormEdit
		p.editingID = prof.ID
		*p.formName, *p.formColor, *p.formTarget = prof.Name, prof.Color, ""
		if prof.TargetSeconds != nil {
			*p.formTarget = format.HHMM(*prof.TargetSeconds)
		}
		*p.formCompany, *p.formContact, *p.formEmail = prof.Company, prof.ContactPerson, prof.Email
		*p.formPhone, *p.formAddress, *p.formNotes = prof.Phone, prof.BusinessAddress, prof.Notes
	}

	colorOptions := make([]huh.Option[string], 0, len(profileColors)+1)
	for _, c := range profileColors {
		colorOptions = append(colorOptions, huh.NewOption("● "+c, c))
	}
	if prof != nil && !contains(profileColors, prof.Color) {
		colorOptions = append(colorOptions, huh.NewOption("● "+prof.Color, prof.Color))
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(p.formName).Validate(validName),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
			huh.NewInput().Title("Daily target (HH:MM, empty for none)").Value(p.formTarget).Validate(validTarget),
		).Title(title),
		huh.NewGroup(
			huh.NewInput().Title("Company").Value(p.formCompany),
			huh.NewInput().Title("Contact person").Value(p.formContact),
			huh.NewInput().Title("Email").Value(p.formEmail),
			huh.NewInput().Title("Phone").Value(p.formPhone),
			huh.NewText().Title("Business address").Value(p.formAddress),
			huh.NewText().Title("Notes").Value(p.formNotes),
		).Title("Contact"),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p profilesModel) showDeleteConfirm(prof store.Profile) (profilesModel, tea.Cmd) {
	p.formType = profileFormDelete
	p.editingID = prof.ID
	*p.formConfirm = false

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", prof.Name)).
				Description("All entries, projects and todos of this profile are deleted too.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p profilesModel) updateForm(msg tea.Msg) (profilesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		switch p.formType {
		case profileFormDelete:
			if !*p.formConfirm {
				return p, nil
			}
			id := p.editingID
			return p, p.writeCmd(func() error { return p.store.DeleteProfile(id) })
		case profileFormEdit:
			in := p.input()
			id := p.editingID
			return p, p.writeCmd(func() error { return p.store.UpdateProfile(id, in) })
		default:
			in := p.input()
			return p, p.writeCmd(func() error {
				_, err := p.store.CreateProfile(in)
				return err
			})
		}
	}
	return p, cmd
}

func (p profilesModel) input() store.ProfileInput {
	in := store.ProfileInput{
		Name:            strings.TrimSpace(*p.formName),
		Color:           *p.formColor,
		Company:         strings.TrimSpace(*p.formCompany),
		ContactPerson:   strings.TrimSpace(*p.formContact),
		Email:           strings.TrimSpace(*p.formEmail),
		Phone:           strings.TrimSpace(*p.formPhone),
		BusinessAddress: strings.TrimSpace(*p.formAddress),
		Notes:           strings.TrimSpace(*p.formNotes),
	}
	if secs, ok := format.ParseDuration(*p.formTarget); ok {
		in.TargetSeconds = &secs
	}
	return in
}

// writeCmd runs a profile mutation, announces it on the bus and reloads
// the list.
func (p profilesModel) writeCmd(fn func() error) tea.Cmd {
	bus := p.state.Bus()
	return tea.Sequence(
		func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: "Error: " + err.Error(), isError: true}
			}
			bus.ProfilesUpdated()
			return statusMsg{text: "Profiles saved"}
		},
		p.refresh(),
	)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (p profilesModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		return activePanelStyle.Width(w).Render(p.form.View())
	}
	switch p.sub {
	case subProjects:
		return p.projects.view()
	case subTodos:
		return p.todos.view()
	case subBookings:
		return p.bookings.view()
	}

	title := titleStyle.Render("Profiles")
	if len(p.profiles) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No profiles yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	current := p.state.CurrentProfileID()
	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-24s %-8s %-20s %s", "Name", "Target", "Company", "")))

	for i, prof := range p.profiles {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		target := format.Missing
		if prof.TargetSeconds != nil {
			target = format.HHMM(*prof.TargetSeconds)
		}
		flags := ""
		if current != nil && *current == prof.ID {
			flags += successStyle.Render(" current")
		}
		if prof.Archived {
			flags += mutedStyle.Render(" archived")
		}
		row := fmt.Sprintf("%s%s %-24s %-8s %-20s", cursor, dot(prof.Color), prof.Name, target, prof.Company)
		rows = append(rows, style.Render(row)+flags)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: use  n: new  e: edit  a: archive  d: delete  enter: projects  t: todos  s: services"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
