package tui

import (
	"fmt"
	"strings"
	"time"

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
	projectFormNew    = "new"
	projectFormEdit   = "edit"
	projectFormDelete = "delete"
)

// projectsModel lists the projects of one profile with their billing
// figures.
type projectsModel struct {
	store *store.Store
	state *state.State
	clock func() time.Time

	width  int
	height int

	profile  store.Profile
	projects []store.Project
	services map[int64]store.Service
	entries  []store.TimeEntry
	cursor   int
	vat      billing.VAT

	viewingTodos bool
	todos        todosModel

	formActive bool
	form       *huh.Form
	formType   string
	editingID  int64

	formName     *string
	formService  *int64
	formEstimate *string
	formDeadline *string
	formNotes    *string
	formConfirm  *bool
}

func newProjectsModel(s *store.Store, st *state.State, clock func() time.Time) projectsModel {
	name, estimate, deadline, notes := "", "", "", ""
	var service int64
	confirm := false
	return projectsModel{
		store:        s,
		state:        st,
		clock:        clock,
		vat:          billing.Standard,
		todos:        newTodosModel(s),
		formName:     &name,
		formService:  &service,
		formEstimate: &estimate,
		formDeadline: &deadline,
		formNotes:    &notes,
		formConfirm:  &confirm,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.todos.setSize(w, h)
}

// open shows the projects of prof, starting at the top of the list.
func (p projectsModel) open(prof store.Profile) projectsModel {
	if prof.ID != p.profile.ID {
		p.projects = nil
		p.cursor = 0
	}
	p.profile = prof
	p.viewingTodos = false
	return p
}

func (p projectsModel) isFormActive() bool {
	if p.viewingTodos {
		return p.todos.formActive
	}
	return p.formActive
}

type projectsDataMsg struct {
	profileID int64
	projects  []store.Project
	services  []store.Service
	entries   []store.TimeEntry
}

func (p projectsModel) refresh() tea.Cmd {
	profileID := p.profile.ID
	return func() tea.Msg {
		projects, err := p.store.ListProjects(&profileID)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		services, _ := p.store.ListServices()
		entries, _ := p.store.ListProfileEntries(profileID)
		return projectsDataMsg{profileID: profileID, projects: projects, services: services, entries: entries}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(projectsDataMsg); ok {
		if msg.profileID != p.profile.ID {
			return p, nil
		}
		p.projects = msg.projects
		p.entries = msg.entries
		p.services = make(map[int64]store.Service, len(msg.services))
		for _, s := range msg.services {
			p.services[s.ID] = s
		}
		p.cursor = clamp(p.cursor, 0, max(0, len(p.projects)-1))
		return p, nil
	}
	if msg, ok := msg.(todosDataMsg); ok {
		var cmd tea.Cmd
		p.todos, cmd = p.todos.update(msg)
		return p, cmd
	}

	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	if p.viewingTodos {
		if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Back) && !p.todos.formActive {
			p.viewingTodos = false
			return p, nil
		}
		var cmd tea.Cmd
		p.todos, cmd = p.todos.update(msg)
		return p, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.projects)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.New):
			return p.showProjectForm(nil)
		case key.Matches(msg, keys.Edit):
			if proj, ok := p.current(); ok {
				return p.showProjectForm(&proj)
			}
		case key.Matches(msg, keys.Delete):
			if proj, ok := p.current(); ok {
				return p.showDeleteConfirm(proj)
			}
		case key.Matches(msg, keys.Select):
			if proj, ok := p.current(); ok {
				id := proj.ID
				if err := p.state.SelectProject(&id); err != nil {
					return p, errCmd(err)
				}
				return p, statusCmd("New timers use " + proj.Name)
			}
		case key.Matches(msg, keys.Invoice):
			if proj, ok := p.current(); ok {
				return p, p.writeCmd(func() error {
					return p.store.SetProjectInvoiceFlags(proj.ID, !proj.InvoiceSent, proj.InvoicePaid)
				})
			}
		case key.Matches(msg, keys.Paid):
			if proj, ok := p.current(); ok {
				return p, p.writeCmd(func() error {
					return p.store.SetProjectInvoiceFlags(proj.ID, proj.InvoiceSent, !proj.InvoicePaid)
				})
			}
		case key.Matches(msg, keys.VAT):
			p.vat = p.vat.Toggle()
		case key.Matches(msg, keys.Todos):
			if proj, ok := p.current(); ok {
				p.viewingTodos = true
				var cmd tea.Cmd
				p.todos, cmd = p.todos.open(store.TodoProject, proj.ID, p.profile.Name+" · "+proj.Name)
				return p, cmd
			}
		}
	}
	return p, nil
}

func (p projectsModel) current() (store.Project, bool) {
	if p.cursor < 0 || p.cursor >= len(p.projects) {
		return store.Project{}, false
	}
	return p.projects[p.cursor], true
}

func (p projectsModel) service(id *int64) *store.Service {
	if id == nil {
		return nil
	}
	if s, ok := p.services[*id]; ok {
		return &s
	}
	return nil
}

func validDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (p projectsModel) showProjectForm(proj *store.Project) (projectsModel, tea.Cmd) {
	title := "New Project"
	if proj == nil {
		p.formType = projectFormNew
		*p.formName, *p.formEstimate, *p.formDeadline, *p.formNotes = "", "", "", ""
		*p.formService = 0
	} else {
		title = "Edit Project"
		p.formType = projectFormEdit
		p.editingID = proj.ID
		*p.formName, *p.formNotes = proj.Name, proj.Notes
		*p.formEstimate, *p.formDeadline = "", ""
		if proj.EstimatedSeconds != nil {
			*p.formEstimate = format.HHMM(*proj.EstimatedSeconds)
		}
		if proj.Deadline != nil {
			*p.formDeadline = proj.Deadline.Local().Format("2006-01-02")
		}
		*p.formService = 0
		if proj.ServiceID != nil {
			*p.formService = *proj.ServiceID
		}
	}

	fields := []huh.Field{
		huh.NewInput().Title("Name").Value(p.formName).Validate(validName),
	}
	if len(p.services) > 0 {
		opts := []huh.Option[int64]{huh.NewOption("No service", int64(0))}
		for _, s := range sortedServices(p.services) {
			opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s/h)", s.Name, format.Rate(s.RateCents)), s.ID))
		}
		fields = append(fields, huh.NewSelect[int64]().Title("Service").Options(opts...).Value(p.formService))
	}
	fields = append(fields,
		huh.NewInput().Title("Estimate (HH:MM, optional)").Value(p.formEstimate).Validate(validTarget),
		huh.NewInput().Title("Deadline (YYYY-MM-DD, optional)").Value(p.formDeadline).Validate(validDate),
		huh.NewText().Title("Notes").Value(p.formNotes),
	)

	p.form = huh.NewForm(huh.NewGroup(fields...).Title(title)).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showDeleteConfirm(proj store.Project) (projectsModel, tea.Cmd) {
	p.formType = projectFormDelete
	p.editingID = proj.ID
	*p.formConfirm = false

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %s?", proj.Name)).
				Description("Its time entries are kept without a project.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
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
		id := p.editingID
		switch p.formType {
		case projectFormDelete:
			if !*p.formConfirm {
				return p, nil
			}
			return p, p.writeCmd(func() error { return p.store.DeleteProject(id) })
		case projectFormEdit:
			in := p.input()
			return p, p.writeCmd(func() error { return p.store.UpdateProject(id, in) })
		default:
			in := p.input()
			return p, p.writeCmd(func() error {
				_, err := p.store.CreateProject(in)
				return err
			})
		}
	}
	return p, cmd
}

func (p projectsModel) input() store.ProjectInput {
	in := store.ProjectInput{
		ProfileID: p.profile.ID,
		Name:      strings.TrimSpace(*p.formName),
		Notes:     strings.TrimSpace(*p.formNotes),
	}
	if *p.formService != 0 {
		id := *p.formService
		in.ServiceID = &id
	}
	if secs, ok := format.ParseDuration(*p.formEstimate); ok {
		in.EstimatedSeconds = &secs
	}
	if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*p.formDeadline), time.Local); err == nil {
		in.Deadline = &d
	}
	return in
}

func (p projectsModel) writeCmd(fn func() error) tea.Cmd {
	bus := p.state.Bus()
	return tea.Sequence(
		func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: "Error: " + err.Error(), isError: true}
			}
			bus.EntriesUpdated()
			return statusMsg{text: "Project saved"}
		},
		p.refresh(),
	)
}

func (p projectsModel) invoice(proj store.Project) billing.Invoice {
	return billing.ProjectInvoice(proj, p.service(proj.ServiceID), p.entries, p.clock(), p.vat)
}

func (p projectsModel) view() string {
	w := p.width - 4

	if p.viewingTodos {
		return p.todos.view()
	}
	if p.formActive && p.form != nil {
		return activePanelStyle.Width(w).Render(p.form.View())
	}

	title := fmt.Sprintf("%s %s", dot(p.profile.Color), titleStyle.Render(p.profile.Name+" · Projects"))
	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-22s %-10s %-10s %-12s %s", "Name", "Tracked", "Estimate", "Net", "Invoice")))
	for i, proj := range p.projects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		inv := p.invoice(proj)
		estimate := format.Missing
		if proj.EstimatedSeconds != nil {
			estimate = format.HHMM(*proj.EstimatedSeconds)
		}
		row := fmt.Sprintf("%s%-24s %-10s %-10s %-12s", cursor, proj.Name, format.HHMM(inv.Seconds), estimate, format.Rate(inv.Net))
		rows = append(rows, style.Render(row)+" "+invoiceState(proj))
	}

	if proj, ok := p.current(); ok {
		rows = append(rows, "", p.renderBilling(proj))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  space: use for timer  i: sent  $: paid  v: vat  t: todos  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func invoiceState(proj store.Project) string {
	switch {
	case proj.InvoicePaid:
		return successStyle.Render("paid")
	case proj.InvoiceSent:
		return warningStyle.Render("sent")
	}
	return mutedStyle.Render("open")
}

func (p projectsModel) renderBilling(proj store.Project) string {
	inv := p.invoice(proj)
	svc := p.service(proj.ServiceID)
	if svc == nil {
		return mutedStyle.Render(fmt.Sprintf("  %s: %s tracked, no service assigned", proj.Name, format.Duration(inv.Seconds)))
	}

	lines := []string{
		highlightStyle.Render(fmt.Sprintf("  %s · %s at %s/h", proj.Name, svc.Name, format.Rate(inv.RateCents))),
		fmt.Sprintf("  Tracked  %s (%s)", format.Duration(inv.Seconds), format.Hours(inv.Seconds)),
		fmt.Sprintf("  Net      %s", format.Rate(inv.Net)),
		fmt.Sprintf("  VAT %d%%  %s", p.vat.Rate, format.Rate(inv.VAT)),
		titleStyle.Render(fmt.Sprintf("  Gross    %s", format.Rate(inv.Gross))),
	}
	if inv.Estimated != nil && *inv.Estimated > 0 && inv.Seconds > *inv.Estimated {
		lines = append(lines, accentStyle.Render("  over estimate by "+format.HHMM(inv.Seconds-*inv.Estimated)))
	}
	return strings.Join(lines, "\n")
}
