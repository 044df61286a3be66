package tui

import (
	"errors"
	"fmt"
	"sort"
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
	settingsFormTheme         = "theme"
	settingsFormService       = "service"
	settingsFormEditService   = "edit_service"
	settingsFormDeleteService = "delete_service"
	settingsFormVAT           = "vat"
)

// Amount kinds the VAT calculator starts from.
const (
	vatFromNet   = "net"
	vatFromTax   = "vat"
	vatFromGross = "gross"
)

var errBadRate = errors.New("use e.g. 85,50")

// Paths are the files shown on the settings view.
type Paths struct {
	Database string
	Settings string
	EventLog string
	DebugLog string
}

type settingsModel struct {
	store *store.Store
	state *state.State
	paths Paths

	width  int
	height int

	schemaVersion int
	services      []store.Service
	cursor        int
	vat           *vatSplit

	formActive bool
	form       *huh.Form
	formType   string
	editingID  int64

	formTheme    *string
	formName     *string
	formRate     *string
	formEstimate *string
	formConfirm  *bool
	formVATFrom  *string
	formVATRate  *int64
}

// vatSplit is the last result of the VAT calculator.
type vatSplit struct {
	rate            billing.VAT
	net, tax, gross int64
}

func newSettingsModel(s *store.Store, st *state.State, paths Paths) settingsModel {
	theme, name, rate, estimate := "", "", "", ""
	confirm := false
	from, vatRate := vatFromNet, billing.Standard.Rate
	return settingsModel{
		store:        s,
		state:        st,
		paths:        paths,
		formTheme:    &theme,
		formName:     &name,
		formRate:     &rate,
		formEstimate: &estimate,
		formConfirm:  &confirm,
		formVATFrom:  &from,
		formVATRate:  &vatRate,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	schemaVersion int
	services      []store.Service
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		version, err := s.store.SchemaVersion()
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		services, err := s.store.ListServices()
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return settingsDataMsg{schemaVersion: version, services: services}
	}
}

func sortedServices(m map[int64]store.Service) []store.Service {
	out := make([]store.Service, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(settingsDataMsg); ok {
		s.schemaVersion = msg.schemaVersion
		s.services = msg.services
		s.cursor = clamp(s.cursor, 0, max(0, len(s.services)-1))
		return s, nil
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showThemeForm()
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.services)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.New):
			return s.showServiceForm(nil)
		case key.Matches(msg, keys.Edit):
			if len(s.services) > 0 {
				svc := s.services[s.cursor]
				return s.showServiceForm(&svc)
			}
		case key.Matches(msg, keys.Delete):
			if len(s.services) > 0 {
				return s.showDeleteConfirm(s.services[s.cursor])
			}
		case key.Matches(msg, keys.VAT):
			return s.showVATForm()
		}
	}
	return s, nil
}

func (s settingsModel) showThemeForm() (settingsModel, tea.Cmd) {
	s.formType = settingsFormTheme
	*s.formTheme = s.state.Settings().Theme

	opts := make([]huh.Option[string], len(themeNames))
	for i, name := range themeNames {
		opts[i] = huh.NewOption(name, name)
	}
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").Options(opts...).Value(s.formTheme),
		).Title("Appearance"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validRate(v string) error {
	if _, ok := format.ParseRate(v); !ok {
		return errBadRate
	}
	return nil
}

func (s settingsModel) showServiceForm(svc *store.Service) (settingsModel, tea.Cmd) {
	title := "New Service"
	if svc == nil {
		s.formType = settingsFormService
		*s.formName, *s.formRate, *s.formEstimate = "", "", ""
	} else {
		title = "Edit Service"
		s.formType = settingsFormEditService
		s.editingID = svc.ID
		*s.formName = svc.Name
		*s.formRate = strings.TrimSuffix(format.Rate(svc.RateCents), " €")
		*s.formEstimate = ""
		if svc.EstimatedSeconds != nil {
			*s.formEstimate = format.HHMM(*svc.EstimatedSeconds)
		}
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(s.formName).Validate(validName),
			huh.NewInput().Title("Hourly rate (€)").Value(s.formRate).Validate(validRate),
			huh.NewInput().Title("Typical duration (HH:MM, optional)").Value(s.formEstimate).Validate(validTarget),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showDeleteConfirm(svc store.Service) (settingsModel, tea.Cmd) {
	s.formType = settingsFormDeleteService
	s.editingID = svc.ID
	*s.formConfirm = false

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete service %s?", svc.Name)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(s.formConfirm),
		),
	).WithShowHelp(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showVATForm() (settingsModel, tea.Cmd) {
	s.formType = settingsFormVAT
	*s.formRate = ""

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Rate").Options(
				huh.NewOption("19 %", billing.Standard.Rate),
				huh.NewOption("7 %", billing.Reduced.Rate),
			).Value(s.formVATRate),
			huh.NewSelect[string]().Title("Amount is").Options(
				huh.NewOption("Net", vatFromNet),
				huh.NewOption("VAT", vatFromTax),
				huh.NewOption("Gross", vatFromGross),
			).Value(s.formVATFrom),
			huh.NewInput().Title("Amount (€)").Value(s.formRate).Validate(validRate),
		).Title("VAT Calculator"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

// vatResult runs the calculator on the form's values.
func (s settingsModel) vatResult() (vatSplit, error) {
	cents, ok := format.ParseRate(*s.formRate)
	if !ok {
		return vatSplit{}, errBadRate
	}
	return splitVAT(billing.VAT{Rate: *s.formVATRate}, *s.formVATFrom, cents), nil
}

// splitVAT derives all three amounts from whichever one is known.
func splitVAT(rate billing.VAT, from string, cents int64) vatSplit {
	out := vatSplit{rate: rate}
	switch from {
	case vatFromTax:
		out.tax = cents
		out.net, out.gross = rate.FromTax(cents)
	case vatFromGross:
		out.gross = cents
		out.net, out.tax = rate.FromGross(cents)
	default:
		out.net = cents
		out.tax, out.gross = rate.FromNet(cents)
	}
	return out
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		switch s.formType {
		case settingsFormTheme:
			return s, s.saveTheme(*s.formTheme)
		case settingsFormVAT:
			split, err := s.vatResult()
			if err != nil {
				return s, errCmd(err)
			}
			s.vat = &split
			return s, nil
		case settingsFormDeleteService:
			if !*s.formConfirm {
				return s, nil
			}
			id := s.editingID
			return s, s.writeCmd(func() error { return s.store.DeleteService(id) })
		default:
			return s, s.saveService()
		}
	}
	return s, cmd
}

func (s settingsModel) saveTheme(theme string) tea.Cmd {
	next := s.state.Settings()
	if next.Theme == theme {
		return nil
	}
	next.Theme = theme
	if err := s.state.UpdateSettings(next); err != nil {
		return errCmd(err)
	}
	return statusCmd("Theme set to " + theme)
}

func (s settingsModel) saveService() tea.Cmd {
	write, err := s.serviceWrite()
	if err != nil {
		return errCmd(err)
	}
	return s.writeCmd(write)
}

// serviceWrite turns the service form into the store call it stands for.
func (s settingsModel) serviceWrite() (func() error, error) {
	name := strings.TrimSpace(*s.formName)
	rate, ok := format.ParseRate(*s.formRate)
	if !ok {
		return nil, errBadRate
	}
	var estimate *int64
	if secs, ok := format.ParseDuration(*s.formEstimate); ok {
		estimate = &secs
	}
	if s.formType == settingsFormEditService {
		id := s.editingID
		return func() error { return s.store.UpdateService(id, name, rate, estimate) }, nil
	}
	return func() error {
		_, err := s.store.CreateService(name, rate, estimate)
		return err
	}, nil
}

func (s settingsModel) writeCmd(fn func() error) tea.Cmd {
	bus := s.state.Bus()
	return tea.Sequence(
		func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: "Error: " + err.Error(), isError: true}
			}
			bus.ServicesUpdated()
			return statusMsg{text: "Services saved"}
		},
		s.refresh(),
	)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", s.form.View()),
		)
	}

	label := lipgloss.NewStyle().Width(18)
	line := func(k, v string) string {
		return fmt.Sprintf("  %s %s", label.Render(k), highlightStyle.Render(v))
	}

	rows := []string{
		titleStyle.Render("Settings"),
		"",
		line("Theme", s.state.Settings().Theme),
		line("Schema version", fmt.Sprintf("%d", s.schemaVersion)),
		line("Database", s.paths.Database),
		line("Settings file", s.paths.Settings),
		line("Event log", s.paths.EventLog),
		line("Debug log", s.paths.DebugLog),
		"",
		titleStyle.Render("Services"),
	}

	if len(s.services) == 0 {
		rows = append(rows, mutedStyle.Render("  No services yet. Press n to add one."))
	}
	for i, svc := range s.services {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		estimate := format.Missing
		if svc.EstimatedSeconds != nil {
			estimate = format.HHMM(*svc.EstimatedSeconds)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %12s/h  %s", cursor, svc.Name, format.Rate(svc.RateCents), estimate)))
	}

	if s.vat != nil {
		rows = append(rows, "",
			titleStyle.Render(fmt.Sprintf("VAT %d%%", s.vat.rate.Rate)),
			line("Net", format.Rate(s.vat.net)),
			line("VAT", format.Rate(s.vat.tax)),
			line("Gross", format.Rate(s.vat.gross)),
		)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: theme  n: new service  e: edit  d: delete  v: vat calculator"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
