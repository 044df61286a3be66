package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/export"
	"github.com/sadopc/solia/internal/logger"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
	"github.com/sadopc/solia/internal/timer"
)

// tickInterval is how often elapsed time and progress are recomputed.
const tickInterval = 500 * time.Millisecond

type exportChoice struct {
	label  string
	format export.Format
	all    bool
}

var exportChoices = []exportChoice{
	{"CSV, current profile", export.CSV, false},
	{"JSON, current profile", export.JSON, false},
	{"CSV, all profiles", export.CSV, true},
	{"JSON, all profiles", export.JSON, true},
}

// Options wires the core services into the UI.
type Options struct {
	Store     *store.Store
	Timer     *timer.Service
	State     *state.State
	Paths     Paths
	ExportDir string
	Clock     func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	state     *state.State
	clock     func() time.Time
	exportDir string

	events      chan state.Event
	unsubscribe []func()

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	entries   entriesModel
	profiles  profilesModel
	reports   reportsModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(opts Options) App {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	h := help.New()
	h.ShowAll = false

	applyTheme(opts.State.Settings().Theme)

	a := App{
		store:      opts.Store,
		state:      opts.State,
		clock:      clock,
		exportDir:  opts.ExportDir,
		events:     make(chan state.Event, 64),
		activeView: viewTimer,
		dashboard:  newDashboardModel(opts.Store, opts.State, opts.Timer, clock),
		entries:    newEntriesModel(opts.Store, opts.State, clock),
		profiles:   newProfilesModel(opts.Store, opts.State, newProjectsModel(opts.Store, opts.State, clock)),
		reports:    newReportsModel(opts.Store, opts.State),
		settings:   newSettingsModel(opts.Store, opts.State, opts.Paths),
		help:       h,
	}

	bus := opts.State.Bus()
	forward := func(e state.Event) {
		select {
		case a.events <- e:
		default:
			logger.Debug("ui event dropped", "kind", e.Kind)
		}
	}
	for _, k := range []state.Kind{
		state.ProfileChanged, state.ActiveEntryChanged, state.EntriesUpdated,
		state.ProfilesUpdated, state.ServicesUpdated, state.SettingsChanged,
	} {
		a.unsubscribe = append(a.unsubscribe, bus.Subscribe(k, forward))
	}

	if _, err := opts.State.EnsureProfile(); err != nil {
		a.status, a.statusErr = "Error: "+err.Error(), true
	}
	return a
}

// Close detaches the app from the event bus.
func (a App) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
		listenBus(a.events),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listenBus waits for the next bus event and hands it to Update.
func listenBus(ch <-chan state.Event) tea.Cmd {
	return func() tea.Msg {
		return busMsg{event: <-ch}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.entries.setSize(a.width, contentHeight)
		a.profiles.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (form, filter) gets the key first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimer)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewEntries)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewProfiles)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		cmds = append(cmds, cmd)
		a.entries, cmd = a.entries.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case busMsg:
		return a, tea.Batch(a.handleEvent(msg.event), listenBus(a.events))

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case timerChangedMsg:
		a.status, a.statusErr = "Timer stopped", false
		if msg.started {
			a.status = "Timer started"
		}
		return a, a.dashboard.loadData()

	case exportDoneMsg:
		a.status = fmt.Sprintf("Exported %d %s to %s", msg.rows, plural(msg.rows, "entry", "entries"), msg.path)
		a.statusErr = false
		return a, nil

	case dashboardDataMsg:
		a.dashboard, _ = a.dashboard.update(msg)
		return a, nil
	case entriesDataMsg:
		a.entries, _ = a.entries.update(msg)
		return a, nil
	case profilesDataMsg, projectsDataMsg, bookingsDataMsg, todosDataMsg:
		var cmd tea.Cmd
		a.profiles, cmd = a.profiles.update(msg)
		return a, cmd
	case reportsDataMsg:
		a.reports, _ = a.reports.update(msg)
		return a, nil
	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

// handleEvent reloads whatever an event invalidated.
func (a *App) handleEvent(e state.Event) tea.Cmd {
	switch e.Kind {
	case state.ProfileChanged:
		return tea.Batch(a.dashboard.loadData(), a.entries.refresh(), a.reports.refresh(), a.profiles.refresh())
	case state.ActiveEntryChanged, state.EntriesUpdated:
		return tea.Batch(a.dashboard.loadData(), a.entries.refresh(), a.reports.refresh())
	case state.ProfilesUpdated:
		if _, err := a.state.EnsureProfile(); err != nil {
			return errCmd(err)
		}
		return tea.Batch(a.dashboard.loadData(), a.entries.refresh())
	case state.ServicesUpdated:
		return a.profiles.refresh()
	case state.SettingsChanged:
		if e.Settings != nil {
			applyTheme(e.Settings.Theme)
		}
	}
	return nil
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewEntries:
		a.entries, cmd = a.entries.update(msg)
	case viewProfiles:
		a.profiles, cmd = a.profiles.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.dashboard.formActive || a.dashboard.picking
	case viewEntries:
		return a.entries.formActive
	case viewProfiles:
		return a.profiles.isFormActive()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimer:
		return a.dashboard.loadData()
	case viewEntries:
		return a.entries.refresh()
	case viewProfiles:
		return a.profiles.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.dashboard.view()
	case viewEntries:
		content = a.entries.view()
	case viewProfiles:
		content = a.profiles.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("solia")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	timerInfo := ""
	if a.dashboard.isRunning() {
		timerInfo = successStyle.Render(" ● " + formatDuration(a.dashboard.elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, c := range exportChoices {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+c.label))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  files go to "+a.exportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportChoices)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportChoices[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(c exportChoice) tea.Cmd {
	var filter store.EntryFilter
	if !c.all {
		filter.ProfileID = a.state.CurrentProfileID()
		if filter.ProfileID == nil {
			return errCmd(errNoProfile)
		}
	}
	now := a.clock()
	path := filepath.Join(a.exportDir, export.DefaultFileName(c.format, now))
	return func() tea.Msg {
		n, err := export.Export(a.store, c.format, path, filter, now)
		if err != nil {
			return statusMsg{text: "Export error: " + err.Error(), isError: true}
		}
		logger.Info("exported entries", "path", path, "rows", n)
		return exportDoneMsg{path: path, rows: n}
	}
}
