package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
	"github.com/sadopc/solia/internal/timer"
)

var errNoProfile = errors.New("no profile selected, press 3 to create one")

type profileItem struct {
	profile store.Profile
}

func (i profileItem) Title() string { return i.profile.Name }
func (i profileItem) Description() string {
	if i.profile.TargetSeconds == nil {
		return "no daily target"
	}
	return "target " + format.HHMM(*i.profile.TargetSeconds) + " per day"
}
func (i profileItem) FilterValue() string { return i.profile.Name }

type dashboardModel struct {
	store *store.Store
	state *state.State
	timer timerModel
	clock func() time.Time

	width  int
	height int

	recent   []store.EntryRow
	projects []store.Project
	profiles []store.Profile

	bar bprogress.Model

	picking bool
	picker  list.Model

	formActive  bool
	form        *huh.Form
	formProject *int64
	formNote    *string
	formTags    *string
}

func newDashboardModel(s *store.Store, st *state.State, svc *timer.Service, clock func() time.Time) dashboardModel {
	var project int64
	note, tags := "", ""
	picker := list.New(nil, list.NewDefaultDelegate(), 40, 12)
	picker.Title = "Select Profile"
	picker.SetShowHelp(false)

	return dashboardModel{
		store:       s,
		state:       st,
		timer:       newTimerModel(svc),
		clock:       clock,
		bar:         bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithoutPercentage()),
		picker:      picker,
		formProject: &project,
		formNote:    &note,
		formTags:    &tags,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.bar.Width = clamp(w-24, 10, 80)
	d.picker.SetSize(clamp(w-8, 20, 80), clamp(h-6, 5, 30))
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.elapsed()
}

type dashboardDataMsg struct {
	status      timer.Status
	runningName string
	profile     *store.Profile
	entries     []store.TimeEntry
	recent      []store.EntryRow
	projects    []store.Project
	profiles    []store.Profile
}

// loadData reads everything the timer view shows for the profile selected
// at call time.
func (d dashboardModel) loadData() tea.Cmd {
	profileID := d.state.CurrentProfileID()
	return func() tea.Msg {
		var msg dashboardDataMsg
		st, err := d.timer.svc.State()
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		msg.status = st
		if st.Running {
			if p, _ := d.store.GetProfile(st.ProfileID); p != nil {
				msg.runningName = p.Name
			}
		}

		msg.profiles, _ = d.store.ListProfiles(false)
		if profileID == nil {
			return msg
		}
		msg.profile, _ = d.store.GetProfile(*profileID)
		if msg.profile == nil {
			return msg
		}
		msg.entries, _ = d.store.ListProfileEntries(*profileID)
		msg.recent, _ = d.store.ListEntries(store.EntryFilter{ProfileID: profileID, Limit: 5})
		msg.projects, _ = d.store.ListProjects(profileID)
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.timer.load(msg.status, msg.runningName, msg.profile, msg.entries, d.clock())
		d.recent = msg.recent
		d.projects = msg.projects
		d.profiles = msg.profiles
		return d, nil

	case tickMsg:
		d.timer.tick(time.Time(msg))
		return d, nil
	}

	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			return d, d.startCmd(d.defaultRequest())
		case key.Matches(msg, keys.New):
			return d.showStartForm()
		case key.Matches(msg, keys.Stop):
			return d, d.stopCmd()
		case key.Matches(msg, keys.Toggle):
			return d, d.toggleCmd(d.defaultRequest())
		case key.Matches(msg, keys.Profile):
			return d.showPicker()
		}
		return d, nil
	}

	if d.picking {
		var cmd tea.Cmd
		d.picker, cmd = d.picker.Update(msg)
		return d, cmd
	}
	return d, nil
}

// defaultRequest starts the current profile on the remembered project when
// that project belongs to it.
func (d dashboardModel) defaultRequest() *timer.StartRequest {
	if d.timer.profile == nil {
		return nil
	}
	req := &timer.StartRequest{ProfileID: d.timer.profile.ID}
	if pid := d.state.CurrentProjectID(); pid != nil {
		for _, p := range d.projects {
			if p.ID == *pid {
				id := p.ID
				req.ProjectID = &id
				break
			}
		}
	}
	return req
}

func (d dashboardModel) startCmd(req *timer.StartRequest) tea.Cmd {
	if req == nil {
		return errCmd(errNoProfile)
	}
	r := *req
	return func() tea.Msg {
		if err := d.timer.start(r); err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return timerChangedMsg{started: true}
	}
}

func (d dashboardModel) stopCmd() tea.Cmd {
	return func() tea.Msg {
		stopped, err := d.timer.stop()
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		if !stopped {
			return statusMsg{text: "No timer running"}
		}
		return timerChangedMsg{}
	}
}

func (d dashboardModel) toggleCmd(req *timer.StartRequest) tea.Cmd {
	if req == nil && !d.timer.running() {
		return errCmd(errNoProfile)
	}
	var r timer.StartRequest
	if req != nil {
		r = *req
	}
	return func() tea.Msg {
		started, err := d.timer.toggle(r)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return timerChangedMsg{started: started}
	}
}

func (d dashboardModel) showPicker() (dashboardModel, tea.Cmd) {
	if len(d.profiles) == 0 {
		return d, errCmd(errNoProfile)
	}
	items := make([]list.Item, len(d.profiles))
	for i, p := range d.profiles {
		items[i] = profileItem{profile: p}
	}
	cmd := d.picker.SetItems(items)
	d.picking = true
	return d, cmd
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if d.picker.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, keys.Back):
			d.picking = false
			return d, nil
		case key.Matches(msg, keys.Enter):
			d.picking = false
			item, ok := d.picker.SelectedItem().(profileItem)
			if !ok {
				return d, nil
			}
			id := item.profile.ID
			if err := d.state.SelectProfile(&id); err != nil {
				return d, errCmd(err)
			}
			return d, d.loadData()
		}
	}
	var cmd tea.Cmd
	d.picker, cmd = d.picker.Update(msg)
	return d, cmd
}

func (d dashboardModel) showStartForm() (dashboardModel, tea.Cmd) {
	req := d.defaultRequest()
	if req == nil {
		return d, errCmd(errNoProfile)
	}
	*d.formProject = 0
	if req.ProjectID != nil {
		*d.formProject = *req.ProjectID
	}
	*d.formNote = ""
	*d.formTags = ""

	var fields []huh.Field
	if len(d.projects) > 0 {
		opts := []huh.Option[int64]{huh.NewOption("No project", int64(0))}
		for _, p := range d.projects {
			opts = append(opts, huh.NewOption(p.Name, p.ID))
		}
		fields = append(fields, huh.NewSelect[int64]().Title("Project").Options(opts...).Value(d.formProject))
	}
	fields = append(fields,
		huh.NewInput().Title("Note").Value(d.formNote),
		huh.NewInput().Title("Tags (comma-separated)").Value(d.formTags),
	)

	d.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d, d.submitStartForm()
	}
	return d, cmd
}

func (d dashboardModel) submitStartForm() tea.Cmd {
	if d.timer.profile == nil {
		return errCmd(errNoProfile)
	}
	req := &timer.StartRequest{
		ProfileID: d.timer.profile.ID,
		Note:      strings.TrimSpace(*d.formNote),
		Tags:      store.SplitTags(*d.formTags),
	}
	if *d.formProject != 0 {
		id := *d.formProject
		req.ProjectID = &id
	}
	if err := d.state.SelectProject(req.ProjectID); err != nil {
		return errCmd(err)
	}
	return d.startCmd(req)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Start Timer"), "", d.form.View())
		return activePanelStyle.Width(contentWidth).Render(content)
	}
	if d.picking {
		return activePanelStyle.Width(contentWidth).Render(d.picker.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderProgressPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(d.timer.elapsed()))
		indicator := successStyle.Render("●  RUNNING")
		who := highlightStyle.Render(d.timer.runningName)
		if d.timer.status.Note != "" {
			who += mutedStyle.Render(" · " + d.timer.status.Note)
		}
		since := mutedStyle.Render("since " + d.timer.status.Start.Local().Format("15:04"))

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, who, since)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("s: start  n: start with note  p: switch profile")

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderProgressPanel(w int) string {
	p := d.timer.profile
	if p == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No profile selected. Press 3 to create one."))
	}

	header := fmt.Sprintf("%s %s", dot(p.Color), titleStyle.Render(p.Name))
	today := fmt.Sprintf("Today  %s", highlightStyle.Render(formatDuration(d.timer.progress.Today)))
	total := mutedStyle.Render("Total  " + formatDuration(d.timer.progress.Total))

	rows := []string{header, "", today}
	if p.TargetSeconds == nil {
		rows = append(rows, mutedStyle.Render("No daily target set"))
	} else {
		ratio := d.timer.progress.Ratio
		if ratio > 1 {
			ratio = 1
		}
		bar := fmt.Sprintf("%s %3d%%", d.bar.ViewAs(ratio), d.timer.progress.Percent)
		target := mutedStyle.Render(fmt.Sprintf("target %s, %s left",
			format.HHMM(*p.TargetSeconds), formatDuration(d.timer.progress.Remaining())))
		if d.timer.progress.Percent >= 100 {
			target = successStyle.Render("target " + format.HHMM(*p.TargetSeconds) + " reached")
		}
		rows = append(rows, bar, target)
	}
	rows = append(rows, total)

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	for _, e := range d.recent {
		project := e.ProjectName
		if project == "" {
			project = format.Missing
		}
		mark := "✓"
		dur := formatDuration(progress.EntryDuration(e.TimeEntry, d.timer.now))
		if e.Running() {
			mark = "●"
			dur = "running"
		}
		row := fmt.Sprintf("  %s %s  %-16s %-10s %s", mark, e.Start.Local().Format("15:04"), project, dur,
			mutedStyle.Render(ago(e.Start, d.timer.now)))
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
