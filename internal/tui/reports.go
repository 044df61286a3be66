package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
)

// chartWeeks is how many weeks the bar chart shows.
const chartWeeks = 8

type reportsModel struct {
	store *store.Store
	state *state.State

	width  int
	height int

	allProfiles bool
	profile     *store.Profile
	weeks       []store.WeekSummary // newest first

	chart barchart.Model
}

func newReportsModel(s *store.Store, st *state.State) reportsModel {
	return reportsModel{
		store: s,
		state: st,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type reportsDataMsg struct {
	profile *store.Profile
	weeks   []store.WeekSummary
}

func (r reportsModel) refresh() tea.Cmd {
	profileID := r.state.CurrentProfileID()
	all := r.allProfiles
	return func() tea.Msg {
		var msg reportsDataMsg
		if !all {
			if profileID == nil {
				return msg
			}
			msg.profile, _ = r.store.GetProfile(*profileID)
			if msg.profile == nil {
				return msg
			}
		} else {
			profileID = nil
		}
		weeks, err := r.store.WeeklySummary(profileID)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		msg.weeks = weeks
		return msg
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.profile = msg.profile
		r.weeks = msg.weeks
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Archive) {
			r.allProfiles = !r.allProfiles
			return r, r.refresh()
		}
	}
	return r, nil
}

func weekLabel(w store.WeekSummary) string {
	return fmt.Sprintf("W%02d", w.Week)
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	n := min(len(r.weeks), chartWeeks)
	bars := make([]barchart.BarData, 0, n)
	style := lipgloss.NewStyle().Foreground(colorPrimary)
	if r.profile != nil && r.profile.Color != "" {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(r.profile.Color))
	}
	// oldest week on the left
	for i := n - 1; i >= 0; i-- {
		w := r.weeks[i]
		bars = append(bars, barchart.BarData{
			Label: weekLabel(w),
			Values: []barchart.BarValue{{
				Name:  weekLabel(w),
				Value: float64(w.TotalSeconds) / 3600.0,
				Style: style,
			}},
		})
	}

	if len(bars) > 0 {
		r.chart.PushAll(bars)
	}
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	scope := "All profiles"
	if !r.allProfiles {
		if r.profile == nil {
			return panelStyle.Width(w).Render(mutedStyle.Render("No profile selected. Press 3 to create one."))
		}
		scope = r.profile.Name
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Weekly Report"), "  ", highlightStyle.Render(scope),
	)

	if len(r.weeks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  No completed entries yet"), "", r.hint(),
		))
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderSummaryTable(w), "", r.hint(),
		),
	)
}

func (r reportsModel) hint() string {
	if r.allProfiles {
		return mutedStyle.Render("  a: current profile only")
	}
	return mutedStyle.Render("  a: all profiles")
}

func (r reportsModel) renderSummaryTable(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-9s %-25s %10s %7s %8s", "Week", "Range", "Total", "Hours", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 63))))

	for _, s := range r.weeks {
		span := s.Start.Local().Format("02.01.06") + " - " + s.End.Local().Format("02.01.06")
		rows = append(rows, fmt.Sprintf("  %d-%s %-25s %10s %7s %8d",
			s.Year, weekLabel(s), span, format.Duration(s.TotalSeconds), format.Hours(s.TotalSeconds), s.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}
