package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	primary   lipgloss.Color
	accent    lipgloss.Color
	muted     lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	errColor  lipgloss.Color
	fg        lipgloss.Color
	subtle    lipgloss.Color
	highlight lipgloss.Color
}

var themes = map[string]palette{
	"dark": {
		primary:   "#6C63FF",
		accent:    "#FF6B6B",
		muted:     "#666666",
		success:   "#2ECC71",
		warning:   "#F39C12",
		errColor:  "#E74C3C",
		fg:        "#C0CAF5",
		subtle:    "#414868",
		highlight: "#7AA2F7",
	},
	"light": {
		primary:   "#4B44C9",
		accent:    "#C0392B",
		muted:     "#8A8A8A",
		success:   "#1E8449",
		warning:   "#B9770E",
		errColor:  "#C0392B",
		fg:        "#24283B",
		subtle:    "#C8CCD8",
		highlight: "#2E5CB8",
	},
}

// themeNames lists the selectable themes in display order.
var themeNames = []string{"dark", "light"}

var (
	colorPrimary   lipgloss.Color
	colorSubtle    lipgloss.Color
	colorHighlight lipgloss.Color

	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	timerStyle        lipgloss.Style
	timerRunningStyle lipgloss.Style
	titleStyle        lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
)

func init() {
	applyTheme("dark")
}

// applyTheme rebuilds every style from the named palette. Unknown names
// fall back to dark.
func applyTheme(name string) {
	p, ok := themes[name]
	if !ok {
		p = themes["dark"]
	}

	colorPrimary = p.primary
	colorSubtle = p.subtle
	colorHighlight = p.highlight

	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.primary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(p.primary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(p.muted).
		Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.subtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.primary).
		Padding(1, 2)

	timerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.primary).
		Align(lipgloss.Center)

	timerRunningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.success).
		Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.fg)
	accentStyle = lipgloss.NewStyle().Foreground(p.accent)
	successStyle = lipgloss.NewStyle().Foreground(p.success)
	warningStyle = lipgloss.NewStyle().Foreground(p.warning)
	errorStyle = lipgloss.NewStyle().Foreground(p.errColor)
	mutedStyle = lipgloss.NewStyle().Foreground(p.muted)
	highlightStyle = lipgloss.NewStyle().Foreground(p.highlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(p.muted).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(p.primary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(p.fg)
}

// dot renders a colored bullet for a profile color, muted when unset.
func dot(color string) string {
	if color == "" {
		return mutedStyle.Render("●")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
