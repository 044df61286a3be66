package cli

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/sadopc/solia/internal/store"
	"github.com/sadopc/solia/internal/tui"
)

var errNoTerminal = errors.New("the interactive UI needs a terminal, see solia --help for commands")

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNoTerminal
	}

	exportDir, err := os.UserHomeDir()
	if err != nil {
		exportDir = "."
	}

	app := tui.NewApp(tui.Options{
		Store:     ctx.Store,
		Timer:     ctx.Timer,
		State:     ctx.State,
		Paths:     ctx.Paths(),
		ExportDir: exportDir,
		Clock:     ctx.Now,
	})
	defer app.Close()

	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

// MigrateCmd reports the step applied while opening the database. Each run
// advances at most one version.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	res := ctx.Store.Migration()
	switch {
	case res.Applied && res.From == 0:
		ctx.printf("Created schema version %d\n", res.To)
	case res.Applied:
		ctx.printf("Migrated schema %d -> %d\n", res.From, res.To)
	default:
		ctx.printf("Schema version %d is up to date\n", res.To)
	}
	if res.Pending() {
		ctx.printf("Version %d is current; run migrate again to continue\n", store.CurrentVersion())
	}
	return nil
}
