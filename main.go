package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/sadopc/solia/internal/cli"
	"github.com/sadopc/solia/internal/logger"
)

var CLI struct {
	DataDir string `help:"Directory holding the database, settings and logs." env:"SOLIA_DATA_DIR" type:"path"`
	Debug   bool   `help:"Write debug logs." env:"SOLIA_DEBUG"`

	Tui     cli.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Start   cli.StartCmd   `cmd:"" help:"Start a timer, stopping any running one."`
	Stop    cli.StopCmd    `cmd:"" help:"Stop the running timer."`
	Status  cli.StatusCmd  `cmd:"" help:"Show the running timer and today's progress."`
	Export  cli.ExportCmd  `cmd:"" help:"Export time entries as CSV or JSON."`
	Weekly  cli.WeeklyCmd  `cmd:"" help:"Show weekly totals."`
	Migrate cli.MigrateCmd `cmd:"" help:"Report the schema version, applying one migration step."`
	Profile struct {
		Add  cli.ProfileAddCmd  `cmd:"" help:"Create a profile."`
		List cli.ProfileListCmd `cmd:"" help:"List profiles."`
	} `cmd:"" help:"Manage profiles."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("solia"),
		kong.Description("Time tracking for freelancers with multiple clients"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
	)

	appCtx, err := cli.Setup(cli.Config{
		DataDir:     CLI.DataDir,
		Debug:       CLI.Debug,
		Interactive: ctx.Command() == "tui",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = ctx.Run(appCtx)
	appCtx.Close()
	if err != nil {
		logger.Error("command failed", "command", ctx.Command(), "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
