package cli

import (
	"path/filepath"

	"github.com/sadopc/solia/internal/export"
	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/store"
)

type ExportCmd struct {
	Format  string `help:"Output format." enum:"csv,json" default:"csv"`
	Out     string `help:"Output file. Defaults to a timestamped file in the working directory." type:"path"`
	Profile string `help:"Only entries of this profile."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	f, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	var filter store.EntryFilter
	if c.Profile != "" {
		p, err := ctx.profile(c.Profile)
		if err != nil {
			return err
		}
		filter.ProfileID = &p.ID
	}

	now := ctx.Now()
	path := c.Out
	if path == "" {
		path = filepath.Join(".", export.DefaultFileName(f, now))
	}
	n, err := export.Export(ctx.Store, f, path, filter, now)
	if err != nil {
		return err
	}
	ctx.printf("Exported %d entries to %s\n", n, path)
	return nil
}

type WeeklyCmd struct {
	Profile string `help:"Only entries of this profile. Defaults to all profiles."`
}

func (c *WeeklyCmd) Run(ctx *Context) error {
	var profileID *int64
	if c.Profile != "" {
		p, err := ctx.profile(c.Profile)
		if err != nil {
			return err
		}
		profileID = &p.ID
	}

	weeks, err := ctx.Store.WeeklySummary(profileID)
	if err != nil {
		return err
	}
	if len(weeks) == 0 {
		ctx.printf("No completed entries yet\n")
		return nil
	}

	ctx.printf("%-9s %-19s %10s %7s %8s\n", "Week", "Range", "Total", "Hours", "Entries")
	for _, w := range weeks {
		span := w.Start.Local().Format("02.01.06") + " - " + w.End.Local().Format("02.01.06")
		ctx.printf("%d-W%02d %-19s %10s %7s %8d\n", w.Year, w.Week, span,
			format.Duration(w.TotalSeconds), format.Hours(w.TotalSeconds), w.EntryCount)
	}
	return nil
}
