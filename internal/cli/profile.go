package cli

import (
	"errors"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/store"
)

var errBadTarget = errors.New("target must be H, HH:MM or HH:MM:SS")

type ProfileAddCmd struct {
	Name   string `arg:"" help:"Profile name."`
	Target string `help:"Daily target, e.g. 8:00."`
	Color  string `help:"Display color." default:"#6C63FF"`
}

func (c *ProfileAddCmd) Run(ctx *Context) error {
	in := store.ProfileInput{Name: c.Name, Color: c.Color}
	if c.Target != "" {
		secs, ok := format.ParseDuration(c.Target)
		if !ok {
			return errBadTarget
		}
		in.TargetSeconds = &secs
	}
	p, err := ctx.Store.CreateProfile(in)
	if err != nil {
		return err
	}
	if _, err := ctx.State.EnsureProfile(); err != nil {
		return err
	}
	ctx.printf("Created profile %s (#%d)\n", p.Name, p.ID)
	return nil
}

type ProfileListCmd struct {
	All bool `help:"Include archived profiles."`
}

func (c *ProfileListCmd) Run(ctx *Context) error {
	profiles, err := ctx.Store.ListProfiles(c.All)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		ctx.printf("No profiles\n")
		return nil
	}

	current := ctx.State.CurrentProfileID()
	for _, p := range profiles {
		mark := " "
		if current != nil && *current == p.ID {
			mark = "*"
		}
		target := format.Missing
		if p.TargetSeconds != nil {
			target = format.HHMM(*p.TargetSeconds)
		}
		line := mark + " " + p.Name
		ctx.printf("%-28s %-6s", line, target)
		if p.Archived {
			ctx.printf("  archived")
		}
		ctx.printf("\n")
	}
	return nil
}
