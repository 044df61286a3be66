package cli

import (
	"github.com/dustin/go-humanize"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/timer"
)

type StartCmd struct {
	Profile string   `help:"Profile to track." required:""`
	Project string   `help:"Project of that profile."`
	Note    string   `help:"Note for the entry."`
	Tags    []string `help:"Comma-separated tags." sep:","`
}

func (c *StartCmd) Run(ctx *Context) error {
	p, err := ctx.profile(c.Profile)
	if err != nil {
		return err
	}
	req := timer.StartRequest{ProfileID: p.ID, Note: c.Note, Tags: c.Tags}
	if c.Project != "" {
		proj, err := ctx.project(p.ID, c.Project)
		if err != nil {
			return err
		}
		req.ProjectID = &proj.ID
	}

	if _, err := ctx.Timer.Start(req); err != nil {
		return err
	}
	if err := ctx.State.SelectProfile(&p.ID); err != nil {
		return err
	}
	ctx.printf("Started %s at %s\n", p.Name, ctx.Now().Format("15:04"))
	return nil
}

type StopCmd struct{}

func (c *StopCmd) Run(ctx *Context) error {
	stopped, err := ctx.Timer.Stop()
	if err != nil {
		return err
	}
	if !stopped {
		ctx.printf("No timer running\n")
		return nil
	}
	ctx.printf("Stopped at %s\n", ctx.Now().Format("15:04"))
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	now := ctx.Now()
	st, err := ctx.Timer.State()
	if err != nil {
		return err
	}
	if st.Running {
		name := format.Missing
		if p, _ := ctx.Store.GetProfile(st.ProfileID); p != nil {
			name = p.Name
		}
		line := "● " + name
		if st.Note != "" {
			line += " · " + st.Note
		}
		ctx.printf("%s  %s  (started %s)\n", line,
			format.Duration(int64(now.Sub(st.Start).Seconds())),
			humanize.RelTime(st.Start, now, "ago", "from now"))
	} else {
		ctx.printf("No timer running\n")
	}

	p, err := ctx.profile("")
	if err != nil {
		return err
	}
	entries, err := ctx.Store.ListProfileEntries(p.ID)
	if err != nil {
		return err
	}
	snap := progress.Snapshot(entries, now, p.TargetSeconds)
	today := format.Duration(int64(snap.Today.Seconds()))
	if p.TargetSeconds == nil {
		ctx.printf("%s  today %s  total %s\n", p.Name, today, format.Duration(int64(snap.Total.Seconds())))
		return nil
	}
	ctx.printf("%s  today %s of %s (%d%%)  total %s\n", p.Name, today,
		format.HHMM(*p.TargetSeconds), snap.Percent, format.Duration(int64(snap.Total.Seconds())))
	return nil
}
