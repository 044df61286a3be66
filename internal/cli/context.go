// Package cli holds the command-line commands. main parses flags with kong
// and hands every command a Context.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sadopc/solia/internal/logger"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
	"github.com/sadopc/solia/internal/timer"
	"github.com/sadopc/solia/internal/tui"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrNoProfile       = errors.New("no profile yet, create one with: solia profile add NAME")
)

// Config is what main passes to Setup.
type Config struct {
	DataDir string
	Debug   bool
	// Interactive is set for the TUI, which owns the terminal.
	Interactive bool
}

type Context struct {
	DataDir string
	Store   *store.Store
	State   *state.State
	Timer   *timer.Service
	Out     io.Writer
	Now     func() time.Time
}

// Setup opens the data directory and wires the core services.
func Setup(cfg Config) (*Context, error) {
	dir := cfg.DataDir
	if dir == "" {
		var err error
		if dir, err = store.DefaultDataDir(); err != nil {
			return nil, err
		}
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: dir, Mirror: !cfg.Interactive}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	s, err := store.Open(store.DBPath(dir))
	if err != nil {
		return nil, err
	}
	if res := s.Migration(); res.Applied {
		logger.Info("schema migrated", "from", res.From, "to", res.To, "pending", res.Pending())
	}

	bus := state.NewBus()
	st := state.New(s, state.NewSettingsStore(state.SettingsPath(dir), logger.Default()), bus)
	svc := timer.New(s,
		timer.WithEventLog(timer.NewEventLog(timer.LogPath(dir), logger.Default())),
		timer.WithNotifier(bus),
		timer.WithLogger(logger.Default()),
	)

	return &Context{
		DataDir: dir,
		Store:   s,
		State:   st,
		Timer:   svc,
		Out:     os.Stdout,
		Now:     time.Now,
	}, nil
}

func (c *Context) Close() error {
	return c.Store.Close()
}

// Paths lists the files the settings view shows.
func (c *Context) Paths() tui.Paths {
	return tui.Paths{
		Database: store.DBPath(c.DataDir),
		Settings: state.SettingsPath(c.DataDir),
		EventLog: timer.LogPath(c.DataDir),
		DebugLog: logger.LogFile(c.DataDir),
	}
}

// profile resolves a profile by name, or the current one when name is empty.
func (c *Context) profile(name string) (*store.Profile, error) {
	if name == "" {
		p, err := c.State.EnsureProfile()
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrNoProfile
		}
		return p, nil
	}
	p, err := c.Store.GetProfileByName(name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

func (c *Context) project(profileID int64, name string) (*store.Project, error) {
	projects, err := c.Store.ListProjects(&profileID)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}
