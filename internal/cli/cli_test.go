package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/solia/internal/logger"
	"github.com/sadopc/solia/internal/state"
	"github.com/sadopc/solia/internal/store"
	"github.com/sadopc/solia/internal/timer"
)

type testEnv struct {
	ctx *Context
	out *bytes.Buffer
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	dir := t.TempDir()
	env := &testEnv{out: &bytes.Buffer{}, now: time.Date(2024, 3, 13, 12, 0, 0, 0, time.Local)}
	clock := func() time.Time { return env.now }
	bus := state.NewBus()

	env.ctx = &Context{
		DataDir: dir,
		Store:   s,
		State:   state.New(s, state.NewSettingsStore(state.SettingsPath(dir), logger.Discard()), bus),
		Timer: timer.New(s,
			timer.WithClock(clock),
			timer.WithNotifier(bus),
			timer.WithEventLog(timer.NewEventLog(timer.LogPath(dir), logger.Discard())),
			timer.WithLogger(logger.Discard()),
		),
		Out: env.out,
		Now: clock,
	}
	return env
}

func (e *testEnv) addProfile(t *testing.T, name, target string) {
	t.Helper()
	require.NoError(t, (&ProfileAddCmd{Name: name, Target: target, Color: "#6C63FF"}).Run(e.ctx))
}

func (e *testEnv) output() string {
	s := e.out.String()
	e.out.Reset()
	return s
}

func TestProfileAddAndList(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "8:00")
	env.addProfile(t, "Globex", "")
	assert.Contains(t, env.output(), "Created profile Globex")

	// the first profile becomes current
	require.NoError(t, (&ProfileListCmd{}).Run(env.ctx))
	lines := strings.Split(strings.TrimSpace(env.output()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "* Acme"))
	assert.Contains(t, lines[0], "08:00")
	assert.True(t, strings.HasPrefix(lines[1], "  Globex"))
}

func TestProfileAddRejectsBadTarget(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{"8:75", "+8", "9999999999999999"} {
		err := (&ProfileAddCmd{Name: "Acme", Target: target}).Run(env.ctx)
		assert.ErrorIs(t, err, errBadTarget, target)
	}
}

func TestProfileAddDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "")
	err := (&ProfileAddCmd{Name: "Acme"}).Run(env.ctx)
	assert.ErrorIs(t, err, store.ErrConstraint)
}

func TestProfileListArchived(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "")
	p, err := env.ctx.Store.GetProfileByName("Acme")
	require.NoError(t, err)
	require.NoError(t, env.ctx.Store.SetProfileArchived(p.ID, true))
	env.output()

	require.NoError(t, (&ProfileListCmd{}).Run(env.ctx))
	assert.Equal(t, "No profiles\n", env.output())

	require.NoError(t, (&ProfileListCmd{All: true}).Run(env.ctx))
	assert.Contains(t, env.output(), "archived")
}

func TestStartStop(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "")
	env.output()

	require.NoError(t, (&StartCmd{Profile: "Acme", Note: "standup", Tags: []string{"meeting", "daily"}}).Run(env.ctx))
	assert.Equal(t, "Started Acme at 12:00\n", env.output())

	active, err := env.ctx.Store.GetActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "standup", active.Note)
	assert.Equal(t, "meeting,daily", active.Tags)

	env.now = env.now.Add(30 * time.Minute)
	require.NoError(t, (&StopCmd{}).Run(env.ctx))
	assert.Equal(t, "Stopped at 12:30\n", env.output())

	require.NoError(t, (&StopCmd{}).Run(env.ctx))
	assert.Equal(t, "No timer running\n", env.output())
}

func TestStartSwitchesProfile(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "")
	env.addProfile(t, "Globex", "")

	require.NoError(t, (&StartCmd{Profile: "Acme"}).Run(env.ctx))
	env.now = env.now.Add(10 * time.Minute)
	require.NoError(t, (&StartCmd{Profile: "Globex"}).Run(env.ctx))

	n, err := env.ctx.Store.CountActiveEntries()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	globex, _ := env.ctx.Store.GetProfileByName("Globex")
	require.NotNil(t, env.ctx.State.CurrentProfileID())
	assert.Equal(t, globex.ID, *env.ctx.State.CurrentProfileID())
}

func TestStartUnknownProfileAndProject(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, (&StartCmd{Profile: "Nobody"}).Run(env.ctx), ErrProfileNotFound)

	env.addProfile(t, "Acme", "")
	assert.ErrorIs(t, (&StartCmd{Profile: "Acme", Project: "Relaunch"}).Run(env.ctx), ErrProjectNotFound)
}

func TestStartWithProject(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "")
	p, _ := env.ctx.Store.GetProfileByName("Acme")
	proj, err := env.ctx.Store.CreateProject(store.ProjectInput{ProfileID: p.ID, Name: "Relaunch"})
	require.NoError(t, err)

	require.NoError(t, (&StartCmd{Profile: "Acme", Project: "relaunch"}).Run(env.ctx))
	active, _ := env.ctx.Store.GetActiveEntry()
	require.NotNil(t, active.ProjectID)
	assert.Equal(t, proj.ID, *active.ProjectID)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "8:00")
	p, _ := env.ctx.Store.GetProfileByName("Acme")
	end := env.now.Add(-2 * time.Hour)
	_, err := env.ctx.Store.CreateEntry(store.EntryInput{ProfileID: p.ID, Start: end.Add(-time.Hour), End: &end})
	require.NoError(t, err)
	env.output()

	require.NoError(t, (&StatusCmd{}).Run(env.ctx))
	out := env.output()
	assert.Contains(t, out, "No timer running")
	assert.Contains(t, out, "Acme  today 01:00:00 of 08:00 (13%)")

	require.NoError(t, (&StartCmd{Profile: "Acme", Note: "review"}).Run(env.ctx))
	env.now = env.now.Add(3 * time.Minute)
	env.output()

	require.NoError(t, (&StatusCmd{}).Run(env.ctx))
	out = env.output()
	assert.Contains(t, out, "● Acme · review  00:03:00  (started 3 minutes ago)")
	assert.Contains(t, out, "today 01:03:00")
}

func TestStatusWithoutProfile(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, (&StatusCmd{}).Run(env.ctx), ErrNoProfile)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "Acme", "")
	env.addProfile(t, "Globex", "")
	for _, name := range []string{"Acme", "Globex"} {
		p, _ := env.ctx.Store.GetProfileByName(name)
		end := env.now.Add(-time.Hour)
		_, err := env.ctx.Store.CreateEntry(store.EntryInput{ProfileID: p.ID, Start: end.Add(-time.Hour), End: &end})
		require.NoError(t, err)
	}
	env.output()

	out := filepath.Join(t.TempDir(), "all.csv")
	require.NoError(t, (&ExportCmd{Format: "csv", Out: out}).Run(env.ctx))
	assert.Equal(t, "Exported 2 entries to "+out+"\n", env.output())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	out = filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, (&ExportCmd{Format: "json", Out: out, Profile: "Acme"}).Run(env.ctx))
	assert.Contains(t, env.output(), "Exported 1 entries")
}

func TestExportBadFormat(t *testing.T) {
	env := newTestEnv(t)
	assert.Error(t, (&ExportCmd{Format: "xml"}).Run(env.ctx))
}

func TestWeekly(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&WeeklyCmd{}).Run(env.ctx))
	assert.Equal(t, "No completed entries yet\n", env.output())

	env.addProfile(t, "Acme", "")
	p, _ := env.ctx.Store.GetProfileByName("Acme")
	end := env.now.Add(-time.Hour)
	_, err := env.ctx.Store.CreateEntry(store.EntryInput{ProfileID: p.ID, Start: end.Add(-2 * time.Hour), End: &end})
	require.NoError(t, err)
	env.output()

	require.NoError(t, (&WeeklyCmd{Profile: "Acme"}).Run(env.ctx))
	out := env.output()
	assert.Contains(t, out, "2024-W11")
	assert.Contains(t, out, "02:00:00")
	assert.Contains(t, out, "2.0h")
}

func TestMigrateReportsFreshSchema(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&MigrateCmd{}).Run(env.ctx))
	assert.Equal(t, "Created schema version 5\n", env.output())
}

func TestPaths(t *testing.T) {
	env := newTestEnv(t)
	paths := env.ctx.Paths()
	assert.Equal(t, store.DBPath(env.ctx.DataDir), paths.Database)
	assert.Equal(t, timer.LogPath(env.ctx.DataDir), paths.EventLog)
	assert.Equal(t, logger.LogFile(env.ctx.DataDir), paths.DebugLog)
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	ctx, err := Setup(Config{DataDir: dir})
	require.NoError(t, err)
	defer ctx.Close()

	_, err = os.Stat(store.DBPath(dir))
	assert.NoError(t, err)
	assert.Equal(t, store.CurrentVersion(), ctx.Store.Migration().To)
}
