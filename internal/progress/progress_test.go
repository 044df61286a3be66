package progress

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/solia/internal/store"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.Local)
}

func done(start, end time.Time) store.TimeEntry {
	return store.TimeEntry{Start: start, End: &end}
}

func running(start time.Time) store.TimeEntry {
	return store.TimeEntry{Start: start}
}

func target(secs int64) *int64 { return &secs }

func TestElapsedTodayClipsAtMidnight(t *testing.T) {
	// 22:00 yesterday until 02:00 today, now 10:00: only two hours count.
	entries := []store.TimeEntry{done(at(12, 22, 0), at(13, 2, 0))}
	assert.Equal(t, 2*time.Hour, ElapsedToday(entries, at(13, 10, 0)))
}

func TestElapsedTodayRunningFromYesterday(t *testing.T) {
	entries := []store.TimeEntry{running(at(12, 23, 0))}
	assert.Equal(t, 90*time.Minute, ElapsedToday(entries, at(13, 1, 30)))
}

func TestElapsedTodaySumsAllEntries(t *testing.T) {
	now := at(13, 17, 0)
	entries := []store.TimeEntry{
		done(at(13, 8, 0), at(13, 9, 0)),
		done(at(13, 10, 0), at(13, 10, 30)),
		running(at(13, 16, 45)),
		done(at(11, 9, 0), at(11, 17, 0)),
	}
	assert.Equal(t, time.Hour+30*time.Minute+15*time.Minute, ElapsedToday(entries, now))
}

func TestElapsedTodaySkipsInvalid(t *testing.T) {
	now := at(13, 12, 0)
	entries := []store.TimeEntry{
		{},                                 // no start
		done(at(13, 11, 0), at(13, 10, 0)), // end before start
		running(at(13, 13, 0)),             // starts after now
	}
	assert.Zero(t, ElapsedToday(entries, now))
	assert.Zero(t, ElapsedTotal(entries, now))
}

func TestElapsedTodayIgnoresSubSecondNow(t *testing.T) {
	now := at(13, 12, 0).Add(500 * time.Millisecond)
	entries := []store.TimeEntry{running(at(13, 11, 0))}
	assert.Equal(t, time.Hour, ElapsedToday(entries, now))
	assert.Equal(t, time.Hour, EntryDuration(entries[0], now))
}

func TestElapsedTotalDoesNotClip(t *testing.T) {
	entries := []store.TimeEntry{
		done(at(12, 22, 0), at(13, 2, 0)),
		running(at(13, 9, 0)),
	}
	assert.Equal(t, 5*time.Hour, ElapsedTotal(entries, at(13, 10, 0)))
}

func TestEntryDuration(t *testing.T) {
	now := at(13, 12, 0)
	assert.Equal(t, 3*time.Hour, EntryDuration(running(at(13, 9, 0)), now))
	assert.Equal(t, 45*time.Minute, EntryDuration(done(at(13, 9, 0), at(13, 9, 45)), now))
	assert.Zero(t, EntryDuration(done(at(13, 9, 0), at(13, 8, 0)), now))
	assert.Zero(t, EntryDuration(store.TimeEntry{}, now))
}

func TestRatio(t *testing.T) {
	assert.Zero(t, Ratio(time.Hour, nil))
	assert.Zero(t, Ratio(time.Hour, target(0)))
	assert.Zero(t, Ratio(time.Hour, target(-5)))
	assert.InDelta(t, 0.5, Ratio(time.Hour, target(7200)), 1e-9)
	assert.Equal(t, 1.0, Ratio(3*time.Hour, target(3600)))
}

func TestPercentRoundsUp(t *testing.T) {
	cases := []struct {
		ratio float64
		want  int
	}{
		{0, 0},
		{0.001, 1},
		{0.125, 13},
		{0.07, 7},
		{0.5, 50},
		{0.999, 100},
		{1, 100},
		{1.5, 100},
		{-0.2, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Percent(c.ratio), "ratio %v", c.ratio)
	}
}

func TestSnapshotAcmeScenario(t *testing.T) {
	t0 := at(13, 9, 0)
	entries := []store.TimeEntry{done(t0, t0.Add(3600*time.Second))}

	p := Snapshot(entries, t0.Add(2*time.Hour), target(8*3600))
	require.Equal(t, time.Hour, p.Today)
	assert.Equal(t, time.Hour, p.Total)
	assert.InDelta(t, 0.125, p.Ratio, 1e-9)
	assert.Equal(t, 13, p.Percent)
	assert.Equal(t, 7*time.Hour, p.Remaining())
}

func TestSnapshotWithoutTarget(t *testing.T) {
	p := Snapshot([]store.TimeEntry{running(at(13, 9, 0))}, at(13, 10, 0), nil)
	assert.Equal(t, time.Hour, p.Today)
	assert.Zero(t, p.Ratio)
	assert.Zero(t, p.Percent)
	assert.Zero(t, p.Remaining())
}

func TestRemainingHugeTarget(t *testing.T) {
	p := Progress{Today: time.Hour, Target: target(math.MaxInt64 / 3600)}
	assert.Equal(t, time.Duration(math.MaxInt64)-time.Hour, p.Remaining())
	assert.Positive(t, p.Remaining())
}

func TestStartOfDay(t *testing.T) {
	assert.True(t, at(13, 0, 0).Equal(StartOfDay(at(13, 17, 42))))
}
