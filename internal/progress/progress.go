// Package progress computes elapsed time and progress toward a daily target
// from a profile's time entries.
package progress

import (
	"math"
	"time"

	"github.com/sadopc/solia/internal/store"
)

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// EntryDuration is (end or now) minus start in whole seconds, never
// negative.
func EntryDuration(e store.TimeEntry, now time.Time) time.Duration {
	if e.Start.IsZero() {
		return 0
	}
	end := now.Truncate(time.Second)
	if e.End != nil {
		end = *e.End
	}
	if d := end.Sub(e.Start); d > 0 {
		return d
	}
	return 0
}

// ElapsedToday sums the parts of entries that fall between local midnight
// and now. Running entries count up to now.
func ElapsedToday(entries []store.TimeEntry, now time.Time) time.Duration {
	now = now.Truncate(time.Second)
	midnight := StartOfDay(now)
	var total time.Duration
	for _, e := range entries {
		if e.Start.IsZero() {
			continue
		}
		start := e.Start
		end := now
		if e.End != nil {
			end = *e.End
		}
		if start.Before(midnight) {
			start = midnight
		}
		if end.After(now) {
			end = now
		}
		if end.After(start) {
			total += end.Sub(start)
		}
	}
	return total
}

// ElapsedTotal sums every entry without clipping to today.
func ElapsedTotal(entries []store.TimeEntry, now time.Time) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += EntryDuration(e, now)
	}
	return total
}

// Ratio is elapsed over target, clamped to [0, 1]. A missing or
// non-positive target yields 0.
func Ratio(elapsed time.Duration, targetSeconds *int64) float64 {
	if targetSeconds == nil || *targetSeconds <= 0 {
		return 0
	}
	r := elapsed.Seconds() / float64(*targetSeconds)
	return math.Min(math.Max(r, 0), 1)
}

// Percent rounds a ratio up to a whole percent in [0, 100].
func Percent(ratio float64) int {
	p := int(math.Ceil(ratio*100 - 1e-9))
	return min(max(p, 0), 100)
}

// Progress is what the dashboard and the status command show for a profile.
type Progress struct {
	Today   time.Duration
	Total   time.Duration
	Target  *int64
	Ratio   float64
	Percent int
}

// Snapshot computes today's progress for one profile's entries.
func Snapshot(entries []store.TimeEntry, now time.Time, targetSeconds *int64) Progress {
	today := ElapsedToday(entries, now)
	ratio := Ratio(today, targetSeconds)
	return Progress{
		Today:   today,
		Total:   ElapsedTotal(entries, now),
		Target:  targetSeconds,
		Ratio:   ratio,
		Percent: Percent(ratio),
	}
}

// Remaining is the time left until the target is reached, or zero. Targets
// beyond what a time.Duration holds are treated as the largest duration.
func (p Progress) Remaining() time.Duration {
	if p.Target == nil {
		return 0
	}
	if *p.Target > int64(math.MaxInt64/time.Second) {
		return time.Duration(math.MaxInt64) - p.Today
	}
	left := time.Duration(*p.Target)*time.Second - p.Today
	if left < 0 {
		return 0
	}
	return left
}
