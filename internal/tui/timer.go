package tui

import (
	"time"

	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/store"
	"github.com/sadopc/solia/internal/timer"
)

// timerModel is the display side of the timer: the last loaded state plus
// the progress figures recomputed on every tick.
type timerModel struct {
	svc *timer.Service

	status      timer.Status
	runningName string // profile of the running entry, may differ from profile
	profile     *store.Profile
	entries     []store.TimeEntry

	now      time.Time
	progress progress.Progress
}

func newTimerModel(svc *timer.Service) timerModel {
	return timerModel{svc: svc}
}

// load replaces the stored state and recomputes progress at now.
func (t *timerModel) load(st timer.Status, runningName string, profile *store.Profile, entries []store.TimeEntry, now time.Time) {
	t.status = st
	t.runningName = runningName
	t.profile = profile
	t.entries = entries
	t.tick(now)
}

func (t *timerModel) tick(now time.Time) {
	t.now = now.Truncate(time.Second)
	var target *int64
	if t.profile != nil {
		target = t.profile.TargetSeconds
	}
	t.progress = progress.Snapshot(t.entries, t.now, target)
}

func (t timerModel) running() bool { return t.status.Running }

// runningHere reports whether the running entry belongs to the current
// profile.
func (t timerModel) runningHere() bool {
	return t.status.Running && t.profile != nil && t.status.ProfileID == t.profile.ID
}

// elapsed is the duration of the running entry, zero when idle.
func (t timerModel) elapsed() time.Duration {
	if !t.status.Running {
		return 0
	}
	return progress.EntryDuration(store.TimeEntry{Start: t.status.Start}, t.now)
}

func (t timerModel) start(req timer.StartRequest) error {
	_, err := t.svc.Start(req)
	return err
}

func (t timerModel) stop() (bool, error) {
	return t.svc.Stop()
}

func (t timerModel) toggle(req timer.StartRequest) (bool, error) {
	id, err := t.svc.Toggle(req)
	return id != 0, err
}
