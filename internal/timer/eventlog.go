package timer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	EventStart = "START"
	EventStop  = "STOP"
)

// EventLog appends one line per timer transition to a plain text file:
//
//	EVENT,epoch,profile_id,profile_name,note
//
// The file is opened and closed for every line. Writing is best effort.
type EventLog struct {
	path   string
	logger *log.Logger
}

// LogPath returns the event log location inside dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, "solia.log")
}

func NewEventLog(path string, logger *log.Logger) *EventLog {
	return &EventLog{path: path, logger: logger}
}

func (l *EventLog) Path() string { return l.path }

// Append writes a line. Failures are reported on the debug logger only.
func (l *EventLog) Append(event string, at time.Time, profileID int64, profileName, note string) {
	if l == nil || l.path == "" {
		return
	}
	line := fmt.Sprintf("%s,%d,%d,%s,%s\n", event, at.Unix(), profileID, sanitize(profileName), sanitize(note))
	if err := l.write(line); err != nil && l.logger != nil {
		l.logger.Debug("event log write failed", "path", l.path, "err", err)
	}
}

func (l *EventLog) write(line string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var fieldReplacer = strings.NewReplacer(",", " ", "\n", " ", "\r", " ")

// sanitize keeps a free text field on one line and inside its column.
func sanitize(s string) string {
	return fieldReplacer.Replace(s)
}
