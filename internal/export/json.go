package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/store"
)

type jsonEntry struct {
	ID          int64   `json:"id"`
	ProfileID   int64   `json:"profile_id"`
	Profile     string  `json:"profile"`
	ProjectID   *int64  `json:"project_id"`
	Project     *string `json:"project"`
	StartTS     int64   `json:"start_ts"`
	EndTS       *int64  `json:"end_ts"`
	DurationSec int64   `json:"duration_sec"`
	Note        string  `json:"note"`
	Tags        string  `json:"tags"`
}

// WriteJSON writes entries as an indented JSON array with epoch timestamps.
func WriteJSON(w io.Writer, rows []store.EntryRow, now time.Time) error {
	out := make([]jsonEntry, 0, len(rows))
	for _, r := range rows {
		e := jsonEntry{
			ID:          r.ID,
			ProfileID:   r.ProfileID,
			Profile:     r.ProfileName,
			ProjectID:   r.ProjectID,
			StartTS:     r.Start.Unix(),
			DurationSec: int64(progress.EntryDuration(r.TimeEntry, now) / time.Second),
			Note:        r.Note,
			Tags:        r.Tags,
		}
		if r.ProjectName != "" {
			name := r.ProjectName
			e.Project = &name
		}
		if r.End != nil {
			end := r.End.Unix()
			e.EndTS = &end
		}
		out = append(out, e)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func ToJSON(path string, rows []store.EntryRow, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, rows, now); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return f.Close()
}
