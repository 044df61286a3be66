package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/solia/internal/format"
	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/store"
)

var csvHeader = []string{"profile", "project", "start", "end", "duration", "note", "tags"}

// WriteCSV writes one row per entry. Running entries are measured up to now.
func WriteCSV(w io.Writer, rows []store.EntryRow, now time.Time) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rows {
		project := r.ProjectName
		if project == "" {
			project = format.Missing
		}
		end := format.Missing
		if r.End != nil {
			end = format.ExportStamp(*r.End)
		}
		dur := progress.EntryDuration(r.TimeEntry, now)

		record := []string{
			r.ProfileName,
			project,
			format.ExportStamp(r.Start),
			end,
			format.Duration(int64(dur / time.Second)),
			r.Note,
			r.Tags,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ToCSV(path string, rows []store.EntryRow, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows, now); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
