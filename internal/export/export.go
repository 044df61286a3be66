// Package export writes time entries to CSV or JSON files.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sadopc/solia/internal/store"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext is the file extension used for default file names.
func (f Format) Ext() string { return "." + string(f) }

// Source lists the rows to export.
type Source interface {
	ListEntries(f store.EntryFilter) ([]store.EntryRow, error)
}

// Write renders the filtered entries in the given format.
func Write(w io.Writer, src Source, f Format, filter store.EntryFilter, now time.Time) (int, error) {
	rows, err := src.ListEntries(filter)
	if err != nil {
		return 0, err
	}
	switch f {
	case CSV:
		return len(rows), WriteCSV(w, rows, now)
	case JSON:
		return len(rows), WriteJSON(w, rows, now)
	}
	return 0, fmt.Errorf("unknown export format %q", f)
}

// Export writes the filtered entries to path and returns how many rows
// were written.
func Export(src Source, f Format, path string, filter store.EntryFilter, now time.Time) (int, error) {
	rows, err := src.ListEntries(filter)
	if err != nil {
		return 0, err
	}
	switch f {
	case CSV:
		return len(rows), ToCSV(path, rows, now)
	case JSON:
		return len(rows), ToJSON(path, rows, now)
	}
	return 0, fmt.Errorf("unknown export format %q", f)
}

// DefaultFileName is solia-export-YYYYMMDD-HHMMSS.<ext>.
func DefaultFileName(f Format, now time.Time) string {
	return "solia-export-" + now.Format("20060102-150405") + f.Ext()
}
