package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/solia/internal/store"
)

var testNow = time.Date(2024, 3, 13, 17, 0, 0, 0, time.Local)

func sampleRows() []store.EntryRow {
	start1 := time.Date(2024, 3, 13, 9, 5, 0, 0, time.Local)
	end1 := start1.Add(time.Hour)
	start2 := time.Date(2024, 3, 13, 11, 0, 0, 0, time.Local)
	end2 := start2.Add(30 * time.Minute)
	pid := int64(4)

	return []store.EntryRow{
		{
			TimeEntry:   store.TimeEntry{ID: 3, ProfileID: 1, Start: testNow.Add(-10 * time.Minute)},
			ProfileName: "Acme",
		},
		{
			TimeEntry:   store.TimeEntry{ID: 2, ProfileID: 2, ProjectID: &pid, Start: start2, End: &end2, Tags: "call"},
			ProfileName: "Globex",
			ProjectName: "Relaunch",
		},
		{
			TimeEntry:   store.TimeEntry{ID: 1, ProfileID: 1, Start: start1, End: &end1, Note: "worked on feature", Tags: "dev,api"},
			ProfileName: "Acme",
		},
	}
}

type fakeSource struct {
	rows   []store.EntryRow
	filter store.EntryFilter
}

func (f *fakeSource) ListEntries(filter store.EntryFilter) ([]store.EntryRow, error) {
	f.filter = filter
	return f.rows, nil
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows(), testNow); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records := readCSV(t, buf.Bytes())

	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	expectedHeader := []string{"profile", "project", "start", "end", "duration", "note", "tags"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[3]
	want := []string{"Acme", "—", "[13.03.24] - 09:05", "[13.03.24] - 10:05", "01:00:00", "worked on feature", "dev,api"}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}

	if records[2][1] != "Relaunch" || records[2][4] != "00:30:00" {
		t.Fatalf("unexpected project row: %v", records[2])
	}

	running := records[1]
	if running[3] != "—" {
		t.Fatalf("running entry should have no end, got %q", running[3])
	}
	if running[4] != "00:10:00" {
		t.Fatalf("running entry should be measured up to now, got %q", running[4])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, testNow); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, buf.Bytes()); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestWriteCSVNegativeDuration(t *testing.T) {
	start := testNow
	end := start.Add(-time.Hour)
	rows := []store.EntryRow{{TimeEntry: store.TimeEntry{Start: start, End: &end}, ProfileName: "Acme"}}

	var buf bytes.Buffer
	WriteCSV(&buf, rows, testNow)
	if got := readCSV(t, buf.Bytes())[1][4]; got != "00:00:00" {
		t.Fatalf("negative duration should clamp, got %q", got)
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	end := testNow
	rows := []store.EntryRow{{
		TimeEntry:   store.TimeEntry{Start: testNow.Add(-time.Minute), End: &end, Note: `notes with "quotes" and, commas`},
		ProfileName: `Acme "Special"`,
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, testNow); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, buf.Bytes())
	if records[1][0] != `Acme "Special"` {
		t.Fatalf("profile name mangled: %q", records[1][0])
	}
	if records[1][5] != `notes with "quotes" and, commas` {
		t.Fatalf("note mangled: %q", records[1][5])
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV("/nonexistent/dir/file.csv", nil, testNow); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRows(), testNow); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var result []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("entries = %d, want 3", len(result))
	}

	keys := []string{"id", "profile_id", "profile", "project_id", "project", "start_ts", "end_ts", "duration_sec", "note", "tags"}
	for _, k := range keys {
		if _, ok := result[0][k]; !ok {
			t.Fatalf("missing key %q", k)
		}
	}

	running := result[0]
	if running["end_ts"] != nil || running["project"] != nil || running["project_id"] != nil {
		t.Fatalf("running entry without project should have nulls: %v", running)
	}
	if running["duration_sec"] != float64(600) {
		t.Fatalf("duration_sec = %v, want 600", running["duration_sec"])
	}

	withProject := result[1]
	if withProject["project"] != "Relaunch" || withProject["project_id"] != float64(4) {
		t.Fatalf("unexpected project fields: %v", withProject)
	}

	done := result[2]
	start := time.Date(2024, 3, 13, 9, 5, 0, 0, time.Local)
	if done["start_ts"] != float64(start.Unix()) || done["end_ts"] != float64(start.Add(time.Hour).Unix()) {
		t.Fatalf("unexpected timestamps: %v", done)
	}
	if done["duration_sec"] != float64(3600) || done["note"] != "worked on feature" {
		t.Fatalf("unexpected entry: %v", done)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, testNow); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty export should be [], got %q", buf.String())
	}
}

func TestWriteJSONPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, sampleRows(), testNow)
	if !strings.Contains(buf.String(), "\n  {") {
		t.Fatal("JSON should be indented with two spaces")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON("/nonexistent/dir/file.json", nil, testNow); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportToFile(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	pid := int64(1)
	path := filepath.Join(t.TempDir(), "out.csv")

	n, err := Export(src, CSV, path, store.EntryFilter{ProfileID: &pid}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if src.filter.ProfileID == nil || *src.filter.ProfileID != 1 {
		t.Fatal("filter should be passed to the source")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(readCSV(t, data)) != 4 {
		t.Fatal("expected header and 3 rows in file")
	}
}

func TestWriteJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, &fakeSource{rows: sampleRows()}, JSON, store.EntryFilter{}, testNow)
	if err != nil || n != 3 {
		t.Fatalf("Write: %d, %v", n, err)
	}
	if !strings.HasPrefix(buf.String(), "[") {
		t.Fatalf("expected a JSON array, got %q", buf.String())
	}
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(&fakeSource{}, Format("xml"), filepath.Join(t.TempDir(), "x"), store.EntryFilter{}, testNow)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" JSON "); err != nil || f != JSON {
		t.Fatalf("ParseFormat: %v, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatal("expected error for xlsx")
	}
}

func TestDefaultFileName(t *testing.T) {
	if got := DefaultFileName(CSV, testNow); got != "solia-export-20240313-170000.csv" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestExportFromStore(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	p, _ := s.CreateProfile(store.ProfileInput{Name: "Acme"})
	start := testNow.Add(-2 * time.Hour)
	end := start.Add(time.Hour)
	if _, err := s.CreateEntry(store.EntryInput{ProfileID: p.ID, Start: start, End: &end, Note: "a, b"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := Write(&buf, s, CSV, store.EntryFilter{}, testNow); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, buf.Bytes())
	if len(records) != 2 || records[1][0] != "Acme" || records[1][5] != "a, b" {
		t.Fatalf("unexpected export: %v", records)
	}
}
