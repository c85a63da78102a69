package logstore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "logs", "grievance_outputs.jsonl"))
}

func sampleRecord(department grievance.Department, severity grievance.Severity, location string, voice bool) grievance.Record {
	return grievance.NewRecord("paani nahi aa raha", grievance.Output{
		Department:  department,
		Severity:    severity,
		Location:    location,
		Description: "No water supply since morning.",
		Summary:     "No water supply",
	}, grievance.Metadata{
		UserID:     "user_123",
		SessionID:  "session_456",
		VoiceInput: voice,
	})
}

func TestAppendThenReadRecentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := sampleRecord(grievance.DepartmentWater, grievance.SeverityHigh, "Charni Road", false)

	if err := store.Append(want); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	records, err := store.ReadRecent(1)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp mismatch: got %v, want %v", got.Timestamp, want.Timestamp)
	}
	if got.UserInput != want.UserInput {
		t.Errorf("user_input mismatch: got %q, want %q", got.UserInput, want.UserInput)
	}
	if got.Output != want.Output {
		t.Errorf("output mismatch: got %+v, want %+v", got.Output, want.Output)
	}
	if got.Metadata.UserID != want.Metadata.UserID ||
		got.Metadata.SessionID != want.Metadata.SessionID ||
		got.Metadata.VoiceInput != want.Metadata.VoiceInput ||
		got.Metadata.InputLength != want.Metadata.InputLength ||
		got.Metadata.HasLocation != want.Metadata.HasLocation {
		t.Errorf("metadata mismatch: got %+v, want %+v", got.Metadata, want.Metadata)
	}
}

func TestReadRecentReturnsLastNInOrder(t *testing.T) {
	store := newTestStore(t)

	first := sampleRecord(grievance.DepartmentWater, grievance.SeverityLow, "", false)
	second := sampleRecord(grievance.DepartmentWaste, grievance.SeverityMedium, "Kurla", true)
	third := sampleRecord(grievance.DepartmentRoad, grievance.SeverityHigh, "", false)
	for _, record := range []grievance.Record{first, second, third} {
		if err := store.Append(record); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	records, err := store.ReadRecent(2)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Output.Department != grievance.DepartmentWaste ||
		records[1].Output.Department != grievance.DepartmentRoad {
		t.Fatalf("records out of append order: %s then %s",
			records[0].Output.Department, records[1].Output.Department)
	}

	// Asking for more than exists returns everything.
	all, err := store.ReadRecent(100)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 records, got %d", len(all))
	}
}

func TestReadRecentMissingFile(t *testing.T) {
	store := newTestStore(t)

	records, err := store.ReadRecent(5)
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d records", len(records))
	}
}

func TestMalformedLineFailsWithLineNumber(t *testing.T) {
	store := newTestStore(t)
	if err := store.Append(sampleRecord(grievance.DepartmentRoad, grievance.SeverityLow, "", false)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	f, err := os.OpenFile(store.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("{not json}\n"); err != nil {
		t.Fatalf("corrupt log: %v", err)
	}
	f.Close()

	_, err = store.ReadRecent(10)
	if err == nil {
		t.Fatal("expected parse error for corrupt line")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected error to name line 2, got %v", err)
	}
}

func TestStatisticsEmptyLog(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Statistics()
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected total 0, got %d", stats.Total)
	}
	if stats.Departments != nil || stats.Severities != nil {
		t.Fatalf("expected no per-category maps on empty log, got %+v", stats)
	}
}

func TestStatisticsAggregatesAndIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	for _, record := range []grievance.Record{
		sampleRecord(grievance.DepartmentWater, grievance.SeverityHigh, "Bhandup", true),
		sampleRecord(grievance.DepartmentWater, grievance.SeverityLow, "", false),
		sampleRecord(grievance.DepartmentWaste, grievance.SeverityCritical, "Kurla", true),
	} {
		if err := store.Append(record); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	stats, err := store.Statistics()
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.Departments[grievance.DepartmentWater] != 2 ||
		stats.Departments[grievance.DepartmentWaste] != 1 {
		t.Errorf("department counts wrong: %+v", stats.Departments)
	}
	if stats.Severities[grievance.SeverityHigh] != 1 ||
		stats.Severities[grievance.SeverityLow] != 1 ||
		stats.Severities[grievance.SeverityCritical] != 1 {
		t.Errorf("severity counts wrong: %+v", stats.Severities)
	}
	if stats.VoiceInputs != 2 {
		t.Errorf("expected 2 voice inputs, got %d", stats.VoiceInputs)
	}
	if stats.WithLocation != 2 {
		t.Errorf("expected 2 located records, got %d", stats.WithLocation)
	}

	again, err := store.Statistics()
	if err != nil {
		t.Fatalf("second statistics call failed: %v", err)
	}
	if !reflect.DeepEqual(stats, again) {
		t.Fatalf("statistics not idempotent: %+v vs %+v", stats, again)
	}
}
