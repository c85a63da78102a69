package logstore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

// ErrParse wraps malformed persisted lines; the returned error always names
// the offending line number.
var ErrParse = errors.New("malformed log record")

// Store persists grievance records as newline-delimited JSON, one record per
// line, each line independently parseable. Records are append-only and never
// mutated. The mutex serializes goroutines within this process; cross-process
// writers are not coordinated, which is an accepted deployment limitation of
// the single-process server.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by the given JSONL file path. The file is
// created lazily on first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path reports the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Append serializes one record and appends it as a single line. Parent
// directories are created if absent. The record is written as one complete
// unit so a reader never observes a partial entry.
func (s *Store) Append(record grievance.Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// ReadRecent returns the last n records in append order. A missing file is
// an empty result, not an error. When n exceeds the total count every record
// is returned.
func (s *Store) ReadRecent(n int) ([]grievance.Record, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n < len(records) {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Statistics scans every record once and aggregates totals by department,
// severity, input channel and location presence. An empty or absent log
// yields a zero total with no per-category maps.
func (s *Store) Statistics() (grievance.Stats, error) {
	stats := grievance.Stats{}

	err := s.scan(func(_ int, record grievance.Record) {
		stats.Total++
		if stats.Departments == nil {
			stats.Departments = make(map[grievance.Department]int)
			stats.Severities = make(map[grievance.Severity]int)
		}
		stats.Departments[record.Output.Department]++
		stats.Severities[record.Output.Severity]++
		if record.Metadata.VoiceInput {
			stats.VoiceInputs++
		}
		if record.Metadata.HasLocation {
			stats.WithLocation++
		}
	})
	if err != nil {
		return grievance.Stats{}, err
	}
	return stats, nil
}

func (s *Store) readAll() ([]grievance.Record, error) {
	var records []grievance.Record
	err := s.scan(func(_ int, record grievance.Record) {
		records = append(records, record)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// scan streams every persisted record through fn in append order. A parse
// failure aborts the whole read: a corrupt log should be surfaced, not
// silently skipped.
func (s *Store) scan(fn func(line int, record grievance.Record)) error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record grievance.Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("%w at line %d: %v", ErrParse, lineNo, err)
		}
		fn(lineNo, record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	return nil
}
