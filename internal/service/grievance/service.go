package grievance

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/analysis/category"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/logstore"
	grievancemodel "github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

// FastModelName identifies the keyword fallback in response envelopes.
const FastModelName = "fast_keyword_matcher"

var (
	// ErrNoText rejects requests with an empty complaint body before any
	// side effect happens.
	ErrNoText = errors.New("no text provided")
	// ErrModelUnavailable is returned for operations that need the
	// text-generation backend when none is configured.
	ErrModelUnavailable = errors.New("no model backend configured")
)

// ModelBackend abstracts the text-generation adapter so the intake pipeline
// works with or without a configured model.
type ModelBackend interface {
	Categorize(ctx context.Context, text, instruction string) (grievancemodel.Output, string, error)
	GenerateResponse(ctx context.Context, text string) (string, error)
	ModelName() string
}

// Request is one complaint submission with its processing flags.
type Request struct {
	Text        string
	Instruction string
	FastMode    bool
	UserID      string
	SessionID   string
	VoiceInput  bool
	Extra       map[string]any
}

// Result carries the structured output plus the record that was appended to
// the event log.
type Result struct {
	Output    grievancemodel.Output
	RawOutput string
	ModelUsed string
	Record    grievancemodel.Record
}

// Service owns the categorization pipeline: classifier or model backend in
// front, append-only event log behind. It is injected into HTTP handlers
// rather than accessed as ambient state.
type Service struct {
	store   *logstore.Store
	backend ModelBackend
}

// NewService wires the intake pipeline. backend may be nil, in which case
// every request takes the keyword fast path.
func NewService(store *logstore.Store, backend ModelBackend) *Service {
	return &Service{store: store, backend: backend}
}

// ModelAvailable reports whether the text-generation backend is configured.
func (s *Service) ModelAvailable() bool {
	return s.backend != nil
}

// Process categorizes one complaint and appends the resulting record to the
// event log. The fast path is taken when requested or when no model backend
// is configured.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	if req.Text == "" {
		return Result{}, ErrNoText
	}

	var (
		output    grievancemodel.Output
		rawOutput string
		modelUsed string
	)

	if req.FastMode || s.backend == nil {
		output = category.Classify(req.Text)
		rawOutput = formatAnalysis(output)
		modelUsed = FastModelName
	} else {
		var err error
		output, rawOutput, err = s.backend.Categorize(ctx, req.Text, req.Instruction)
		if err != nil {
			return Result{}, err
		}
		modelUsed = s.backend.ModelName()
	}

	record := grievancemodel.NewRecord(req.Text, output, grievancemodel.Metadata{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		VoiceInput: req.VoiceInput,
		Extra:      req.Extra,
	})

	if err := s.store.Append(record); err != nil {
		return Result{}, fmt.Errorf("log grievance: %w", err)
	}
	log.Printf("[intake] logged grievance, department=%s, severity=%s, voice=%t",
		output.Department, output.Severity, req.VoiceInput)

	return Result{
		Output:    output,
		RawOutput: rawOutput,
		ModelUsed: modelUsed,
		Record:    record,
	}, nil
}

// Respond generates a free-text reply to a grievance via the model backend.
func (s *Service) Respond(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", ErrNoText
	}
	if s.backend == nil {
		return "", ErrModelUnavailable
	}
	return s.backend.GenerateResponse(ctx, text)
}

// Recent returns the last n records from the event log in append order.
func (s *Service) Recent(n int) ([]grievancemodel.Record, error) {
	return s.store.ReadRecent(n)
}

// Statistics aggregates the whole event log.
func (s *Service) Statistics() (grievancemodel.Stats, error) {
	return s.store.Statistics()
}

// formatAnalysis renders the fast-path output in the same labelled block the
// model backend produces, so both paths return comparable raw text.
func formatAnalysis(output grievancemodel.Output) string {
	return fmt.Sprintf("Department: %s\nSeverity: %s\nLocation: %s\nDescription: %s\nSummary: %s",
		output.Department, output.Severity, output.Location, output.Description, output.Summary)
}
