package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/analysis/category"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/config"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

// ErrUnavailable marks inference failures of the model backend.
var ErrUnavailable = errors.New("inference backend unavailable")

const categorizeSystemPrompt = `You are a municipal grievance triage assistant for an Indian city.
Citizens complain in English, Hindi or Hinglish. Analyze the complaint and answer
with exactly these labelled lines and nothing else:
Department: one of water, waste, road
Severity: one of low, medium, high, critical
Location: the place mentioned, or empty
Description: one or two factual sentences describing the issue
Summary: a single short sentence`

const respondSystemPrompt = `You are a municipal grievance desk officer. Generate a professional and
empathetic response to the citizen's grievance. Acknowledge the issue, state
the responsible department and the next step. Keep it brief.`

// Service wraps the text-generation model behind the two operations the
// intake pipeline needs: structured categorization and reply generation.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt chain against the configured chat model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chain: %w", err)
	}

	return &Service{chatModel: chatModel, cfg: cfg, chain: runnable}, nil
}

// ModelName reports the configured model identifier for response envelopes.
func (s *Service) ModelName() string {
	return s.cfg.Model
}

// StreamingEnabled indicates whether SSE streaming output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Categorize runs the complaint through the model and parses its free-text
// answer into a structured output. The model output carries no guaranteed
// schema, so any field the parser cannot recover is filled from the keyword
// classifier.
func (s *Service) Categorize(ctx context.Context, text, instruction string) (grievance.Output, string, error) {
	query := text
	if instruction != "" {
		query = instruction + "\n\nComplaint: " + text
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": categorizeSystemPrompt,
		"query":  query,
	})
	if err != nil {
		return grievance.Output{}, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	fallback := category.Classify(text)
	output := ParseOutput(response.Content, fallback)
	log.Printf("[ai] categorized complaint, model=%s, department=%s, severity=%s",
		s.cfg.Model, output.Department, output.Severity)
	return output, response.Content, nil
}

// GenerateResponse produces a free-text reply to the grievance.
func (s *Service) GenerateResponse(ctx context.Context, text string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": respondSystemPrompt,
		"query":  text,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Printf("[ai] generated response, model=%s, length=%d", s.cfg.Model, len(response.Content))
	return response.Content, nil
}

// StreamResponse streams the reply chunk by chunk for the SSE endpoint.
func (s *Service) StreamResponse(ctx context.Context, text string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, map[string]any{
		"system": respondSystemPrompt,
		"query":  text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return stream, nil
}
