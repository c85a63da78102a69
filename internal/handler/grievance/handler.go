package grievance

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	aiservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/ai"
	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
	"github.com/VIRTUALGOD325/Grievance-Portal/pkg/utils"
)

// Handler serves the complaint intake endpoints.
type Handler struct {
	intake *intakeservice.Service
	ai     *aiservice.Service // nil when no model credentials are configured
}

// New creates the intake handler. ai may be nil.
func New(intake *intakeservice.Service, ai *aiservice.Service) *Handler {
	return &Handler{intake: intake, ai: ai}
}

// RegisterRoutes mounts the intake endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/categorize", h.handleCategorize)
	r.Post("/generate-response", h.handleGenerateResponse)
	r.Post("/process", h.handleGenerateResponse)
	r.Get("/respond/stream", h.handleRespondStream)
	r.Get("/health", h.handleHealth)
}

type categorizeRequest struct {
	Text        string         `json:"text"`
	Instruction string         `json:"instruction"`
	FastMode    bool           `json:"fast_mode"`
	Model       string         `json:"model"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	VoiceInput  bool           `json:"voice_input"`
	Metadata    map[string]any `json:"metadata"`
}

// handleCategorize turns a complaint into a structured output and logs it.
func (h *Handler) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var payload categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Requesting the keyword matcher by model name is equivalent to the
	// fast_mode flag.
	fastMode := payload.FastMode || payload.Model == intakeservice.FastModelName

	result, err := h.intake.Process(r.Context(), intakeservice.Request{
		Text:        payload.Text,
		Instruction: payload.Instruction,
		FastMode:    fastMode,
		UserID:      payload.UserID,
		SessionID:   payload.SessionID,
		VoiceInput:  payload.VoiceInput,
		Extra:       payload.Metadata,
	})
	if err != nil {
		respondProcessError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"text":           result.RawOutput,
		"generated_text": result.RawOutput,
		"output":         result.Output,
		"success":        true,
		"model_used":     result.ModelUsed,
		"raw_output":     result.RawOutput,
	})
}

type respondRequest struct {
	Text string `json:"text"`
}

// handleGenerateResponse produces an empathetic free-text reply.
func (h *Handler) handleGenerateResponse(w http.ResponseWriter, r *http.Request) {
	var payload respondRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.intake.Respond(r.Context(), payload.Text)
	if err != nil {
		respondProcessError(w, err)
		return
	}

	modelUsed := ""
	if h.ai != nil {
		modelUsed = h.ai.ModelName()
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"text":           reply,
		"generated_text": reply,
		"success":        true,
		"model_used":     modelUsed,
	})
}

// handleRespondStream streams the model reply over SSE.
func (h *Handler) handleRespondStream(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text query parameter is required")
		return
	}
	if h.ai == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "model backend unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream, err := h.ai.StreamResponse(r.Context(), text)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)
	utils.SendSSEChunk(w, flusher, map[string]any{"event": "start"})

	for {
		chunk, err := recvChunk(stream)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Printf("[sse] stream error: %v", err)
			utils.SendSSEChunk(w, flusher, map[string]any{"event": "error", "error": err.Error()})
			return
		}
		if chunk != "" {
			utils.SendSSEChunk(w, flusher, map[string]any{"event": "chunk", "content": chunk})
		}
	}

	utils.SendSSEChunk(w, flusher, map[string]any{"event": "done", "finished": true})
}

func recvChunk(stream *schema.StreamReader[*schema.Message]) (string, error) {
	msg, err := stream.Recv()
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// handleHealth reports overall service readiness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := []string{}
	if h.ai != nil {
		loaded = append(loaded, h.ai.ModelName())
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"loaded_models":    loaded,
		"available_models": append(loaded, intakeservice.FastModelName),
	})
}

// respondProcessError maps service failures onto the API error contract:
// validation 400, backend failure 502, everything else 500.
func respondProcessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, intakeservice.ErrNoText):
		utils.RespondError(w, http.StatusBadRequest, "No text provided")
	case errors.Is(err, intakeservice.ErrModelUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, aiservice.ErrUnavailable):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
