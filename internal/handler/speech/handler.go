package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	speechmodel "github.com/VIRTUALGOD325/Grievance-Portal/internal/model/speech"
	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
	speechsvc "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/speech"
	"github.com/VIRTUALGOD325/Grievance-Portal/pkg/utils"
)

// Transcriber abstracts the speech-to-text client so handlers are testable
// without a running backend.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (*speechmodel.TranscriptionResult, error)
	TranscribeBase64(ctx context.Context, audioBase64 string) (*speechmodel.TranscriptionResult, error)
	Health(ctx context.Context) (*speechmodel.Health, error)
}

// Handler serves the voice intake endpoints.
type Handler struct {
	transcriber Transcriber
	intake      *intakeservice.Service
}

// New creates the speech handler.
func New(transcriber Transcriber, intake *intakeservice.Service) *Handler {
	return &Handler{transcriber: transcriber, intake: intake}
}

// RegisterRoutes mounts the speech endpoints, including the websocket live
// intake channel.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/transcribe", h.handleTranscribe)
		speechRouter.Post("/transcribe-base64", h.handleTranscribeBase64)
		speechRouter.Get("/health", h.handleHealth)

		wsHandler := NewWebSocketHandler(h.transcriber, h.intake)
		wsHandler.RegisterWebSocketRoutes(speechRouter)
	})
}

// handleTranscribe accepts a multipart audio upload, transcribes it and,
// when the categorize flag is set, pushes the transcription straight through
// the intake pipeline.
func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio: "+err.Error())
		return
	}

	result, err := h.transcriber.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		respondTranscribeError(w, err)
		return
	}

	response := map[string]any{
		"text":    result.Text,
		"success": true,
	}

	if categorize, _ := strconv.ParseBool(r.FormValue("categorize")); categorize {
		fastMode, _ := strconv.ParseBool(r.FormValue("fast_mode"))
		processed, err := h.intake.Process(r.Context(), intakeservice.Request{
			Text:       result.Text,
			FastMode:   fastMode,
			UserID:     r.FormValue("user_id"),
			SessionID:  r.FormValue("session_id"),
			VoiceInput: true,
		})
		if err != nil {
			respondTranscribeError(w, err)
			return
		}
		response["output"] = processed.Output
		response["model_used"] = processed.ModelUsed
	}

	utils.RespondJSON(w, http.StatusOK, response)
}

type base64Request struct {
	Audio string `json:"audio"`
}

// handleTranscribeBase64 accepts base64-encoded audio in a JSON body.
func (h *Handler) handleTranscribeBase64(w http.ResponseWriter, r *http.Request) {
	var payload base64Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Audio == "" {
		utils.RespondError(w, http.StatusBadRequest, "No audio data provided")
		return
	}

	result, err := h.transcriber.TranscribeBase64(r.Context(), payload.Audio)
	if err != nil {
		respondTranscribeError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"text":    result.Text,
		"success": true,
	})
}

// handleHealth relays the readiness of the transcription backend.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.transcriber.Health(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, health)
}

func respondTranscribeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, speechsvc.ErrEmptyAudio):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, speechsvc.ErrUnavailable):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, intakeservice.ErrNoText):
		utils.RespondError(w, http.StatusBadRequest, "transcription produced no text")
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
