package logs

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	grievancemodel "github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
	"github.com/VIRTUALGOD325/Grievance-Portal/pkg/utils"
)

const defaultRecentLimit = 10

// Handler serves the read side of the grievance event log.
type Handler struct {
	intake *intakeservice.Service
}

// New creates the log inspection handler.
func New(intake *intakeservice.Service) *Handler {
	return &Handler{intake: intake}
}

// RegisterRoutes mounts the log inspection endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/logs", func(logsRouter chi.Router) {
		logsRouter.Get("/recent", h.handleRecent)
		logsRouter.Get("/stats", h.handleStats)
	})
}

// handleRecent returns the last N records in append order.
func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := h.intake.Recent(limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []grievancemodel.Record{}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"entries": records,
		"count":   len(records),
		"success": true,
	})
}

// handleStats aggregates the whole log in one scan.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.intake.Statistics()
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, stats)
}
