package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	grievancehandler "github.com/VIRTUALGOD325/Grievance-Portal/internal/handler/grievance"
	logshandler "github.com/VIRTUALGOD325/Grievance-Portal/internal/handler/logs"
	speechhandler "github.com/VIRTUALGOD325/Grievance-Portal/internal/handler/speech"
	middlewarePkg "github.com/VIRTUALGOD325/Grievance-Portal/internal/middleware"
	aiservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/ai"
	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
	"github.com/VIRTUALGOD325/Grievance-Portal/pkg/utils"
)

// NewRouter wires HTTP routes to core services. aiSvc and transcriber may be
// nil when the corresponding backend is not configured; the affected routes
// then answer 503 instead of disappearing.
func NewRouter(intakeSvc *intakeservice.Service, aiSvc *aiservice.Service, transcriber speechhandler.Transcriber) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	grievanceHandler := grievancehandler.New(intakeSvc, aiSvc)
	logsHandler := logshandler.New(intakeSvc)

	r.Route("/api", func(api chi.Router) {
		grievanceHandler.RegisterRoutes(api)
		logsHandler.RegisterRoutes(api)

		if transcriber != nil {
			speechHandler := speechhandler.New(transcriber, intakeSvc)
			speechHandler.RegisterRoutes(api)
		} else {
			api.Route("/speech", func(speechRouter chi.Router) {
				speechRouter.HandleFunc("/*", func(w http.ResponseWriter, _ *http.Request) {
					utils.RespondError(w, http.StatusServiceUnavailable, "speech backend not configured")
				})
			})
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
