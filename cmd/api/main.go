package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/config"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/handler"
	speechhandler "github.com/VIRTUALGOD325/Grievance-Portal/internal/handler/speech"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/logstore"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/metrics"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/service/ai"
	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
	speechsvc "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := logstore.New(cfg.Log.Path)
	log.Printf("grievance event log at %s", store.Path())

	// Initialize the text-generation backend. The service keeps running on
	// the keyword fast path when credentials are absent.
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize model backend: %v", err)
			log.Println("continuing with keyword categorization only")
		} else {
			log.Printf("model backend initialized, model=%s", cfg.AI.Model)
		}
	} else {
		log.Println("model credentials not configured, keyword categorization only")
	}

	var backend intakeservice.ModelBackend
	if aiService != nil {
		backend = aiService
	}
	intakeSvc := intakeservice.NewService(store, backend)

	// Initialize the speech-to-text adapter.
	var transcriber speechhandler.Transcriber
	if cfg.Speech.Enabled {
		transcriber = speechsvc.NewClient(speechsvc.Config{
			BaseURL: cfg.Speech.BaseURL,
			Timeout: cfg.Speech.Timeout,
		})
		log.Printf("transcription backend at %s", cfg.Speech.BaseURL)
	} else {
		log.Println("transcription backend not configured, voice intake disabled")
	}

	prometheus.MustRegister(metrics.NewLogCollector(store))

	router := handler.NewRouter(intakeSvc, aiService, transcriber)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("grievance intake backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
