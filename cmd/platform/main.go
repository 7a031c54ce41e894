package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/allocation"
	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/identify"
	"github.com/medilink/platform/internal/nlp"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/shared/database"
	"github.com/medilink/platform/internal/shared/logging"
	"github.com/medilink/platform/internal/shared/metrics"
	secmiddleware "github.com/medilink/platform/internal/shared/middleware"
	"github.com/medilink/platform/internal/workflow"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init("medilink-platform", cfg.Server.Env)
	log := logging.Component("main")

	app := &App{Config: cfg}

	// Database is optional: without it every store degrades to the
	// seeded in-memory set, which is enough for a demo deployment.
	var hospitalPrimary hospital.Store
	var patientPrimary patient.Store

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("database not available, running on in-memory stores")
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			log.Warn().Err(err).Msg("migration failed, running on in-memory stores")
		} else {
			hospitalRepo := hospital.NewRepository(db.Pool)
			patientRepo := patient.NewRepository(db.Pool)
			seedIfEmpty(ctx, log, hospitalRepo, patientRepo)
			hospitalPrimary = hospitalRepo
			patientPrimary = patientRepo
		}
	}

	hospitals := hospital.NewFallbackStore(hospitalPrimary)
	patients := patient.NewFallbackStore(patientPrimary)

	wf := workflow.NewClient(cfg.Workflow)
	allocator := allocation.NewService(hospitals, patients, wf)
	registration := patient.NewService(patients, cfg.Matching)
	matcher := identify.NewMatcher(patients, cfg.Matching)

	ollama := nlp.NewOllamaClient(cfg.Ollama)
	translator := nlp.NewTranslator(ollama)
	chat := nlp.NewChatService(ollama, translator, patients, allocator)

	hospitalHandler := hospital.NewHandler(hospitals)
	patientHandler := patient.NewHandler(patients, registration)
	identifyHandler := identify.NewHandler(matcher)
	allocationHandler := allocation.NewHandler(allocator, patients, hospitals)
	nlpHandler := nlp.NewHandler(chat, translator)
	workflowHandler := workflow.NewHandler(wf)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.RateLimiter(100, 200))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/hospitals", hospitalHandler.Routes())
		r.Route("/patients", func(r chi.Router) {
			r.Mount("/identify", identifyHandler.Routes())
			r.Mount("/", patientHandler.Routes())
		})
		r.Mount("/emergency", allocationHandler.Routes())
		r.Mount("/n8n", workflowHandler.Routes())
		r.Mount("/", nlpHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		close(done)
	}()

	log.Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Bool("database", app.DB != nil).
		Str("workflow_base_url", cfg.Workflow.BaseURL).
		Bool("completion_enabled", cfg.Ollama.Enabled).
		Msg("emergency response platform started")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	log.Info().Msg("server stopped")
}

// seedIfEmpty populates the hospital and patient tables on first run.
func seedIfEmpty(ctx context.Context, log zerolog.Logger, hospitals *hospital.Repository, patients *patient.Repository) {
	if count, err := hospitals.Count(ctx); err == nil && count == 0 {
		if err := hospitals.Seed(ctx); err != nil {
			log.Warn().Err(err).Msg("hospital seed failed")
		}
	}
	if count, err := patients.Count(ctx); err == nil && count == 0 {
		if err := patients.Seed(ctx); err != nil {
			log.Warn().Err(err).Msg("patient seed failed")
		}
	}
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "MediLink AI",
		"version": "0.1.0",
		"docs":    "/api",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
