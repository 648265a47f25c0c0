package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"quizbank/internal/app/apiresp"
	"quizbank/internal/app/observability"
	"quizbank/internal/exam"
	"quizbank/internal/question"
)

// NewRouter wires the HTTP API. dbConn may be nil when the bank is not backed
// by a database.
func NewRouter(cfg Config, log *zap.Logger, store *question.Store, bankSvc *question.Service, dbConn *sql.DB) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	collector := observability.NewCollector(log, store, dbConn)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	}).Handler)

	bankHandler := question.NewHandler(bankSvc, cfg.UploadMaxBytes)
	examSvc := exam.NewService(store, exam.NewSelector(), log, time.Duration(cfg.SessionTTLMins)*time.Minute)
	examHandler := exam.NewHandler(examSvc)
	uploadLimiter := NewIPRateLimiter(cfg.UploadRateLimitPerMin, time.Minute)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiresp.WriteError(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiresp.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.With(RateLimitMiddleware(uploadLimiter)).Post("/bank", bankHandler.Upload)
		api.Get("/bank", bankHandler.Summary)
		api.Get("/bank/export", bankHandler.Export)
		api.Get("/bank/questions", examHandler.ListQuestions)
		api.Get("/bank/categories", examHandler.Categories)

		api.Post("/tests", examHandler.GenerateTest)
		api.Post("/evaluate", examHandler.Evaluate)

		api.Post("/sessions", examHandler.StartStudy)
		api.Get("/sessions/{id}", examHandler.GetSession)
		api.Delete("/sessions/{id}", examHandler.EndSession)
		api.Post("/sessions/{id}/answers", examHandler.SubmitAnswer)
		api.Post("/sessions/{id}/next", examHandler.Next)
		api.Post("/sessions/{id}/prev", examHandler.Prev)
		api.Post("/sessions/{id}/review-missed", examHandler.ReviewMissed)
		api.Post("/sessions/{id}/restart", examHandler.Restart)
	})

	return r
}
