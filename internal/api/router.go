package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/neexbeast/weather-archive/internal/metrics"
)

// RouterDeps groups what NewRouter needs beyond the handlers.
type RouterDeps struct {
	Storage        Pinger
	Cache          Pinger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter builds and returns the Chi router with all routes configured.
func NewRouter(handlers *Handlers, deps RouterDeps) *chi.Mux {
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestObserver(deps.Log, deps.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/store-weather-data", handlers.StoreWeatherData)
	r.Get("/list-weather-files", handlers.ListWeatherFiles)
	r.Get("/weather-file-content/{file_name}", handlers.WeatherFileContent)

	r.Get("/health", HealthHandlerFunc(deps.Storage, deps.Cache, deps.Log))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
