package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/weather-archive/internal/weather"
)

// Response messages.
const (
	msgStored        = "Data stored successfully"
	msgInvalidJSON   = "Invalid JSON payload"
	msgMissing       = "Missing required parameters"
	msgInvalidNumber = "Latitude and longitude must be valid numbers"
	msgInvalidDate   = "Dates must use the YYYY-MM-DD format"
	msgInvalidRange  = "Start date must be before end date"
	msgUpstream      = "Failed to fetch data from Open-Meteo API"
	msgNotFound      = "File not found."
	msgInternal      = "An unexpected error occurred"
)

const maxRequestBodyLen = 1 << 20

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	service StoreService
	files   FileStore
	log     *zap.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(service StoreService, files FileStore, log *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		files:   files,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a pipeline or storage error to its HTTP status and public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, weather.ErrMissingParameter):
		return http.StatusBadRequest, msgMissing
	case errors.Is(err, weather.ErrInvalidNumber):
		return http.StatusBadRequest, msgInvalidNumber
	case errors.Is(err, weather.ErrInvalidDate):
		return http.StatusBadRequest, msgInvalidDate
	case errors.Is(err, weather.ErrInvalidRange):
		return http.StatusBadRequest, msgInvalidRange
	case errors.Is(err, weather.ErrUpstreamUnavailable):
		return http.StatusBadGateway, msgUpstream
	case errors.Is(err, weather.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	default:
		// ErrMalformedUpstreamData, ErrStorageUnavailable, ErrMalformedStoredData
		// and anything unexpected.
		return http.StatusInternalServerError, msgInternal
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", fields...)
	} else {
		h.log.Info("request rejected", fields...)
	}
	writeError(w, status, msg)
}

// StoreWeatherData handles POST /store-weather-data.
// Validates the body, fetches the archive, and persists the reshaped record.
func (h *Handlers) StoreWeatherData(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || body == nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	in, err := weather.ParseInput(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	name, err := h.service.Store(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log.Info("weather data stored", zap.String("file_name", name))
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   msgStored,
		"file_name": name,
	})
}

// ListWeatherFiles handles GET /list-weather-files.
func (h *Handlers) ListWeatherFiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.files.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// WeatherFileContent handles GET /weather-file-content/{file_name}.
// The stored document is returned as-is.
func (h *Handlers) WeatherFileContent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file_name")

	doc, err := h.files.Get(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HealthHandlerFunc returns an http.HandlerFunc that pings storage and the
// response cache concurrently; 200 if both answer, 503 otherwise.
func HealthHandlerFunc(storage, cache Pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		storageStatus, cacheStatus := "ok", "ok"

		var g errgroup.Group
		g.Go(func() error {
			if err := storage.Ping(ctx); err != nil {
				log.Error("health check: storage ping failed", zap.Error(err))
				storageStatus = "error"
			}
			return nil
		})
		g.Go(func() error {
			if err := cache.Ping(ctx); err != nil {
				log.Error("health check: cache ping failed", zap.Error(err))
				cacheStatus = "error"
			}
			return nil
		})
		_ = g.Wait()

		status, overall := http.StatusOK, "ok"
		if storageStatus != "ok" || cacheStatus != "ok" {
			status, overall = http.StatusServiceUnavailable, "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status":  overall,
			"storage": storageStatus,
			"cache":   cacheStatus,
		})
	}
}
