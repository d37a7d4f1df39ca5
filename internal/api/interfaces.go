package api

import (
	"context"
	"encoding/json"

	"github.com/neexbeast/weather-archive/internal/weather"
)

// StoreService runs the fetch-reshape-persist pipeline for one request.
type StoreService interface {
	Store(ctx context.Context, in weather.StoreInput) (string, error)
}

// FileStore defines the read operations needed by handlers.
type FileStore interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (json.RawMessage, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
