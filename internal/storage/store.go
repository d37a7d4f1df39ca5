package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/neexbeast/weather-archive/internal/metrics"
	"github.com/neexbeast/weather-archive/internal/weather"
)

// ContentType is recorded with every stored object.
const ContentType = "application/json"

// Store is the object store gateway shared by every backend.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (json.RawMessage, error)
	Ping(ctx context.Context) error
}

// Instrumented decorates a Store with operation counters.
type Instrumented struct {
	next    Store
	metrics *metrics.Metrics
}

// NewInstrumented wraps next; a nil m disables recording.
func NewInstrumented(next Store, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

// Put stores data under name and counts the outcome.
func (s *Instrumented) Put(ctx context.Context, name string, data []byte) error {
	err := s.next.Put(ctx, name, data)
	s.metrics.StorageOperation("put", err)
	return err
}

// List returns all stored names and counts the outcome.
func (s *Instrumented) List(ctx context.Context) ([]string, error) {
	names, err := s.next.List(ctx)
	s.metrics.StorageOperation("list", err)
	return names, err
}

// Get counts a missing object as a successful lookup.
func (s *Instrumented) Get(ctx context.Context, name string) (json.RawMessage, error) {
	data, err := s.next.Get(ctx, name)
	recorded := err
	if errors.Is(err, weather.ErrNotFound) {
		recorded = nil
	}
	s.metrics.StorageOperation("get", recorded)
	return data, err
}

// Ping passes through to the wrapped store without recording.
func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
