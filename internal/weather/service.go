package weather

import (
	"context"
	"encoding/json"
	"fmt"
)

// Fetcher retrieves archived daily data for a validated request.
type Fetcher interface {
	FetchArchive(ctx context.Context, req Request) (*ArchiveResponse, error)
}

// Writer persists an encoded record under a key.
type Writer interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Service runs the store pipeline: validate, fetch, reshape, name, write.
type Service struct {
	fetcher Fetcher
	writer  Writer
}

// NewService constructs a Service.
func NewService(fetcher Fetcher, writer Writer) *Service {
	return &Service{fetcher: fetcher, writer: writer}
}

// Store validates in, fetches the archive, and writes the resulting record.
// It returns the object key the record was stored under.
func (s *Service) Store(ctx context.Context, in StoreInput) (string, error) {
	req, err := Validate(in)
	if err != nil {
		return "", err
	}

	resp, err := s.fetcher.FetchArchive(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetching archive: %w", err)
	}

	series, err := Reshape(resp.Daily)
	if err != nil {
		return "", fmt.Errorf("reshaping daily block: %w", err)
	}

	record := Record{
		Latitude:  resp.Latitude,
		Longitude: resp.Longitude,
		StartDate: req.RawStartDate,
		EndDate:   req.RawEndDate,
		DailyData: series,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshaling weather record: %w", err)
	}

	key := ObjectKey(req)
	if err := s.writer.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", key, err)
	}

	return key, nil
}
