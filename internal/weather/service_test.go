package weather_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-archive/internal/weather"
)

type fakeFetcher struct {
	fetchFn func(ctx context.Context, req weather.Request) (*weather.ArchiveResponse, error)
}

func (f *fakeFetcher) FetchArchive(ctx context.Context, req weather.Request) (*weather.ArchiveResponse, error) {
	return f.fetchFn(ctx, req)
}

type fakeWriter struct {
	putFn func(ctx context.Context, key string, data []byte) error
}

func (f *fakeWriter) Put(ctx context.Context, key string, data []byte) error {
	return f.putFn(ctx, key, data)
}

func archiveFor(req weather.Request) *weather.ArchiveResponse {
	loc := time.FixedZone("CET", 3600)
	start := time.Date(req.StartDate.Year(), req.StartDate.Month(), req.StartDate.Day(), 0, 0, 0, 0, loc)
	end := time.Date(req.EndDate.Year(), req.EndDate.Month(), req.EndDate.Day(), 0, 0, 0, 0, loc)
	days := int(end.Sub(start) / (24 * time.Hour))

	cols := make([][]*float64, len(weather.Variables))
	for i := range cols {
		cols[i] = make([]*float64, days)
		for d := range cols[i] {
			cols[i][d] = ptr(float64(d) + 0.5)
		}
	}
	return &weather.ArchiveResponse{
		Latitude:  52.5,
		Longitude: 13.4,
		Timezone:  "Europe/Berlin",
		Daily:     weather.DailyBlock{Start: start, End: end, Interval: 24 * time.Hour, Columns: cols},
	}
}

func TestService_Store_Success(t *testing.T) {
	var stored []byte
	var storedKey string
	svc := weather.NewService(
		&fakeFetcher{fetchFn: func(_ context.Context, req weather.Request) (*weather.ArchiveResponse, error) {
			return archiveFor(req), nil
		}},
		&fakeWriter{putFn: func(_ context.Context, key string, data []byte) error {
			storedKey, stored = key, data
			return nil
		}},
	)

	key, err := svc.Store(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "weather_data_52.52_13.405_2023-01-01_to_2023-01-03.json", key)
	assert.Equal(t, key, storedKey)

	var rec weather.Record
	require.NoError(t, json.Unmarshal(stored, &rec))
	// The body carries the resolved grid point, the key the requested one.
	assert.Equal(t, 52.5, rec.Latitude)
	assert.Equal(t, 13.4, rec.Longitude)
	assert.Equal(t, "2023-01-01", rec.StartDate)
	assert.Equal(t, "2023-01-03", rec.EndDate)
	assert.Equal(t, []string{"2023-01-01", "2023-01-02"}, rec.DailyData.Date)
	assert.Len(t, rec.DailyData.ApparentTemperatureMax, 2)
}

func TestService_Store_StoredJSONShape(t *testing.T) {
	var stored []byte
	svc := weather.NewService(
		&fakeFetcher{fetchFn: func(_ context.Context, req weather.Request) (*weather.ArchiveResponse, error) {
			return archiveFor(req), nil
		}},
		&fakeWriter{putFn: func(_ context.Context, _ string, data []byte) error {
			stored = data
			return nil
		}},
	)

	_, err := svc.Store(context.Background(), validInput())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(stored, &raw))
	for _, k := range []string{"latitude", "longitude", "start_date", "end_date", "daily_data"} {
		assert.Contains(t, raw, k)
	}
	daily, ok := raw["daily_data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, daily, "date")
	for _, v := range weather.Variables {
		assert.Contains(t, daily, v)
	}
}

func TestService_Store_ValidationStopsPipeline(t *testing.T) {
	svc := weather.NewService(
		&fakeFetcher{fetchFn: func(_ context.Context, _ weather.Request) (*weather.ArchiveResponse, error) {
			t.Fatal("fetcher should not be called for invalid input")
			return nil, nil
		}},
		&fakeWriter{putFn: func(_ context.Context, _ string, _ []byte) error {
			t.Fatal("writer should not be called for invalid input")
			return nil
		}},
	)

	in := validInput()
	in.StartDate, in.EndDate = in.EndDate, in.StartDate
	_, err := svc.Store(context.Background(), in)
	require.ErrorIs(t, err, weather.ErrInvalidRange)
}

func TestService_Store_UpstreamError(t *testing.T) {
	svc := weather.NewService(
		&fakeFetcher{fetchFn: func(_ context.Context, _ weather.Request) (*weather.ArchiveResponse, error) {
			return nil, fmt.Errorf("archive: %w", weather.ErrUpstreamUnavailable)
		}},
		&fakeWriter{putFn: func(_ context.Context, _ string, _ []byte) error { return nil }},
	)

	_, err := svc.Store(context.Background(), validInput())
	require.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
}

func TestService_Store_MalformedUpstream(t *testing.T) {
	svc := weather.NewService(
		&fakeFetcher{fetchFn: func(_ context.Context, req weather.Request) (*weather.ArchiveResponse, error) {
			resp := archiveFor(req)
			resp.Daily.Columns[2] = resp.Daily.Columns[2][:1]
			return resp, nil
		}},
		&fakeWriter{putFn: func(_ context.Context, _ string, _ []byte) error {
			t.Fatal("writer should not be called for malformed data")
			return nil
		}},
	)

	_, err := svc.Store(context.Background(), validInput())
	require.ErrorIs(t, err, weather.ErrMalformedUpstreamData)
}

func TestService_Store_WriteError(t *testing.T) {
	svc := weather.NewService(
		&fakeFetcher{fetchFn: func(_ context.Context, req weather.Request) (*weather.ArchiveResponse, error) {
			return archiveFor(req), nil
		}},
		&fakeWriter{putFn: func(_ context.Context, _ string, _ []byte) error {
			return fmt.Errorf("bucket: %w", weather.ErrStorageUnavailable)
		}},
	)

	_, err := svc.Store(context.Background(), validInput())
	require.ErrorIs(t, err, weather.ErrStorageUnavailable)
}
