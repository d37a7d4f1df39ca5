package storage_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-archive/internal/metrics"
	"github.com/neexbeast/weather-archive/internal/storage"
	"github.com/neexbeast/weather-archive/internal/weather"
)

func TestInstrumented_RecordsOperations(t *testing.T) {
	m := metrics.New()
	b := newMemBucket()
	s := storage.NewInstrumented(storage.NewGCSStoreWithBucket(b), m)

	require.NoError(t, s.Put(context.Background(), "a.json", []byte(`{}`)))
	_, err := s.List(context.Background())
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "missing.json")
	require.ErrorIs(t, err, weather.ErrNotFound)

	b.writeErr = fmt.Errorf("denied")
	require.Error(t, s.Put(context.Background(), "b.json", []byte(`{}`)))

	expected := `
# HELP weather_archive_storage_operations_total Object store operations by operation and outcome.
# TYPE weather_archive_storage_operations_total counter
weather_archive_storage_operations_total{operation="get",result="ok"} 1
weather_archive_storage_operations_total{operation="list",result="ok"} 1
weather_archive_storage_operations_total{operation="put",result="error"} 1
weather_archive_storage_operations_total{operation="put",result="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"weather_archive_storage_operations_total"))
}

func TestInstrumented_NilMetrics(t *testing.T) {
	s := storage.NewInstrumented(storage.NewGCSStoreWithBucket(newMemBucket()), nil)
	require.NoError(t, s.Put(context.Background(), "a.json", []byte(`{}`)))
	require.NoError(t, s.Ping(context.Background()))
}
