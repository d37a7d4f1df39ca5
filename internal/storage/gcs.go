package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/neexbeast/weather-archive/internal/weather"
)

// ErrObjectNotExist is what a Bucket returns for a missing object.
var ErrObjectNotExist = gcs.ErrObjectNotExist

// Bucket abstracts the bucket operations GCSStore needs.
// This allows injection of a mock in tests.
type Bucket interface {
	Write(ctx context.Context, name, contentType string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	Names(ctx context.Context) ([]string, error)
	Attrs(ctx context.Context) error
}

// GCSStore keeps weather files as objects in one Cloud Storage bucket.
type GCSStore struct {
	bucket Bucket
	closer io.Closer
}

// NewGCSStore opens a Cloud Storage client using Application Default
// Credentials and binds it to bucketName.
func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{
		bucket: &gcsBucket{handle: client.Bucket(bucketName)},
		closer: client,
	}, nil
}

// NewGCSStoreWithBucket constructs a GCSStore over a custom Bucket (for tests).
func NewGCSStoreWithBucket(b Bucket) *GCSStore {
	return &GCSStore{bucket: b}
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Put uploads data as name, replacing any existing object.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.bucket.Write(ctx, name, ContentType, data); err != nil {
		return fmt.Errorf("%w: uploading %s: %v", weather.ErrStorageUnavailable, name, err)
	}
	return nil
}

// List returns every object name in the bucket in lexicographic order.
func (s *GCSStore) List(ctx context.Context) ([]string, error) {
	names, err := s.bucket.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing objects: %v", weather.ErrStorageUnavailable, err)
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}

// Get downloads name and checks it holds a JSON document.
func (s *GCSStore) Get(ctx context.Context, name string) (json.RawMessage, error) {
	data, err := s.bucket.Read(ctx, name)
	if err != nil {
		if errors.Is(err, ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", weather.ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: downloading %s: %v", weather.ErrStorageUnavailable, name, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", weather.ErrMalformedStoredData, name)
	}

	return json.RawMessage(data), nil
}

// Ping reads the bucket metadata.
func (s *GCSStore) Ping(ctx context.Context) error {
	if err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("%w: reading bucket attributes: %v", weather.ErrStorageUnavailable, err)
	}
	return nil
}

type gcsBucket struct {
	handle *gcs.BucketHandle
}

func (b *gcsBucket) Write(ctx context.Context, name, contentType string, data []byte) error {
	w := b.handle.Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object: %w", err)
	}
	return nil
}

func (b *gcsBucket) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := b.handle.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (b *gcsBucket) Names(ctx context.Context) ([]string, error) {
	it := b.handle.Objects(ctx, nil)

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating objects: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (b *gcsBucket) Attrs(ctx context.Context) error {
	_, err := b.handle.Attrs(ctx)
	return err
}
