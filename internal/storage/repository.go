package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/weather-archive/internal/weather"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository keeps weather files in the weather_files table.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// Put inserts the file or replaces its content when the name already exists.
func (r *Repository) Put(ctx context.Context, name string, data []byte) error {
	const q = `
		INSERT INTO weather_files (name, content, content_type, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE
		SET content      = EXCLUDED.content,
		    content_type = EXCLUDED.content_type,
		    updated_at   = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, name, data, ContentType); err != nil {
		return fmt.Errorf("%w: upserting weather file %s: %v", weather.ErrStorageUnavailable, name, err)
	}

	return nil
}

// List returns every stored file name in lexicographic order.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM weather_files ORDER BY name`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: querying weather files: %v", weather.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning weather file row: %v", weather.ErrStorageUnavailable, err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating weather file rows: %v", weather.ErrStorageUnavailable, err)
	}

	return names, nil
}

// Get returns the stored JSON document for name.
func (r *Repository) Get(ctx context.Context, name string) (json.RawMessage, error) {
	const q = `SELECT content FROM weather_files WHERE name = $1`

	var content []byte
	if err := r.q.QueryRow(ctx, q, name).Scan(&content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", weather.ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: querying weather file %s: %v", weather.ErrStorageUnavailable, name, err)
	}

	if !json.Valid(content) {
		return nil, fmt.Errorf("%w: %s", weather.ErrMalformedStoredData, name)
	}

	return json.RawMessage(content), nil
}

// Ping checks that the database answers queries.
func (r *Repository) Ping(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("%w: pinging database: %v", weather.ErrStorageUnavailable, err)
	}
	return nil
}
