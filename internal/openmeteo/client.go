package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/neexbeast/weather-archive/internal/logging"
	"github.com/neexbeast/weather-archive/internal/metrics"
	"github.com/neexbeast/weather-archive/internal/weather"
)

// DefaultArchiveURL is the production historical-weather endpoint.
const DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

const maxBodyBytes = 32 << 20

// ResponseCache stores raw upstream bodies keyed by request URL.
// Get returns nil, nil on a miss.
type ResponseCache interface {
	Get(ctx context.Context, requestURL string) ([]byte, error)
	Set(ctx context.Context, requestURL string, body []byte) error
}

// Config tunes the archive client.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxAttempts     int
	Backoff         time.Duration
	RPS             float64
	Burst           int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig mirrors the production settings: five attempts, 200ms doubling backoff.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultArchiveURL,
		Timeout:         10 * time.Second,
		MaxAttempts:     5,
		Backoff:         200 * time.Millisecond,
		RPS:             10,
		Burst:           5,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// ArchiveClient fetches daily aggregates from the Open-Meteo archive.
// It is safe for concurrent use; all state is built once in NewArchiveClient.
type ArchiveClient struct {
	baseURL     string
	client      *http.Client
	cache       ResponseCache
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewArchiveClient constructs an ArchiveClient. cache may be nil to disable caching.
func NewArchiveClient(cfg Config, cache ResponseCache, log *zap.Logger, m *metrics.Metrics) *ArchiveClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultArchiveURL
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultConfig().Backoff
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &ArchiveClient{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: logging.NewRoundTripper(log, nil),
		},
		cache:       cache,
		breaker:     newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout, log),
		limiter:     rate.NewLimiter(limit, burst),
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		metrics:     m,
		log:         log,
	}
}

// requestURL builds the archive query. url.Values encodes keys in sorted
// order, so identical requests always produce identical URLs.
func (c *ArchiveClient) requestURL(req weather.Request) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', -1, 64))
	values.Set("start_date", req.StartDate.Format(weather.DateLayout))
	values.Set("end_date", req.EndDate.Format(weather.DateLayout))
	values.Set("daily", strings.Join(weather.Variables, ","))
	values.Set("timezone", "auto")
	return c.baseURL + "?" + values.Encode()
}

// FetchArchive returns the daily block for req, served from cache when an
// identical request was answered before.
func (c *ArchiveClient) FetchArchive(ctx context.Context, req weather.Request) (*weather.ArchiveResponse, error) {
	endpoint := c.requestURL(req)

	if body := c.cached(ctx, endpoint); body != nil {
		return decode(body, req)
	}

	body, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
	}
	resp, err := decode(body, req)
	if err != nil {
		return nil, err
	}

	// Only bodies that decode are worth keeping forever.
	if c.cache != nil {
		if err := c.cache.Set(ctx, endpoint, body); err != nil {
			c.log.Warn("response cache set failed", zap.Error(err))
		}
	}
	return resp, nil
}

func (c *ArchiveClient) cached(ctx context.Context, endpoint string) []byte {
	if c.cache == nil {
		return nil
	}
	body, err := c.cache.Get(ctx, endpoint)
	switch {
	case err != nil:
		c.metrics.CacheLookup("error")
		c.log.Warn("response cache get failed", zap.Error(err))
		return nil
	case body == nil:
		c.metrics.CacheLookup("miss")
		return nil
	default:
		c.metrics.CacheLookup("hit")
		c.log.Debug("response cache hit", zap.String("url", endpoint))
		return body
	}
}

// fetch runs the retried request behind the circuit breaker.
func (c *ArchiveClient) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchWithRetry(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, errors.New("breaker returned unexpected result")
	}
	return body, nil
}

// get performs one attempt. Errors worth retrying are wrapped in *statusError
// with retryable set, or are transport errors.
func (c *ArchiveClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for upstream slot: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating archive request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("reading archive response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{
			code:      resp.StatusCode,
			reason:    upstreamReason(body),
			retryable: retryableStatus(resp.StatusCode),
		}
	}
	if len(body) == 0 {
		return nil, errEmptyPayload
	}
	return body, nil
}

// upstreamReason extracts the "reason" field Open-Meteo puts in error bodies.
func upstreamReason(body []byte) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Reason != "" {
		return payload.Reason
	}
	return strings.TrimSpace(string(body))
}
