package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var errEmptyPayload = errors.New("archive returned an empty payload")

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

type statusError struct {
	code      int
	reason    string
	retryable bool
}

func (e *statusError) Error() string {
	if e.reason == "" {
		return fmt.Sprintf("archive returned status %d", e.code)
	}
	return fmt.Sprintf("archive returned status %d: %s", e.code, e.reason)
}

// retryableStatus reports the transient HTTP classes. Other 4xx mean the
// request itself is wrong and repeating it cannot help.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable
	}
	var te *transportError
	return errors.As(err, &te)
}

// fetchWithRetry makes up to maxAttempts attempts, sleeping backoff, 2*backoff,
// 4*backoff, ... between them.
func (c *ArchiveClient) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	b := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.backoff))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		got, err := c.get(ctx, endpoint)
		if err == nil {
			c.metrics.UpstreamAttempt("ok")
			body = got
			return nil
		}
		if ctx.Err() == nil && isRetryable(err) {
			c.metrics.UpstreamAttempt("retry")
			c.log.Warn("archive attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		c.metrics.UpstreamAttempt("error")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("after %d attempt(s): %w", attempt, err)
	}
	return body, nil
}

// newBreaker trips after consecutive failed logical calls. Requests the
// upstream rejected as invalid do not count against it.
func newBreaker(failures uint32, timeout time.Duration, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo-archive",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *statusError
			return errors.As(err, &se) && !se.retryable
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
