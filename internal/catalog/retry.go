package catalog

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spherical/mudoc/internal/domain"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// RetryConfig controls how Open waits for a database that is still starting.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// calculateBackoff returns InitialBackoff * 2^attempt capped at MaxBackoff.
func calculateBackoff(attempt int, config *RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}

// pingWithBackoff calls ping until it succeeds, the attempts run out, or ctx
// is done.
func (s *Store) pingWithBackoff(ctx context.Context, config *RetryConfig, ping func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if lastErr = ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == config.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, config)
		s.log.Warn().
			Int("attempt", attempt+1).
			Int("max", config.MaxRetries).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("catalog not reachable, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return domain.IOError(fmt.Sprintf("connect catalog after %d retries", config.MaxRetries), lastErr)
}
