package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/observability"
)

func TestCalculateBackoff(t *testing.T) {
	config := &RetryConfig{MaxRetries: 5, InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 5 * time.Second},
		{attempt: 10, want: 5 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.attempt, config), "attempt %d", tt.attempt)
	}
}

func quickRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestPingWithBackoff(t *testing.T) {
	s := &Store{log: observability.Nop()}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := s.pingWithBackoff(context.Background(), quickRetry(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := s.pingWithBackoff(context.Background(), quickRetry(), func(context.Context) error {
			calls++
			return errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := s.pingWithBackoff(ctx, quickRetry(), func(context.Context) error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})
}
