package recovery

import (
	"math"
	"time"

	"github.com/vietddude/draftsync/internal/core/domain"
)

// RetryStrategy decides whether and when a failed attempt is retried.
type RetryStrategy interface {
	// GetDelay returns the delay after the given attempt (0-indexed).
	GetDelay(attempt int) time.Duration

	// ShouldRetry checks the classified failure of attempt.
	ShouldRetry(err *domain.ClassifiedError, attempt int) bool
}

// ExponentialBackoff waits BaseDelay * 2^attempt, capped at MaxDelay.
type ExponentialBackoff struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultBackoff returns the synchronous submission defaults.
// 1s, 2s (3 attempts, max 60s)
func DefaultBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		MaxAttempts: DefaultMaxRetries,
	}
}

// GetDelay calculates delay: BaseDelay * 2^attempt
func (s *ExponentialBackoff) GetDelay(attempt int) time.Duration {
	if s.BaseDelay <= 0 {
		return 0
	}
	delay := float64(s.BaseDelay) * math.Pow(2, float64(attempt))
	if s.MaxDelay > 0 && delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry is true while err is recoverable and attempts remain.
func (s *ExponentialBackoff) ShouldRetry(err *domain.ClassifiedError, attempt int) bool {
	if attempt >= s.MaxAttempts-1 {
		return false
	}
	return err != nil && err.Recoverable
}
