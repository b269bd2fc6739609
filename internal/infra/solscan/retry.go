package solscan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// RetryConfig defines retry behavior for upstream calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError determines the action for a given error. Transport
// failures, 5xx and 429 are transient; other 4xx mean the request
// itself is wrong and retrying cannot help.
func ClassifyError(err error) ErrorAction {
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests {
			return ActionRetry
		}
		if se.Code >= 400 && se.Code < 500 {
			return ActionFatal
		}
		return ActionRetry
	}

	// Network errors, timeouts, malformed responses
	return ActionRetry
}

// CallWithRetry executes fn with exponential backoff.
func CallWithRetry(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if ClassifyError(err) == ActionFatal {
			return err // Stop immediately, do not retry
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
