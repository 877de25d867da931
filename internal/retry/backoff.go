// Package retry repeats connect attempts with exponential backoff.  The
// socket core never retries on its own; callers opt in here.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	sockerr "tcpsock/internal/errors"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError marks an error that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that [Backoff.Do] returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff implements exponential backoff with optional jitter.
type Backoff struct {
	// InitialDelay is the wait before the first retry (default 1s).
	InitialDelay time.Duration
	// MaxDelay caps the wait (default 60s).
	MaxDelay time.Duration
	// Multiplier grows the wait after each attempt (default 2.0).
	Multiplier float64
	// MaxAttempts counts every try including the first; 0 means until
	// ctx is done.
	MaxAttempts int
	// Jitter spreads each wait by ±25%.
	Jitter bool

	// Retryable, when set, decides which errors are worth another try.
	// Anything it rejects is returned unchanged.
	Retryable func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns a general-purpose configuration.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  10,
		Jitter:       true,
	}
}

// ForConnect returns a Backoff that makes 1+retries connect attempts
// and retries only failures a fresh socket might overcome: refusals,
// timeouts, pending socket errors and temporary resolver failures.
func ForConnect(retries int, base, maxDelay time.Duration) *Backoff {
	return &Backoff{
		InitialDelay: base,
		MaxDelay:     maxDelay,
		Multiplier:   2.0,
		MaxAttempts:  retries + 1,
		Jitter:       true,
		Retryable:    sockerr.IsRetryable,
	}
}

// Do runs fn until it succeeds, fails permanently, or the attempt or
// context budget runs out.  attempt is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay == 0 {
		delay = time.Second
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay == 0 {
		maxDelay = 60 * time.Second
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			if b.MaxAttempts == 1 {
				return err
			}
			return fmt.Errorf("giving up after %d attempts: %w", b.MaxAttempts, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", errors.Join(ctx.Err(), err))
		case <-t.C:
		}

		delay = min(time.Duration(float64(delay)*multiplier), maxDelay)
	}
}

// addJitter spreads d by ±25%, never below 1ms.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
