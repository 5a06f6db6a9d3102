// Package backoff computes reconnect delays for the bridge: a doubling delay
// that starts at an initial value, is capped at a maximum, and resets after a
// successful connection.
package backoff

import (
	"context"
	"time"

	cbackoff "github.com/cenkalti/backoff/v4"
)

const (
	// DefaultInitial is the delay before the first retry.
	DefaultInitial = time.Second

	// DefaultMax caps the delay between retries.
	DefaultMax = 30 * time.Second
)

// Next returns the delay that follows current: double it, capped at limit.
func Next(current, limit time.Duration) time.Duration {
	if current >= limit/2 {
		return limit
	}
	return current * 2
}

// Scheduler yields the delay sequence initial, 2*initial, 4*initial, ... max
// across consecutive failures. It is not safe for concurrent use; the bridge
// worker is its only caller.
type Scheduler struct {
	initial time.Duration
	max     time.Duration
	boff    *cbackoff.ExponentialBackOff
}

// NewScheduler creates a Scheduler. Non-positive values fall back to
// DefaultInitial and DefaultMax, and limit is raised to initial if lower.
func NewScheduler(initial, limit time.Duration) *Scheduler {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if limit <= 0 {
		limit = DefaultMax
	}
	if limit < initial {
		limit = initial
	}

	boff := cbackoff.NewExponentialBackOff()
	boff.InitialInterval = initial
	boff.MaxInterval = limit
	boff.Multiplier = 2
	boff.RandomizationFactor = 0
	boff.MaxElapsedTime = 0
	boff.Reset()

	return &Scheduler{
		initial: initial,
		max:     limit,
		boff:    boff,
	}
}

// Initial returns the first delay of the sequence.
func (s *Scheduler) Initial() time.Duration {
	return s.initial
}

// Max returns the delay cap.
func (s *Scheduler) Max() time.Duration {
	return s.max
}

// Next returns the delay to wait after a failure and advances the sequence.
func (s *Scheduler) Next() time.Duration {
	d := s.boff.NextBackOff()
	if d == cbackoff.Stop || d <= 0 {
		// Unreachable with MaxElapsedTime disabled. A retry is never immediate.
		return s.max
	}
	return d
}

// Reset restarts the sequence at the initial delay. Called when a connection
// is established.
func (s *Scheduler) Reset() {
	s.boff.Reset()
}

// Wait blocks for d or until ctx is done. It returns ctx.Err() when the
// context ends first.
func Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
