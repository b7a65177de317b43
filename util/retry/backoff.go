package retry

import (
	"context"
	"math"
	"strings"
	"time"
)

// sleepFunc is swapped out in tests
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Strategy selects how the delay grows between attempts.
type Strategy int

const (
	Linear Strategy = iota
	Exponential
)

func (s Strategy) String() string {
	if s == Exponential {
		return "exponential"
	}

	return "linear"
}

// ParseStrategy accepts "linear" or "exponential", anything else is exponential.
func ParseStrategy(s string) Strategy {
	if strings.EqualFold(s, "linear") {
		return Linear
	}

	return Exponential
}

// Backoff describes a reconnect or retry schedule. MaxAttempts of 0 means unlimited.
type Backoff struct {
	Strategy    Strategy
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
	MaxAttempts int
}

// Delay returns the wait before the given attempt, attempts count from 1.
// Linear waits Initial*attempt, exponential waits Initial*Factor^(attempt-1), both capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var d time.Duration

	switch b.Strategy {
	case Linear:
		if b.Initial > 0 && time.Duration(attempt) > b.maxOr()/b.Initial {
			d = b.maxOr()
		} else {
			d = b.Initial * time.Duration(attempt)
		}
	default:
		factor := b.Factor
		if factor <= 1 {
			factor = 2
		}

		d = b.Initial
		for i := 1; i < attempt; i++ {
			d = CappedExponentialBackoff(d, factor, b.maxOr())
			if d >= b.maxOr() {
				break
			}
		}
	}

	if b.Max > 0 && d > b.Max {
		return b.Max
	}

	return d
}

// Exhausted reports whether attempt is beyond MaxAttempts.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxAttempts > 0 && attempt > b.MaxAttempts
}

// Sleep waits for Delay(attempt) or until ctx is done.
func (b Backoff) Sleep(ctx context.Context, attempt int) error {
	return sleepFunc(ctx, b.Delay(attempt))
}

func (b Backoff) maxOr() time.Duration {
	if b.Max > 0 {
		return b.Max
	}

	return time.Duration(math.MaxInt64)
}

// BackoffAndSleep sleeps for ((backoffMultiplier*retries)+1)*durationType, returning early
// with the context error if ctx is cancelled.
func BackoffAndSleep(ctx context.Context, retries int, backoffMultiplier int, durationType time.Duration) error {
	backoff := (backoffMultiplier * retries) + 1
	backoffPeriod := time.Duration(backoff) * durationType

	return sleepFunc(ctx, backoffPeriod)
}

// CappedExponentialBackoff multiplies currentBackoff by backoffFactor, never exceeding maxBackoff.
func CappedExponentialBackoff(currentBackoff time.Duration, backoffFactor float64, maxBackoff time.Duration) time.Duration {
	next := float64(currentBackoff) * backoffFactor
	if next >= float64(maxBackoff) {
		return maxBackoff
	}

	return time.Duration(next)
}
