package retry

import (
	"context"
	"time"

	"github.com/bsv-blockchain/txgate/ulogger"
)

type Options struct {
	RetryCount          int
	InfiniteRetry       bool
	BackoffMultiplier   int
	BackoffDurationType time.Duration
	ExponentialBackoff  bool
	BackoffFactor       float64
	MaxBackoff          time.Duration
	Message             string
	// RetryIf stops the retries early when it returns false for an error. Nil retries every error.
	RetryIf func(err error) bool
}

type Option func(*Options)

func WithRetryCount(count int) Option {
	return func(o *Options) {
		o.RetryCount = count
	}
}

func WithInfiniteRetry() Option {
	return func(o *Options) {
		o.InfiniteRetry = true
	}
}

func WithBackoffMultiplier(multiplier int) Option {
	return func(o *Options) {
		o.BackoffMultiplier = multiplier
	}
}

func WithBackoffDurationType(d time.Duration) Option {
	return func(o *Options) {
		o.BackoffDurationType = d
	}
}

func WithExponentialBackoff() Option {
	return func(o *Options) {
		o.ExponentialBackoff = true
	}
}

func WithBackoffFactor(factor float64) Option {
	return func(o *Options) {
		o.BackoffFactor = factor
	}
}

func WithMaxBackoff(d time.Duration) Option {
	return func(o *Options) {
		o.MaxBackoff = d
	}
}

func WithMessage(message string) Option {
	return func(o *Options) {
		o.Message = message
	}
}

func WithRetryIf(retryIf func(err error) bool) Option {
	return func(o *Options) {
		o.RetryIf = retryIf
	}
}

// Retry calls f until it succeeds, the retry count is used up or ctx is done.
// The last error from f is returned when every attempt failed.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Option) (T, error) {
	options := &Options{
		RetryCount:          3,
		BackoffMultiplier:   2,
		BackoffDurationType: time.Second,
		BackoffFactor:       2.0,
		MaxBackoff:          30 * time.Second,
		Message:             "retrying",
	}

	for _, opt := range opts {
		opt(options)
	}

	var (
		result T
		err    error
	)

	backoff := options.BackoffDurationType

	for i := 0; options.InfiniteRetry || i < options.RetryCount; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return result, err
			}

			return result, ctxErr
		}

		result, err = f()
		if err == nil {
			return result, nil
		}

		if !options.InfiniteRetry && i == options.RetryCount-1 {
			break
		}

		if options.RetryIf != nil && !options.RetryIf(err) {
			break
		}

		logger.Warnf("%s (attempt %d): %v", options.Message, i+1, err)

		if options.ExponentialBackoff {
			if sleepErr := sleepFunc(ctx, backoff); sleepErr != nil {
				return result, err
			}

			backoff = CappedExponentialBackoff(backoff, options.BackoffFactor, options.MaxBackoff)
		} else if sleepErr := BackoffAndSleep(ctx, i, options.BackoffMultiplier, options.BackoffDurationType); sleepErr != nil {
			return result, err
		}
	}

	return result, err
}
