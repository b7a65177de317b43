package txnode

import (
	"time"

	"github.com/bsv-blockchain/txgate/settings"
)

type Options struct {
	ValidationTimeout   time.Duration
	PropagationTimeout  time.Duration
	AwaitPropagation    bool
	SerializeValidation bool
	SubscriberBuffer    int
}

type Option func(*Options)

func defaultOptions(tSettings *settings.Settings) *Options {
	o := &Options{
		ValidationTimeout:  30 * time.Second,
		PropagationTimeout: 5 * time.Second,
		SubscriberBuffer:   64,
	}

	if tSettings != nil && tSettings.TxNode != nil {
		s := tSettings.TxNode

		if s.ValidationTimeout > 0 {
			o.ValidationTimeout = s.ValidationTimeout
		}

		if s.PropagationTimeout > 0 {
			o.PropagationTimeout = s.PropagationTimeout
		}

		if s.SubscriberBuffer >= 0 {
			o.SubscriberBuffer = s.SubscriberBuffer
		}

		o.AwaitPropagation = s.AwaitPropagation
		o.SerializeValidation = s.SerializeValidation
	}

	return o
}

func WithValidationTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ValidationTimeout = d
	}
}

// WithPropagationTimeout bounds every single peer write.
func WithPropagationTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.PropagationTimeout = d
	}
}

// WithAwaitPropagation makes Receive wait for every peer and report a propagation summary.
// Without it propagation is fire-and-forget and peer failures are only logged.
func WithAwaitPropagation(await bool) Option {
	return func(o *Options) {
		o.AwaitPropagation = await
	}
}

// WithSerializedValidation runs one Receive at a time, from validation through propagation.
func WithSerializedValidation(serialize bool) Option {
	return func(o *Options) {
		o.SerializeValidation = serialize
	}
}

// WithSubscriberBuffer sizes the channel handed to each subscriber. Transactions beyond it are
// queued per subscriber, so a slow subscriber never blocks Receive or other subscribers.
func WithSubscriberBuffer(size int) Option {
	return func(o *Options) {
		o.SubscriberBuffer = size
	}
}
