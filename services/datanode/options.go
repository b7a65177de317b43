package datanode

import (
	"time"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/settings"
	"github.com/bsv-blockchain/txgate/util/retry"
)

type Options struct {
	Name    string
	Filter  model.Filter
	Backoff retry.Backoff
}

type Option func(*Options)

func defaultOptions(tSettings *settings.Settings) *Options {
	o := &Options{
		Name: "datanode",
		Backoff: retry.Backoff{
			Strategy: retry.Exponential,
			Initial:  time.Second,
			Max:      30 * time.Second,
			Factor:   2,
		},
	}

	if tSettings != nil && tSettings.DataNode != nil {
		s := tSettings.DataNode

		o.Filter = model.Filter{Prefix: s.FilterPrefix, Pattern: s.FilterPattern}

		if s.Backoff != "" {
			o.Backoff.Strategy = retry.ParseStrategy(s.Backoff)
		}

		if s.BackoffInitial > 0 {
			o.Backoff.Initial = s.BackoffInitial
		}

		if s.BackoffMax > 0 {
			o.Backoff.Max = s.BackoffMax
		}

		o.Backoff.MaxAttempts = s.MaxReconnectAttempts
	}

	return o
}

// WithName labels log lines, metrics and the source metadata of stored records.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithFilter drops transactions the filter does not match before materialization.
func WithFilter(filter model.Filter) Option {
	return func(o *Options) {
		o.Filter = filter
	}
}

// WithBackoff sets the reconnect schedule. A MaxAttempts above 0 makes the node give up
// after that many consecutive failed connections.
func WithBackoff(backoff retry.Backoff) Option {
	return func(o *Options) {
		o.Backoff = backoff
	}
}
