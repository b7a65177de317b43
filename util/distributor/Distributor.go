// Package distributor writes accepted transactions to a set of peers concurrently.
package distributor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
)

// Peer is a downstream write target for accepted transactions.
type Peer interface {
	Name() string
	Write(ctx context.Context, uri string, value any) (*model.Record, error)
	Health(ctx context.Context) health.Report
	Close(ctx context.Context) error
}

type Distributor struct {
	logger           ulogger.Logger
	peers            []Peer
	timeout          time.Duration
	attempts         int32
	backoff          time.Duration
	failureTolerance int
}

type Option func(*Distributor)

// WithTimeout bounds each write attempt to a single peer.
func WithTimeout(t time.Duration) Option {
	return func(opts *Distributor) {
		opts.timeout = t
	}
}

func WithBackoffDuration(t time.Duration) Option {
	return func(opts *Distributor) {
		opts.backoff = t
	}
}

// WithRetryAttempts sets how often a failed peer write is retried. The default is 0.
func WithRetryAttempts(r int32) Option {
	return func(opts *Distributor) {
		opts.attempts = r
	}
}

// WithFailureTolerance is the percentage of peers allowed to fail before SendTransaction returns an error.
func WithFailureTolerance(r int) Option {
	return func(opts *Distributor) {
		opts.failureTolerance = r
	}
}

func NewDistributor(logger ulogger.Logger, peers []Peer, opts ...Option) *Distributor {
	d := &Distributor{
		logger:           logger,
		peers:            peers,
		timeout:          5 * time.Second,
		failureTolerance: 50,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Distributor) Peers() []Peer {
	return d.peers
}

type ResponseWrapper struct {
	Peer     string        `json:"peer"`
	Duration time.Duration `json:"duration"`
	Retries  int32         `json:"retries"`
	Error    error         `json:"error,omitempty"`
}

// PeerError is a failed peer write as reported to callers.
type PeerError struct {
	Peer    string `json:"peer"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Summary is the outcome of one transaction fanned out to every peer.
type Summary struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []PeerError `json:"errors,omitempty"`
}

// Summarize counts responses, every failure is reported as write_failed.
func Summarize(responses []*ResponseWrapper) *Summary {
	s := &Summary{Total: len(responses)}

	for _, rw := range responses {
		if rw.Error == nil {
			s.Succeeded++
			continue
		}

		s.Failed++
		s.Errors = append(s.Errors, PeerError{
			Peer:    rw.Peer,
			Error:   model.CodeWriteFailed,
			Message: rw.Error.Error(),
		})
	}

	return s
}

// SendTransaction writes tx to every peer concurrently and waits for all of them to succeed, fail or
// time out. One slow peer does not affect the others. Responses are in peer order.
func (d *Distributor) SendTransaction(ctx context.Context, tx model.Transaction) ([]*ResponseWrapper, error) {
	responses := make([]*ResponseWrapper, len(d.peers))

	var wg sync.WaitGroup

	for i, peer := range d.peers {
		wg.Add(1)

		go func(i int, p Peer) {
			defer wg.Done()

			start := time.Now()
			backoff := d.backoff

			var retries int32

			for {
				err := d.write(ctx, p, tx)
				if err == nil {
					responses[i] = &ResponseWrapper{Peer: p.Name(), Retries: retries, Duration: time.Since(start)}
					return
				}

				d.logger.Debugf("[Distributor] error sending transaction %s to %s: %v", tx.URI, p.Name(), err)

				if retries >= d.attempts || ctx.Err() != nil {
					responses[i] = &ResponseWrapper{Peer: p.Name(), Retries: retries, Duration: time.Since(start), Error: err}
					return
				}

				retries++

				select {
				case <-ctx.Done():
				case <-time.After(backoff):
				}

				backoff *= 2
			}
		}(i, peer)
	}

	wg.Wait()

	if len(d.peers) == 0 {
		return responses, nil
	}

	var errs []error

	for _, rw := range responses {
		if rw.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rw.Peer, rw.Error))
		}
	}

	failurePercentage := float32(len(errs)) / float32(len(d.peers)) * 100
	if failurePercentage > float32(d.failureTolerance) {
		return responses, errors.NewPropagationFailedError("error sending transaction %s to %.2f%% of the peers", tx.URI, failurePercentage, errors.Join(errs...))
	} else if len(errs) > 0 {
		d.logger.Warnf("[Distributor] error(s) distributing transaction %s: %v", tx.URI, errs)
	}

	return responses, nil
}

// write runs one attempt, abandoning a peer that ignores its context once the timeout fires.
func (d *Distributor) write(ctx context.Context, p Peer, tx model.Transaction) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.NewServiceError("peer %s panicked: %v", p.Name(), r)
			}
		}()

		_, err := p.Write(ctx, tx.URI, tx.Data)
		done <- err
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.NewNetworkTimeoutError("write to %s timed out after %s", p.Name(), d.timeout)
		}

		return errors.NewContextCanceledError("write to %s cancelled", p.Name(), ctx.Err())
	}
}
