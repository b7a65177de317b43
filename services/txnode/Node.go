/*
Package txnode is the transaction node: it receives [uri, data] transactions, validates them against
current state, tells subscribers about the accepted ones and propagates them to its peers.

	received -> validating -> accepted | rejected -> [propagating] -> done

Validation reads are not isolated from concurrent writes. Two transactions spending the same input
that race through Receive can both pass; WithSerializedValidation holds a node wide lock across
validate, notify and propagate for callers that need a single writer.
*/
package txnode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/services/validator"
	"github.com/bsv-blockchain/txgate/settings"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/distributor"
	"github.com/bsv-blockchain/txgate/util/health"
)

// ErrNodeClosed is the result error for transactions received after Cleanup.
const ErrNodeClosed = "node_closed"

// ReadSource is the state the node validates against.
type ReadSource interface {
	state.Reader
	Health(ctx context.Context) health.Report
	Close(ctx context.Context) error
}

// ReceiveResult is the outcome of one Receive call.
type ReceiveResult struct {
	Accepted    bool                 `json:"accepted"`
	Error       string               `json:"error,omitempty"`
	Details     map[string]any       `json:"details,omitempty"`
	URI         string               `json:"uri"`
	TS          time.Time            `json:"ts"`
	Propagation *distributor.Summary `json:"propagation,omitempty"`
}

// Stats counts transactions over the lifetime of a node.
type Stats struct {
	Received   uint64 `json:"received"`
	Accepted   uint64 `json:"accepted"`
	Rejected   uint64 `json:"rejected"`
	Propagated uint64 `json:"propagated"`
}

type Node struct {
	logger      ulogger.Logger
	readSource  ReadSource
	validate    validator.Validator
	distributor *distributor.Distributor
	options     *Options

	// serial is only taken when validation is serialized
	serial sync.Mutex

	statsMu sync.Mutex
	stats   Stats

	subsMu      sync.Mutex
	subscribers map[uint64]*Subscription
	nextSubID   uint64

	inflight  sync.WaitGroup
	closeMu   sync.RWMutex
	closed    bool
	cleanOnce sync.Once
	cleanErr  error
}

// New builds a node. Settings may be nil, in which case the defaults apply; options override settings.
func New(logger ulogger.Logger, tSettings *settings.Settings, readSource ReadSource, validate validator.Validator,
	peers []Peer, opts ...Option) (*Node, error) {
	if readSource == nil {
		return nil, errors.NewConfigurationError("txnode needs a read source")
	}

	if validate == nil {
		return nil, errors.NewConfigurationError("txnode needs a validator")
	}

	options := defaultOptions(tSettings)
	for _, opt := range opts {
		opt(options)
	}

	if options.ValidationTimeout <= 0 {
		return nil, errors.NewConfigurationError("validation timeout must be positive, got %s", options.ValidationTimeout)
	}

	if options.PropagationTimeout <= 0 {
		return nil, errors.NewConfigurationError("propagation timeout must be positive, got %s", options.PropagationTimeout)
	}

	if options.SubscriberBuffer < 0 {
		return nil, errors.NewConfigurationError("subscriber buffer must not be negative, got %d", options.SubscriberBuffer)
	}

	for i, p := range peers {
		if p == nil {
			return nil, errors.NewConfigurationError("peer %d is nil", i)
		}
	}

	initPrometheusMetrics()

	return &Node{
		logger:     logger,
		readSource: readSource,
		validate:   validate,
		distributor: distributor.NewDistributor(logger, peers,
			distributor.WithTimeout(options.PropagationTimeout),
		),
		options:     options,
		subscribers: make(map[uint64]*Subscription),
	}, nil
}

// Submit is Receive.
func (n *Node) Submit(ctx context.Context, tx model.Transaction) *ReceiveResult {
	return n.Receive(ctx, tx)
}

// Receive validates tx and, when it is accepted, notifies subscribers and propagates it to every peer.
// Nothing is retried; a caller that wants a retry resubmits.
func (n *Node) Receive(ctx context.Context, tx model.Transaction) *ReceiveResult {
	start := time.Now()
	ts := start.UTC().Truncate(time.Millisecond)

	n.closeMu.RLock()
	defer n.closeMu.RUnlock()

	if n.closed {
		return &ReceiveResult{URI: tx.URI, TS: ts, Error: ErrNodeClosed}
	}

	if n.options.SerializeValidation {
		n.serial.Lock()
		defer n.serial.Unlock()
	}

	n.count(func(s *Stats) { s.Received++ })
	prometheusReceived.Inc()

	n.logger.Debugf("[Receive][%s] validating", tx.URI)

	r := n.runValidation(ctx, tx)

	prometheusValidationDuration.Observe(time.Since(start).Seconds())

	if !r.Valid {
		n.count(func(s *Stats) { s.Rejected++ })
		prometheusRejected.WithLabelValues(r.Error).Inc()

		n.logger.Debugf("[Receive][%s] rejected: %s", tx.URI, r.Error)

		return &ReceiveResult{URI: tx.URI, TS: ts, Error: r.Error, Details: r.Details}
	}

	n.count(func(s *Stats) { s.Accepted++ })
	prometheusAccepted.Inc()

	n.notify(tx)

	result := &ReceiveResult{Accepted: true, URI: tx.URI, TS: ts}

	if len(n.distributor.Peers()) == 0 {
		return result
	}

	if n.options.AwaitPropagation {
		result.Propagation = n.propagate(ctx, tx)
		return result
	}

	// a serialized node releases the lock only once peers hold the write
	if n.options.SerializeValidation {
		_ = n.propagate(context.WithoutCancel(ctx), tx)
		return result
	}

	n.inflight.Add(1)

	go func() {
		defer n.inflight.Done()

		_ = n.propagate(context.WithoutCancel(ctx), tx)
	}()

	return result
}

// runValidation races the validator against the validation timeout. A panicking validator
// rejects the transaction with the panic message.
func (n *Node) runValidation(ctx context.Context, tx model.Transaction) (r *validator.Result) {
	ctx, cancel := context.WithTimeout(ctx, n.options.ValidationTimeout)
	defer cancel()

	done := make(chan *validator.Result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				n.logger.Errorf("[Receive][%s] validator panicked: %v", tx.URI, p)
				done <- validator.Invalid(fmt.Sprint(p), nil)
			}
		}()

		done <- n.validate(ctx, tx, n.readSource)
	}()

	select {
	case r = <-done:
		if r == nil {
			return validator.Invalid("validator returned no result", nil)
		}

		return r
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return validator.Invalid(model.CodeValidationTimeout, map[string]any{"timeout": n.options.ValidationTimeout.String()})
		}

		return validator.Invalid(ctx.Err().Error(), nil)
	}
}

func (n *Node) propagate(ctx context.Context, tx model.Transaction) *distributor.Summary {
	n.logger.Debugf("[Receive][%s] propagating to %d peers", tx.URI, len(n.distributor.Peers()))

	start := time.Now()

	responses, err := n.distributor.SendTransaction(ctx, tx)
	if err != nil {
		n.logger.Warnf("[Receive][%s] %v", tx.URI, err)
	}

	prometheusPropagationDuration.Observe(time.Since(start).Seconds())

	summary := distributor.Summarize(responses)

	n.count(func(s *Stats) { s.Propagated += uint64(summary.Succeeded) })
	prometheusPropagated.WithLabelValues("succeeded").Add(float64(summary.Succeeded))
	prometheusPropagated.WithLabelValues("failed").Add(float64(summary.Failed))

	return summary
}

func (n *Node) count(f func(s *Stats)) {
	n.statsMu.Lock()
	f(&n.stats)
	n.statsMu.Unlock()
}

// Stats returns a snapshot of the counters.
func (n *Node) Stats() Stats {
	n.statsMu.Lock()
	defer n.statsMu.Unlock()

	return n.stats
}

// Closed reports whether Cleanup has been called.
func (n *Node) Closed() bool {
	n.closeMu.RLock()
	defer n.closeMu.RUnlock()

	return n.closed
}

// PeerHealth is one peer's answer to a connectivity probe.
type PeerHealth struct {
	Name string `json:"name"`
	health.Report
}

// Health is the node's aggregated health. Status is unhealthy when the read source is,
// degraded when the read source is degraded or any peer is not healthy.
type Health struct {
	Status      health.Status `json:"status"`
	ReadSource  health.Report `json:"readSource"`
	Peers       []PeerHealth  `json:"peers"`
	Stats       Stats         `json:"stats"`
	Subscribers int           `json:"subscribers"`
}

func (n *Node) Health(ctx context.Context) *Health {
	ctx, cancel := context.WithTimeout(ctx, n.options.PropagationTimeout)
	defer cancel()

	peers := n.distributor.Peers()

	checks := make([]health.Check, 0, len(peers)+1)
	checks = append(checks, health.Check{Name: "ReadSource", Check: n.readSource.Health})

	for _, p := range peers {
		checks = append(checks, health.Check{Name: p.Name(), Check: p.Health})
	}

	_, results := health.CheckAll(ctx, checks)

	h := &Health{
		ReadSource:  results[0].Report,
		Peers:       make([]PeerHealth, 0, len(peers)),
		Stats:       n.Stats(),
		Subscribers: n.subscriberCount(),
	}

	peerStatus := health.Healthy

	for _, r := range results[1:] {
		h.Peers = append(h.Peers, PeerHealth{Name: r.Name, Report: r.Report})

		if r.Status != health.Healthy {
			peerStatus = health.Degraded
		}
	}

	h.Status = health.Worst(h.ReadSource.Status, peerStatus)

	return h
}

// Cleanup ends every subscription, waits for background propagation and closes the peers and
// the read source. It is safe to call more than once.
func (n *Node) Cleanup(ctx context.Context) error {
	n.cleanOnce.Do(func() {
		n.closeMu.Lock()
		n.closed = true
		n.closeMu.Unlock()

		n.subsMu.Lock()
		subs := make([]*Subscription, 0, len(n.subscribers))
		for _, s := range n.subscribers {
			subs = append(subs, s)
		}
		n.subscribers = make(map[uint64]*Subscription)
		n.subsMu.Unlock()

		for _, s := range subs {
			s.close()
		}

		prometheusSubscribers.Sub(float64(len(subs)))

		n.inflight.Wait()

		var errs []error

		for _, p := range n.distributor.Peers() {
			if err := p.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("peer %s: %w", p.Name(), err))
			}
		}

		if err := n.readSource.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("read source: %w", err))
		}

		if err := errors.Join(errs...); err != nil {
			n.cleanErr = errors.NewServiceError("txnode cleanup failed", err)
		}

		n.logger.Infof("[Cleanup] node closed")
	})

	return n.cleanErr
}
