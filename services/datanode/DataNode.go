/*
Package datanode follows the accepted transaction stream of a transaction node and materializes it into a
state store.

A data node connects to the first reachable of its sources, filters the incoming transactions and hands each
one to a Materializer. Failures inside a materializer are counted and logged, the stream keeps going. When the
connection is lost the node reconnects on a backoff schedule until it either connects again or runs out of
attempts, which is terminal and reported by Health.

	STOPPED -> CONNECTING -> CONNECTED -> (DISCONNECTED -> CONNECTING)* -> STOPPED
*/
package datanode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/settings"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/looplab/fsm"
	"go.uber.org/atomic"
)

type DataNode struct {
	logger      ulogger.Logger
	store       state.Store
	sources     []Source
	materialize Materializer
	options     *Options
	fsm         *fsm.FSM

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	cleaned bool

	connected    *atomic.Bool
	source       *atomic.String
	lastReceived *atomic.Int64
	attempts     *atomic.Int32
	gaveUp       *atomic.Bool
	lastError    *atomic.String

	received  *atomic.Uint64
	filtered  *atomic.Uint64
	processed *atomic.Uint64
	stored    *atomic.Uint64
	errored   *atomic.Uint64
}

// New builds a data node over store. Settings may be nil; options override settings.
func New(logger ulogger.Logger, tSettings *settings.Settings, store state.Store, sources []Source,
	materialize Materializer, opts ...Option) (*DataNode, error) {
	if store == nil {
		return nil, errors.NewConfigurationError("datanode needs a store")
	}

	if materialize == nil {
		return nil, errors.NewConfigurationError("datanode needs a materializer")
	}

	if len(sources) == 0 {
		return nil, errors.NewConfigurationError("datanode needs at least one source")
	}

	for i, s := range sources {
		if s == nil {
			return nil, errors.NewConfigurationError("source %d is nil", i)
		}
	}

	options := defaultOptions(tSettings)
	for _, opt := range opts {
		opt(options)
	}

	if options.Backoff.Initial <= 0 {
		return nil, errors.NewConfigurationError("backoff initial delay must be positive, got %s", options.Backoff.Initial)
	}

	if options.Backoff.MaxAttempts < 0 {
		return nil, errors.NewConfigurationError("max reconnect attempts must not be negative, got %d", options.Backoff.MaxAttempts)
	}

	initPrometheusMetrics()

	d := &DataNode{
		logger:      logger,
		store:       store,
		sources:     sources,
		materialize: materialize,
		options:     options,

		connected:    atomic.NewBool(false),
		source:       atomic.NewString(""),
		lastReceived: atomic.NewInt64(0),
		attempts:     atomic.NewInt32(0),
		gaveUp:       atomic.NewBool(false),
		lastError:    atomic.NewString(""),

		received:  atomic.NewUint64(0),
		filtered:  atomic.NewUint64(0),
		processed: atomic.NewUint64(0),
		stored:    atomic.NewUint64(0),
		errored:   atomic.NewUint64(0),
	}

	d.fsm = d.NewFiniteStateMachine()

	return d, nil
}

// Start connects in the background and returns immediately. The node runs until Stop, Cleanup or ctx is done.
func (d *DataNode) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cleaned {
		return errors.NewServiceUnavailableError("datanode %s has been cleaned up", d.options.Name)
	}

	if d.done != nil {
		select {
		case <-d.done:
		default:
			return errors.NewServiceError("datanode %s is already running", d.options.Name)
		}
	}

	d.gaveUp.Store(false)
	d.attempts.Store(0)
	d.lastError.Store("")

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(runCtx, d.done)

	return nil
}

// Stop disconnects and waits for the stream loop to end, or for ctx.
func (d *DataNode) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.NewContextError("datanode %s did not stop in time", d.options.Name, ctx.Err())
	}
}

// Cleanup stops the node and closes its store. Calling it again is a no-op.
func (d *DataNode) Cleanup(ctx context.Context) error {
	stopErr := d.Stop(ctx)

	d.mu.Lock()
	if d.cleaned {
		d.mu.Unlock()
		return nil
	}

	d.cleaned = true
	d.mu.Unlock()

	return errors.Join(stopErr, d.store.Close(ctx))
}

func (d *DataNode) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer d.event(EventStop)

	attempt := 0

	for {
		d.event(EventConnect)

		stream, name, err := d.connect(ctx)
		if err == nil {
			attempt = 0
			d.attempts.Store(0)

			d.logger.Infof("[DataNode][%s] connected to %s", d.options.Name, name)
			d.source.Store(name)
			d.connected.Store(true)
			prometheusConnected.WithLabelValues(d.options.Name).Set(1)
			d.event(EventConnected)

			err = d.consume(ctx, stream, name)

			if closeErr := stream.Close(); closeErr != nil {
				d.logger.Debugf("[DataNode][%s] closing %s: %v", d.options.Name, name, closeErr)
			}

			d.connected.Store(false)
			prometheusConnected.WithLabelValues(d.options.Name).Set(0)
		}

		if ctx.Err() != nil {
			return
		}

		d.lastError.Store(err.Error())
		d.event(EventDisconnect)

		attempt++
		d.attempts.Store(int32(attempt))
		prometheusReconnects.WithLabelValues(d.options.Name, errors.GetErrorCategory(err)).Inc()

		if d.options.Backoff.Exhausted(attempt) {
			d.gaveUp.Store(true)
			d.logger.Errorf("[DataNode][%s] giving up after %d reconnect attempts: %v", d.options.Name, attempt-1, err)

			return
		}

		delay := d.options.Backoff.Delay(attempt)
		d.logger.Warnf("[DataNode][%s] connection lost (%v), reconnecting in %s", d.options.Name, err, delay)

		if err = d.options.Backoff.Sleep(ctx, attempt); err != nil {
			return
		}
	}
}

// connect opens the first source that accepts a connection.
func (d *DataNode) connect(ctx context.Context) (Stream, string, error) {
	errs := make([]error, 0, len(d.sources))

	for _, s := range d.sources {
		stream, err := s.Open(ctx)
		if err == nil {
			return stream, s.Name(), nil
		}

		d.logger.Debugf("[DataNode][%s] source %s unavailable: %v", d.options.Name, s.Name(), err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, "", errors.NewServiceUnavailableError("no source reachable", errors.Join(errs...))
}

func (d *DataNode) consume(ctx context.Context, stream Stream, source string) error {
	for {
		tx, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		d.received.Inc()
		d.lastReceived.Store(time.Now().UnixMilli())
		prometheusReceived.WithLabelValues(d.options.Name).Inc()

		if !d.options.Filter.Matches(tx) {
			d.filtered.Inc()
			continue
		}

		d.process(ctx, tx, source)
	}
}

func (d *DataNode) process(ctx context.Context, tx model.Transaction, source string) {
	start := time.Now()

	err := d.safeMaterialize(ctx, tx, newContext(d.store, source, d.stored))

	prometheusMaterializeDuration.WithLabelValues(d.options.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		d.errored.Inc()
		prometheusMaterializeErrors.WithLabelValues(d.options.Name, errors.GetErrorCategory(err)).Inc()
		d.logger.Errorf("[DataNode][%s] failed to materialize %s: %v", d.options.Name, tx.URI, err)

		return
	}

	d.processed.Inc()
	prometheusProcessed.WithLabelValues(d.options.Name).Inc()
}

func (d *DataNode) safeMaterialize(ctx context.Context, tx model.Transaction, mc *Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.NewProcessingError("materializer panicked: %s", fmt.Sprint(p))
		}
	}()

	return d.materialize(ctx, tx, mc)
}

func (d *DataNode) event(name string) {
	// transitions into the current state are not errors for the node
	if err := d.fsm.Event(context.Background(), name); err != nil {
		d.logger.Debugf("[DataNode][%s] %s in state %s: %v", d.options.Name, name, d.fsm.Current(), err)
	}
}

// State is the current connection state.
func (d *DataNode) State() string {
	return d.fsm.Current()
}

// Health of a data node.
type Health struct {
	Name         string        `json:"name"`
	Status       health.Status `json:"status"`
	State        string        `json:"state"`
	Connected    bool          `json:"connected"`
	Source       string        `json:"source,omitempty"`
	LastReceived *time.Time    `json:"lastReceived,omitempty"`
	Storage      health.Report `json:"storage"`
	Received     uint64        `json:"received"`
	Filtered     uint64        `json:"filtered"`
	Processed    uint64        `json:"processed"`
	Stored       uint64        `json:"stored"`
	Errors       uint64        `json:"errors"`
	Attempts     int           `json:"attempts"`
	GaveUp       bool          `json:"gaveUp"`
	LastError    string        `json:"lastError,omitempty"`
}

// Health is unhealthy once reconnection gave up or the store is unhealthy, healthy while connected
// to a healthy store and degraded otherwise.
func (d *DataNode) Health(ctx context.Context) *Health {
	h := &Health{
		Name:      d.options.Name,
		State:     d.fsm.Current(),
		Connected: d.connected.Load(),
		Source:    d.source.Load(),
		Storage:   d.store.Health(ctx),
		Received:  d.received.Load(),
		Filtered:  d.filtered.Load(),
		Processed: d.processed.Load(),
		Stored:    d.stored.Load(),
		Errors:    d.errored.Load(),
		Attempts:  int(d.attempts.Load()),
		GaveUp:    d.gaveUp.Load(),
		LastError: d.lastError.Load(),
	}

	if ms := d.lastReceived.Load(); ms > 0 {
		t := time.UnixMilli(ms).UTC()
		h.LastReceived = &t
	}

	connection := health.Degraded

	switch {
	case h.GaveUp:
		connection = health.Unhealthy
	case h.Connected:
		connection = health.Healthy
	}

	h.Status = health.Worst(connection, h.Storage.Status)

	return h
}
