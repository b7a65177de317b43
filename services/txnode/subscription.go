package txnode

import (
	"context"
	"sync"

	"github.com/bsv-blockchain/txgate/model"
)

// Subscription delivers accepted transactions matching its filter, in acceptance order.
// C is closed on Unsubscribe, when the subscribe context is done and on Cleanup.
// There is no replay: only transactions accepted after Subscribe are delivered.
type Subscription struct {
	C <-chan model.Transaction

	id     uint64
	node   *Node
	filter model.Filter
	out    chan model.Transaction

	mu     sync.Mutex
	queue  []model.Transaction
	signal chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe registers a subscriber. Cancelling ctx unsubscribes.
func (n *Node) Subscribe(ctx context.Context, filter model.Filter) *Subscription {
	out := make(chan model.Transaction, n.options.SubscriberBuffer)

	s := &Subscription{
		C:      out,
		node:   n,
		filter: filter,
		out:    out,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	go s.pump()

	// Cleanup flips closed under the write lock, so holding the read lock until the subscriber is registered
	// means Cleanup either sees it in the map or Subscribe sees closed.
	n.closeMu.RLock()
	if n.closed {
		n.closeMu.RUnlock()
		s.close()

		return s
	}

	n.subsMu.Lock()
	n.nextSubID++
	s.id = n.nextSubID
	n.subscribers[s.id] = s
	n.subsMu.Unlock()
	n.closeMu.RUnlock()

	prometheusSubscribers.Inc()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Unsubscribe()
			case <-s.done:
			}
		}()
	}

	return s
}

// Unsubscribe stops delivery and closes C. Queued transactions are dropped.
func (s *Subscription) Unsubscribe() {
	n := s.node

	n.subsMu.Lock()
	_, registered := n.subscribers[s.id]
	delete(n.subscribers, s.id)
	n.subsMu.Unlock()

	if registered {
		prometheusSubscribers.Dec()
	}

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// enqueue never blocks.
func (s *Subscription) enqueue(tx model.Transaction) {
	if !s.filter.Matches(tx) {
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, tx)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, tx := range batch {
			select {
			case <-s.done:
				return
			default:
			}

			select {
			case s.out <- tx:
			case <-s.done:
				return
			}
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-s.signal:
		case <-s.done:
			return
		}
	}
}

// notify hands tx to every current subscriber. Holding subsMu across the loop keeps every
// subscriber's queue in the same order.
func (n *Node) notify(tx model.Transaction) {
	n.subsMu.Lock()
	defer n.subsMu.Unlock()

	for _, s := range n.subscribers {
		s.enqueue(tx)
	}
}

func (n *Node) subscriberCount() int {
	n.subsMu.Lock()
	defer n.subsMu.Unlock()

	return len(n.subscribers)
}
