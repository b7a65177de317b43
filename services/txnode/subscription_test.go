package txnode

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/services/validator"
	"github.com/bsv-blockchain/txgate/stores/state/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveN(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()

	uris := make([]string, 0, n)

	for len(uris) < n {
		select {
		case tx, ok := <-sub.C:
			require.True(t, ok, "subscription closed after %d transactions", len(uris))
			uris = append(uris, tx.URI)
		case <-time.After(2 * time.Second):
			require.FailNow(t, "timed out", "got %v", uris)
		}
	}

	return uris
}

func assertNothing(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case tx, ok := <-sub.C:
		if ok {
			assert.Failf(t, "unexpected delivery", "%s", tx.URI)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("ordered delivery", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil)
		sub := n.Subscribe(ctx, model.Filter{})

		n.Submit(ctx, model.NewTransaction("txn://a/1", "a"))
		n.Submit(ctx, model.NewTransaction("txn://b/1", "b"))

		assert.Equal(t, []string{"txn://a/1", "txn://b/1"}, receiveN(t, sub, 2))
	})

	t.Run("no replay", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil)

		n.Submit(ctx, model.NewTransaction("txn://a/1", "a"))

		sub := n.Subscribe(ctx, model.Filter{})

		n.Submit(ctx, model.NewTransaction("txn://a/2", "a"))

		assert.Equal(t, []string{"txn://a/2"}, receiveN(t, sub, 1))
	})

	t.Run("rejected transactions are not delivered", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.Structural(), nil)
		sub := n.Subscribe(ctx, model.Filter{})

		n.Submit(ctx, model.NewTransaction("txn://a/1", "not state data"))
		assertNothing(t, sub)
	})

	t.Run("filters", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil)

		byPrefix := n.Subscribe(ctx, model.Filter{Prefix: "txn://alice/"})
		byPattern := n.Subscribe(ctx, model.Filter{Pattern: "txn://*/2"})
		byPredicate := n.Subscribe(ctx, model.Filter{Predicate: func(tx model.Transaction) bool {
			return tx.Data == "pick me"
		}})

		n.Submit(ctx, model.NewTransaction("txn://alice/1", "x"))
		n.Submit(ctx, model.NewTransaction("txn://bob/2", "pick me"))
		n.Submit(ctx, model.NewTransaction("txn://alice/2", "x"))

		assert.Equal(t, []string{"txn://alice/1", "txn://alice/2"}, receiveN(t, byPrefix, 2))
		assert.Equal(t, []string{"txn://bob/2", "txn://alice/2"}, receiveN(t, byPattern, 2))
		assert.Equal(t, []string{"txn://bob/2"}, receiveN(t, byPredicate, 1))
		assertNothing(t, byPredicate)
	})

	t.Run("slow subscriber does not block others", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil, WithSubscriberBuffer(0))

		slow := n.Subscribe(ctx, model.Filter{})
		fast := n.Subscribe(ctx, model.Filter{})

		want := make([]string, 0, 100)

		for i := 0; i < 100; i++ {
			uri := fmt.Sprintf("txn://a/%d", i)
			want = append(want, uri)

			require.True(t, n.Submit(ctx, model.NewTransaction(uri, i)).Accepted)
		}

		assert.Equal(t, want, receiveN(t, fast, 100))
		assert.Equal(t, want, receiveN(t, slow, 100))
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil)
		sub := n.Subscribe(ctx, model.Filter{})

		sub.Unsubscribe()
		sub.Unsubscribe()

		n.Submit(ctx, model.NewTransaction("txn://a/1", "a"))

		_, open := <-sub.C
		assert.False(t, open)
		assert.Equal(t, 0, n.subscriberCount())
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil)

		subCtx, cancel := context.WithCancel(ctx)
		sub := n.Subscribe(subCtx, model.Filter{})

		cancel()

		assert.Eventually(t, func() bool {
			return n.subscriberCount() == 0
		}, time.Second, 5*time.Millisecond)

		n.Submit(ctx, model.NewTransaction("txn://a/1", "a"))

		_, open := <-sub.C
		assert.False(t, open)
	})
}

func TestSubscribeDuringCleanup(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		n := newNode(t, memory.New(), validator.AcceptAll(), nil)

		subs := make(chan *Subscription, 4)
		start := make(chan struct{})

		var wg sync.WaitGroup

		for j := 0; j < 4; j++ {
			wg.Add(1)

			go func() {
				defer wg.Done()
				<-start
				subs <- n.Subscribe(ctx, model.Filter{})
			}()
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, n.Cleanup(ctx))
		}()

		close(start)
		wg.Wait()
		close(subs)

		for sub := range subs {
			select {
			case _, open := <-sub.C:
				require.False(t, open, "iteration %d", i)
			case <-time.After(2 * time.Second):
				require.FailNow(t, "subscription left open after cleanup", "iteration %d", i)
			}
		}

		assert.Equal(t, 0, n.subscriberCount())
	}
}
