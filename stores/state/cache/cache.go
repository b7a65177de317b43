// Package cache is a read-through ttl cache in front of a state store.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/atomic"
)

type stateStore interface {
	Read(ctx context.Context, uri string) (*model.Record, error)
	Write(ctx context.Context, uri string, value any) (*model.Record, error)
	List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error)
	Delete(ctx context.Context, uri string) error
	Health(ctx context.Context) health.Report
	Close(ctx context.Context) error
}

// Cache keeps recently read records for ttl. Writes and deletes through the
// cache evict the entry so the next read fetches from the backend, writes made
// directly to the backend by other processes are seen once the entry expires.
type Cache struct {
	store   stateStore
	records *ttlcache.Cache[string, *model.Record]

	// fill is held while a read decides to cache what it fetched and while a
	// mutation evicts, so a read that raced a mutation never caches the older record.
	fill sync.Mutex
	// generation is bumped before and after every mutation of the backend
	generation atomic.Uint64
	stopped    atomic.Bool
}

func New(store stateStore, ttl time.Duration) *Cache {
	c := &Cache{
		store: store,
		records: ttlcache.New[string, *model.Record](
			ttlcache.WithTTL[string, *model.Record](ttl),
			ttlcache.WithDisableTouchOnHit[string, *model.Record](),
		),
	}

	go c.records.Start()

	return c
}

func (c *Cache) Read(ctx context.Context, uri string) (*model.Record, error) {
	if item := c.records.Get(uri); item != nil {
		return item.Value(), nil
	}

	generation := c.generation.Load()

	record, err := c.store.Read(ctx, uri)
	if err != nil {
		return nil, err
	}

	c.fill.Lock()
	if c.generation.Load() == generation {
		c.records.Set(uri, record, ttlcache.DefaultTTL)
	}
	c.fill.Unlock()

	return record, nil
}

func (c *Cache) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	c.generation.Inc()
	defer c.evict(uri)

	return c.store.Write(ctx, uri, value)
}

// List always goes to the backend.
func (c *Cache) List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	return c.store.List(ctx, prefix, opts...)
}

func (c *Cache) Delete(ctx context.Context, uri string) error {
	c.generation.Inc()
	defer c.evict(uri)

	return c.store.Delete(ctx, uri)
}

// evict runs once the backend mutation returned, whether or not it succeeded.
func (c *Cache) evict(uri string) {
	c.fill.Lock()
	defer c.fill.Unlock()

	c.generation.Inc()
	c.records.Delete(uri)
}

func (c *Cache) Health(ctx context.Context) health.Report {
	return c.store.Health(ctx)
}

func (c *Cache) Len() int {
	return c.records.Len()
}

func (c *Cache) Close(ctx context.Context) error {
	if c.stopped.CompareAndSwap(false, true) {
		c.records.Stop()
		c.records.DeleteAll()
	}

	return c.store.Close(ctx)
}
