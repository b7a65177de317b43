package datanode

import (
	"context"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
	"go.uber.org/atomic"
)

// ValueKey holds the value inside an envelope written with metadata.
const ValueKey = "value"

// Context is the storage access handed to a materializer.
type Context struct {
	store  state.Store
	stored *atomic.Uint64

	// Source names the stream the transaction came from.
	Source string
}

func newContext(store state.Store, source string, stored *atomic.Uint64) *Context {
	if stored == nil {
		stored = atomic.NewUint64(0)
	}

	return &Context{store: store, stored: stored, Source: source}
}

// Store writes value under uri. With meta the stored data is {"value": value, ...meta}, without it the bare value.
func (c *Context) Store(ctx context.Context, uri string, value any, meta map[string]any) (*model.Record, error) {
	data := value
	if len(meta) > 0 {
		data = envelope(value, meta)
	}

	rec, err := c.store.Write(ctx, uri, data)
	if err != nil {
		return nil, errors.NewStorageError("failed to store %s", uri, err)
	}

	c.stored.Inc()

	return rec, nil
}

func (c *Context) Read(ctx context.Context, uri string) (*model.Record, error) {
	return c.store.Read(ctx, uri)
}

// Update merges partialMeta into the metadata stored under uri and leaves the value alone.
// A bare value is wrapped into an envelope first. A "value" key in partialMeta is ignored.
func (c *Context) Update(ctx context.Context, uri string, partialMeta map[string]any) (*model.Record, error) {
	rec, err := c.store.Read(ctx, uri)
	if err != nil {
		return nil, err
	}

	value, meta := Unwrap(rec.Data)

	merged := make(map[string]any, len(meta)+len(partialMeta))
	for k, v := range meta {
		merged[k] = v
	}

	for k, v := range partialMeta {
		if k == ValueKey {
			continue
		}

		merged[k] = v
	}

	return c.Store(ctx, uri, value, merged)
}

// Unwrap splits stored data into its value and metadata. Data that is not an envelope is returned as the value.
func Unwrap(data any) (any, map[string]any) {
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}

	value, ok := m[ValueKey]
	if !ok {
		return data, nil
	}

	meta := make(map[string]any, len(m)-1)

	for k, v := range m {
		if k != ValueKey {
			meta[k] = v
		}
	}

	return value, meta
}

func envelope(value any, meta map[string]any) map[string]any {
	m := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		m[k] = v
	}

	m[ValueKey] = value

	return m
}
