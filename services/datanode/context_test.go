package datanode

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/stores/state/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext(t *testing.T) {
	ctx := context.Background()

	t.Run("store without meta keeps the bare value", func(t *testing.T) {
		mc := newContext(memory.New(), "", nil)

		_, err := mc.Store(ctx, "txn://a/1", "hello", nil)
		require.NoError(t, err)

		rec, err := mc.Read(ctx, "txn://a/1")
		require.NoError(t, err)
		assert.Equal(t, "hello", rec.Data)
		assert.Equal(t, uint64(1), mc.stored.Load())
	})

	t.Run("store with meta writes an envelope", func(t *testing.T) {
		mc := newContext(memory.New(), "", nil)

		_, err := mc.Store(ctx, "txn://a/1", "hello", map[string]any{"status": "accepted", "value": "ignored"})
		require.NoError(t, err)

		rec, err := mc.Read(ctx, "txn://a/1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"value": "hello", "status": "accepted"}, rec.Data)
	})

	t.Run("update merges meta and keeps the value", func(t *testing.T) {
		mc := newContext(memory.New(), "", nil)

		_, err := mc.Store(ctx, "txn://a/1", 42, map[string]any{"status": "accepted", "source": "node1"})
		require.NoError(t, err)

		_, err = mc.Update(ctx, "txn://a/1", map[string]any{"status": "confirmed", "value": 7})
		require.NoError(t, err)

		rec, err := mc.Read(ctx, "txn://a/1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"value": 42, "status": "confirmed", "source": "node1"}, rec.Data)
	})

	t.Run("update wraps a bare value", func(t *testing.T) {
		mc := newContext(memory.New(), "", nil)

		_, err := mc.Store(ctx, "txn://a/1", []any{"x"}, nil)
		require.NoError(t, err)

		_, err = mc.Update(ctx, "txn://a/1", map[string]any{"status": "confirmed"})
		require.NoError(t, err)

		rec, err := mc.Read(ctx, "txn://a/1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"value": []any{"x"}, "status": "confirmed"}, rec.Data)
	})

	t.Run("update of a missing record", func(t *testing.T) {
		mc := newContext(memory.New(), "", nil)

		_, err := mc.Update(ctx, "txn://a/1", map[string]any{"status": "confirmed"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("store on a closed backend", func(t *testing.T) {
		store := &failingStore{Memory: memory.New()}
		mc := newContext(store, "", nil)

		_, err := mc.Store(ctx, "txn://a/1", 1, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrStorageError))
		assert.Equal(t, uint64(0), mc.stored.Load())
	})
}

func TestUnwrap(t *testing.T) {
	value, meta := Unwrap(map[string]any{"value": 1, "status": "accepted"})
	assert.Equal(t, 1, value)
	assert.Equal(t, map[string]any{"status": "accepted"}, meta)

	value, meta = Unwrap(map[string]any{"amount": 1})
	assert.Equal(t, map[string]any{"amount": 1}, value)
	assert.Nil(t, meta)

	value, meta = Unwrap("plain")
	assert.Equal(t, "plain", value)
	assert.Nil(t, meta)
}
