// Package tests holds the behaviour every state store backend must share.
package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Store interface {
	Read(ctx context.Context, uri string) (*model.Record, error)
	Write(ctx context.Context, uri string, value any) (*model.Record, error)
	List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error)
	Delete(ctx context.Context, uri string) error
	Health(ctx context.Context) health.Report
}

// utxo is written as a plain map so every backend hands back an equal value.
func utxo(owner string, value float64) map[string]any {
	return map[string]any{"value": value, "owner": owner, "spent": false}
}

func ReadWrite(t *testing.T, s Store) {
	ctx := context.Background()

	written, err := s.Write(ctx, "utxo://alice/1", utxo("alice", 100))
	require.NoError(t, err)
	require.NotNil(t, written)
	assert.False(t, written.TS.IsZero())

	record, err := s.Read(ctx, "utxo://alice/1")
	require.NoError(t, err)
	assert.Equal(t, utxo("alice", 100), record.Data)
	assert.Equal(t, written.TS.UnixMilli(), record.TS.UnixMilli())

	// overwrite
	_, err = s.Write(ctx, "utxo://alice/1", utxo("alice", 50))
	require.NoError(t, err)

	record, err = s.Read(ctx, "utxo://alice/1")
	require.NoError(t, err)
	assert.Equal(t, utxo("alice", 50), record.Data)
}

func NotFound(t *testing.T, s Store) {
	_, err := s.Read(context.Background(), "utxo://nobody/1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func List(t *testing.T, s Store) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Write(ctx, fmt.Sprintf("utxo://bob/%d", i), utxo("bob", float64(i)))
		require.NoError(t, err)
	}

	_, err := s.Write(ctx, "utxo://carol/1", utxo("carol", 1))
	require.NoError(t, err)

	result, err := s.List(ctx, "utxo://bob/")
	require.NoError(t, err)
	require.Len(t, result.Data, 5)
	assert.Equal(t, 5, result.Pagination.Total)
	assert.Equal(t, "utxo://bob/0", result.Data[0].URI)
	assert.Equal(t, utxo("bob", 0), result.Data[0].Data)

	page, err := s.List(ctx, "utxo://bob/", options.WithPage(2), options.WithLimit(2))
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "utxo://bob/2", page.Data[0].URI)
	assert.Equal(t, "utxo://bob/3", page.Data[1].URI)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Page)

	empty, err := s.List(ctx, "utxo://nobody/")
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
}

func Delete(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Write(ctx, "mutable://accounts/dave", map[string]any{"balance": float64(1)})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "mutable://accounts/dave"))

	_, err = s.Read(ctx, "mutable://accounts/dave")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// deleting again is fine
	require.NoError(t, s.Delete(ctx, "mutable://accounts/dave"))
}

func Healthy(t *testing.T, s Store) {
	assert.Equal(t, health.Healthy, s.Health(context.Background()).Status)
}

// All runs every shared test against a fresh store per test.
func All(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("read write", func(t *testing.T) { ReadWrite(t, newStore(t)) })
	t.Run("not found", func(t *testing.T) { NotFound(t, newStore(t)) })
	t.Run("list", func(t *testing.T) { List(t, newStore(t)) })
	t.Run("delete", func(t *testing.T) { Delete(t, newStore(t)) })
	t.Run("health", func(t *testing.T) { Healthy(t, newStore(t)) })
}
