package leveldb

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/txgate/stores/state/tests"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDBMemory(t *testing.T) {
	tests.All(t, func(t *testing.T) tests.Store {
		l, err := NewMemory(ulogger.TestLogger{})
		require.NoError(t, err)

		t.Cleanup(func() { _ = l.Close(context.Background()) })

		return l
	})
}

func TestLevelDBFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, err := New(ulogger.TestLogger{}, dir)
	require.NoError(t, err)

	_, err = l.Write(ctx, "utxo://alice/1", map[string]any{"owner": "alice"})
	require.NoError(t, err)
	require.NoError(t, l.Close(ctx))
	require.NoError(t, l.Close(ctx))

	assert.Equal(t, health.Unhealthy, l.Health(ctx).Status)

	reopened, err := New(ulogger.TestLogger{}, dir)
	require.NoError(t, err)

	defer reopened.Close(ctx)

	record, err := reopened.Read(ctx, "utxo://alice/1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"owner": "alice"}, record.Data)
}
