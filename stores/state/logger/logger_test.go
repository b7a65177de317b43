package logger

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/txgate/stores/state/memory"
	"github.com/bsv-blockchain/txgate/util/test/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWrapsEveryCall(t *testing.T) {
	ctx := context.Background()
	log := mocklogger.NewTestLogger()
	s := New(log, memory.New())

	_, err := s.Write(ctx, "utxo://alice/1", 1.0)
	require.NoError(t, err)

	record, err := s.Read(ctx, "utxo://alice/1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, record.Data)

	_, err = s.List(ctx, "utxo://")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "utxo://alice/1"))
	s.Health(ctx)
	require.NoError(t, s.Close(ctx))

	log.AssertNumberOfCalls(t, "Debugf", 6)
	log.AssertLogged(t, "Debugf", "[Write] uri utxo://alice/1")
	log.AssertLogged(t, "Debugf", "[List] prefix utxo://, items 1")
}
