package redis

import (
	"context"
	"net/url"
	"os"
	"testing"

	"github.com/bsv-blockchain/txgate/stores/state/tests"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedis needs a server, set TXGATE_TEST_REDIS=redis://localhost:6379/15 to run it.
func TestRedis(t *testing.T) {
	addr := os.Getenv("TXGATE_TEST_REDIS")
	if addr == "" {
		t.Skip("TXGATE_TEST_REDIS not set")
	}

	u, err := url.Parse(addr)
	require.NoError(t, err)

	tests.All(t, func(t *testing.T) tests.Store {
		r, err := New(ulogger.TestLogger{}, u)
		require.NoError(t, err)
		require.NoError(t, r.rdb.FlushDB(context.Background()).Err())

		t.Cleanup(func() { _ = r.Close(context.Background()) })

		return r
	})
}

func TestRedisURL(t *testing.T) {
	u, err := url.Parse("redis://user:pw@localhost:1/notanumber")
	require.NoError(t, err)

	_, err = New(ulogger.TestLogger{}, u)
	require.Error(t, err)
}

func TestRedisUnreachable(t *testing.T) {
	u, err := url.Parse("redis://127.0.0.1:1/0")
	require.NoError(t, err)

	r, err := New(ulogger.TestLogger{}, u)
	require.NoError(t, err)

	defer r.Close(context.Background())

	assert.Equal(t, health.Unhealthy, r.Health(context.Background()).Status)

	_, err = r.Read(context.Background(), "utxo://a/1")
	require.Error(t, err)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `utxo://a\*b/`, escapeGlob("utxo://a*b/"))
}
