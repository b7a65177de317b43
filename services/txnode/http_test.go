package txnode

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/services/validator"
	"github.com/bsv-blockchain/txgate/stores/state/memory"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTxn(t *testing.T, baseURL string, body string) (int, *ReceiveResult) {
	t.Helper()

	resp, err := http.Post(baseURL+"/txn", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	result := &ReceiveResult{}
	require.NoError(t, json.Unmarshal(b, result), string(b))

	return resp.StatusCode, result
}

func TestHTTPServer_Txn(t *testing.T) {
	n := newNode(t, memory.New(), validator.Structural(), nil)

	srv := httptest.NewServer(NewHTTPServer(ulogger.TestLogger{}, n).Handler())
	defer srv.Close()

	t.Run("accepted", func(t *testing.T) {
		code, r := postTxn(t, srv.URL, `["txn://alice/1", {"inputs": [], "outputs": [["utxo://bob/1", 1]]}]`)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, r.Accepted)
		assert.Equal(t, "txn://alice/1", r.URI)
	})

	t.Run("rejected", func(t *testing.T) {
		code, r := postTxn(t, srv.URL, `["txn://alice/2", {"value": "hello"}]`)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.False(t, r.Accepted)
		assert.Equal(t, model.CodeInvalidTransactionData, r.Error)
	})

	for _, body := range []string{`{"uri": "txn://alice/1"}`, `["txn://alice/1"]`, `not json`, `["", {}]`} {
		t.Run("malformed "+body, func(t *testing.T) {
			code, r := postTxn(t, srv.URL, body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, ErrInvalidRequest, r.Error)
		})
	}

	assert.Equal(t, uint64(2), n.Stats().Received)
}

func TestHTTPServer_RateLimit(t *testing.T) {
	n := newNode(t, memory.New(), validator.AcceptAll(), nil)

	srv := httptest.NewServer(NewHTTPServer(ulogger.TestLogger{}, n, WithRateLimit(1, 1)).Handler())
	defer srv.Close()

	code, _ := postTxn(t, srv.URL, `["txn://alice/1", "x"]`)
	assert.Equal(t, http.StatusOK, code)

	code, r := postTxn(t, srv.URL, `["txn://alice/2", "x"]`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, ErrRateLimited, r.Error)
}

func TestHTTPServer_Health(t *testing.T) {
	store := memory.New()
	n := newNode(t, store, validator.AcceptAll(), nil)

	srv := httptest.NewServer(NewHTTPServer(ulogger.TestLogger{}, n).Handler())
	defer srv.Close()

	getHealth := func() (int, *Health) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)

		defer resp.Body.Close()

		h := &Health{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(h))

		return resp.StatusCode, h
	}

	code, h := getHealth()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, health.Healthy, h.Status)

	require.NoError(t, store.Close(context.Background()))

	code, h = getHealth()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, health.Unhealthy, h.Status)
}

func TestHTTPServer_Subscribe(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, memory.New(), validator.AcceptAll(), nil)

	srv := httptest.NewServer(NewHTTPServer(ulogger.TestLogger{}, n).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/subscribe?prefix=txn://alice/"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return n.subscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	n.Submit(ctx, model.NewTransaction("txn://bob/1", "skip"))
	n.Submit(ctx, model.NewTransaction("txn://alice/1", map[string]any{"value": "hello"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	tx, err := model.DecodeTransaction(msg)
	require.NoError(t, err)
	assert.Equal(t, "txn://alice/1", tx.URI)
	assert.Equal(t, map[string]any{"value": "hello"}, tx.Data)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return n.subscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHTTPServer_SubscribeEndsOnCleanup(t *testing.T) {
	n := newNode(t, memory.New(), validator.AcceptAll(), nil)

	srv := httptest.NewServer(NewHTTPServer(ulogger.TestLogger{}, n).Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/subscribe", nil)
	require.NoError(t, err)

	defer conn.Close()

	require.Eventually(t, func() bool {
		return n.subscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, n.Cleanup(context.Background()))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}
