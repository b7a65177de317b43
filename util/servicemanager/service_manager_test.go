package servicemanager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects lifecycle calls across services in the order they happen.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

type mockService struct {
	name     string
	rec      *recorder
	initErr  error
	startErr error
	notReady bool
	status   health.Status
}

func (m *mockService) Init(context.Context) error {
	m.rec.add("init " + m.name)
	return m.initErr
}

func (m *mockService) Start(ctx context.Context, readyCh chan<- struct{}) error {
	m.rec.add("start " + m.name)

	if m.startErr != nil {
		return m.startErr
	}

	if !m.notReady {
		close(readyCh)
	}

	<-ctx.Done()

	return nil
}

func (m *mockService) Stop(context.Context) error {
	m.rec.add("stop " + m.name)
	return nil
}

func (m *mockService) Health(context.Context) health.Report {
	if m.status == "" {
		return health.Report{Status: health.Healthy}
	}

	return health.Report{Status: m.status}
}

func TestServiceManager(t *testing.T) {
	t.Run("starts in order and stops in reverse", func(t *testing.T) {
		rec := &recorder{}
		sm := NewServiceManager(context.Background(), ulogger.TestLogger{})

		require.NoError(t, sm.AddService("a", &mockService{name: "a", rec: rec}))
		require.NoError(t, sm.AddService("b", &mockService{name: "b", rec: rec}))

		require.NoError(t, sm.WaitForServiceToBeReady())
		assert.Empty(t, sm.ServicesNotReady())

		sm.ForceShutdown()
		require.NoError(t, sm.Wait())

		events := rec.list()
		require.Len(t, events, 6)

		index := func(e string) int {
			for i, got := range events {
				if got == e {
					return i
				}
			}

			return -1
		}

		assert.Less(t, index("init a"), index("init b"))
		assert.Less(t, index("start a"), index("start b"))
		assert.Equal(t, []string{"stop b", "stop a"}, events[4:])
	})

	t.Run("init failure", func(t *testing.T) {
		rec := &recorder{}
		sm := NewServiceManager(context.Background(), ulogger.TestLogger{})

		err := sm.AddService("a", &mockService{name: "a", rec: rec, initErr: errors.NewConfigurationError("bad")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrServiceError))
		assert.True(t, errors.Is(err, errors.ErrConfiguration))

		sm.ForceShutdown()
	})

	t.Run("a failing service stops the others", func(t *testing.T) {
		rec := &recorder{}
		sm := NewServiceManager(context.Background(), ulogger.TestLogger{})

		require.NoError(t, sm.AddService("a", &mockService{name: "a", rec: rec}))
		require.NoError(t, sm.AddService("b", &mockService{name: "b", rec: rec, startErr: errors.NewServiceError("boom")}))

		err := sm.Wait()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Contains(t, rec.list(), "stop a")
	})

	t.Run("not ready", func(t *testing.T) {
		rec := &recorder{}
		sm := NewServiceManager(context.Background(), ulogger.TestLogger{})
		sm.StartTimeout = 20 * time.Millisecond

		require.NoError(t, sm.AddService("slow", &mockService{name: "slow", rec: rec, notReady: true}))
		require.NoError(t, sm.AddService("next", &mockService{name: "next", rec: rec}))

		err := sm.Wait()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrServiceError))
		assert.NotContains(t, rec.list(), "start next")
		assert.Equal(t, []string{"slow", "next"}, sm.ServicesNotReady())
	})

	t.Run("parent context cancellation", func(t *testing.T) {
		rec := &recorder{}
		ctx, cancel := context.WithCancel(context.Background())
		sm := NewServiceManager(ctx, ulogger.TestLogger{})

		require.NoError(t, sm.AddService("a", &mockService{name: "a", rec: rec}))

		cancel()

		assert.NoError(t, sm.Wait())
		assert.Contains(t, rec.list(), "stop a")
	})

	t.Run("health", func(t *testing.T) {
		rec := &recorder{}
		sm := NewServiceManager(context.Background(), ulogger.TestLogger{})
		defer sm.ForceShutdown()

		require.NoError(t, sm.AddService("a", &mockService{name: "a", rec: rec}))
		require.NoError(t, sm.AddService("b", &mockService{name: "b", rec: rec, status: health.Degraded}))

		status, results := sm.Health(context.Background())
		assert.Equal(t, health.Degraded, status)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Name)
		assert.Equal(t, health.Healthy, results[0].Status)
	})
}
