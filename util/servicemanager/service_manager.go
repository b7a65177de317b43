package servicemanager

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"golang.org/x/sync/errgroup"
)

// Service is a long running part of the process.
type Service interface {
	Init(ctx context.Context) error
	// Start runs until ctx is done. The service closes readyCh once it accepts work.
	Start(ctx context.Context, readyCh chan<- struct{}) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) health.Report
}

type serviceWrapper struct {
	name     string
	instance Service
	readyCh  chan struct{}
}

// ServiceManager starts services in registration order, each one after the previous one is ready,
// and stops them in reverse order.
type ServiceManager struct {
	mu         sync.Mutex
	services   []serviceWrapper
	logger     ulogger.Logger
	Ctx        context.Context
	cancelFunc context.CancelFunc
	g          *errgroup.Group

	// StartTimeout bounds the wait for the previous service to become ready.
	StartTimeout time.Duration
	// StopTimeout bounds each Stop call.
	StopTimeout time.Duration
}

// NewServiceManager creates a manager whose context ends on SIGINT, SIGTERM, a failing service or ForceShutdown.
func NewServiceManager(ctx context.Context, logger ulogger.Logger) *ServiceManager {
	ctx, cancelFunc := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	sm := &ServiceManager{
		logger:       logger,
		Ctx:          ctx,
		cancelFunc:   cancelFunc,
		g:            g,
		StartTimeout: 30 * time.Second,
		StopTimeout:  10 * time.Second,
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(sigs)

		select {
		case <-sigs:
			sm.logger.Infof("🟠 Received shutdown signal. Stopping services...")
			sm.cancelFunc()
		case <-ctx.Done():
		}
	}()

	return sm
}

// AddService initialises service and starts it in the background once the previously added service is ready.
func (sm *ServiceManager) AddService(name string, service Service) error {
	sm.logger.Infof("⚪️ Initializing service %s...", name)

	if err := service.Init(sm.Ctx); err != nil {
		return errors.NewServiceError("failed to initialize service %s", name, err)
	}

	sw := serviceWrapper{
		name:     name,
		instance: service,
		readyCh:  make(chan struct{}),
	}

	var prevReady <-chan struct{}

	sm.mu.Lock()
	if len(sm.services) > 0 {
		prevReady = sm.services[len(sm.services)-1].readyCh
	}

	sm.services = append(sm.services, sw)
	sm.mu.Unlock()

	sm.g.Go(func() error {
		if prevReady != nil {
			if err := sm.waitForPreviousServiceToStart(sw, prevReady); err != nil {
				return err
			}
		}

		sm.logger.Infof("🟢 Starting service %s...", name)

		if err := service.Start(sm.Ctx, sw.readyCh); err != nil {
			sm.logger.Errorf("Error from service start %s: %v", name, err)
			return err
		}

		return nil
	})

	return nil
}

func (sm *ServiceManager) waitForPreviousServiceToStart(sw serviceWrapper, ready <-chan struct{}) error {
	timer := time.NewTimer(sm.StartTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-sm.Ctx.Done():
		return sm.Ctx.Err()
	case <-timer.C:
		return errors.NewServiceError("%s timed out waiting for the previous service to start", sw.name)
	}
}

// WaitForServiceToBeReady blocks until every service added so far is ready or the manager is shut down.
func (sm *ServiceManager) WaitForServiceToBeReady() error {
	sm.mu.Lock()
	services := append([]serviceWrapper(nil), sm.services...)
	sm.mu.Unlock()

	for _, s := range services {
		select {
		case <-s.readyCh:
			sm.logger.Infof("🟢 Service %s is ready", s.name)
		case <-sm.Ctx.Done():
			return sm.Ctx.Err()
		}
	}

	return nil
}

// ServicesNotReady lists the services that have not signalled readiness.
func (sm *ServiceManager) ServicesNotReady() []string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var notReady []string

	for _, s := range sm.services {
		select {
		case <-s.readyCh:
		default:
			notReady = append(notReady, s.name)
		}
	}

	return notReady
}

// ForceShutdown cancels the context of every service.
func (sm *ServiceManager) ForceShutdown() {
	sm.cancelFunc()
}

// Wait blocks until a service fails or the manager is shut down, then stops every service in reverse order.
// A plain shutdown returns nil, otherwise the first service error is returned.
func (sm *ServiceManager) Wait() error {
	err := sm.g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		sm.logger.Errorf("Received error: %v", err)
	}

	sm.cancelFunc()

	sm.mu.Lock()
	services := append([]serviceWrapper(nil), sm.services...)
	sm.mu.Unlock()

	for i := len(services) - 1; i >= 0; i-- {
		service := services[i]

		stopCtx, stopCancel := context.WithTimeout(context.Background(), sm.StopTimeout)

		sm.logger.Infof("🟠 Stopping service %s...", service.name)

		if stopErr := service.instance.Stop(stopCtx); stopErr != nil {
			sm.logger.Warnf("[%s] Failed to stop service: %v", service.name, stopErr)
		} else {
			sm.logger.Infof("[%s] Service stopped gracefully", service.name)
		}

		stopCancel()
	}

	sm.logger.Infof("🛑 All services stopped.")

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Health checks every service and returns the worst status.
func (sm *ServiceManager) Health(ctx context.Context) (health.Status, []health.Result) {
	sm.mu.Lock()
	checks := make([]health.Check, 0, len(sm.services))

	for _, s := range sm.services {
		checks = append(checks, health.Check{Name: s.name, Check: s.instance.Health})
	}
	sm.mu.Unlock()

	return health.CheckAll(ctx, checks)
}
