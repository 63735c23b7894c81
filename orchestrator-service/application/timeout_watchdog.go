package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	timeoutErrorMessage = "timeout"
	timeoutReason       = "Saga timeout"
)

// HandleTimeout fails a saga that stopped making progress and unwinds
// everything it initiated. Sagas that already reached another status are
// left alone.
func (o *Orchestrator) HandleTimeout(ctx context.Context, sagaID models.ID) error {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.HandleTimeout")
	defer span.End()

	return o.withSaga(ctx, sagaID, func(saga *domain.SagaTransaction) error {
		if saga.Status != domain.SagaStatusInProgress && saga.Status != domain.SagaStatusStarted {
			o.logger.Debug("saga no longer stuck",
				zap.String("saga_id", saga.ID.String()),
				zap.String("status", saga.Status.String()),
			)
			return nil
		}

		anchor := saga.CurrentStep
		now := o.now()

		if err := saga.Fail(timeoutErrorMessage, now); err != nil {
			return err
		}
		if err := o.sagaRepository.Save(ctx, saga); err != nil {
			return errors.Wrap(err, "failed to fail timed out saga")
		}

		o.metrics.Incr(ctx, telemetry.SagaFailed)
		o.metrics.ObserveDuration(ctx, telemetry.SagaDuration, saga.Duration(now))

		o.logger.Warn("saga timed out",
			zap.String("saga_id", saga.ID.String()),
			zap.String("step", anchor.String()),
			zap.Duration("age", saga.Duration(now)),
		)

		o.runCascade(ctx, saga, anchor, timeoutReason)
		return nil
	})
}

// TimeoutHandler resolves one stuck saga
type TimeoutHandler interface {
	HandleTimeout(ctx context.Context, sagaID models.ID) error
}

// WatchdogConfig configures the TimeoutWatchdog
type WatchdogConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	Concurrency int
}

// DefaultWatchdogConfig returns a 60s period with a 5 minute threshold
func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		Interval:    60 * time.Second,
		StaleAfter:  5 * time.Minute,
		Concurrency: 4,
	}
}

// TimeoutWatchdog periodically hands sagas stuck in STARTED or IN_PROGRESS
// past the threshold to a TimeoutHandler. A tick that is due while the
// previous one still runs is skipped.
type TimeoutWatchdog struct {
	sagaRepository domain.SagaRepository
	handler        TimeoutHandler
	logger         *zap.Logger
	config         WatchdogConfig
	now            func() time.Time

	ticking atomic.Bool
	mux     sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewTimeoutWatchdog creates a new TimeoutWatchdog
func NewTimeoutWatchdog(
	sagaRepository domain.SagaRepository,
	handler TimeoutHandler,
	logger *zap.Logger,
	config WatchdogConfig,
) *TimeoutWatchdog {
	defaults := DefaultWatchdogConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}

	return &TimeoutWatchdog{
		sagaRepository: sagaRepository,
		handler:        handler,
		logger:         logger,
		config:         config,
		now:            time.Now,
	}
}

// Start runs the watchdog until Stop is called or ctx is done
func (w *TimeoutWatchdog) Start(ctx context.Context) {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx, w.done)

	w.logger.Info("timeout watchdog started",
		zap.Duration("interval", w.config.Interval),
		zap.Duration("stale_after", w.config.StaleAfter),
	)
}

// Stop stops the loop and waits for the running tick
func (w *TimeoutWatchdog) Stop(ctx context.Context) error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.cancel == nil {
		return nil
	}

	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timed out waiting for watchdog")
	}

	w.cancel = nil
	w.logger.Info("timeout watchdog stopped")
	return nil
}

func (w *TimeoutWatchdog) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	var ticks sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			ticks.Wait()
			return
		case <-ticker.C:
			ticks.Add(1)
			go func() {
				defer ticks.Done()
				w.Tick(ctx)
			}()
		}
	}
}

// Tick scans the ledger once and resolves every stuck saga. It returns the
// number of sagas handed to the handler, or 0 when another tick is running.
func (w *TimeoutWatchdog) Tick(ctx context.Context) int {
	if !w.ticking.CompareAndSwap(false, true) {
		w.logger.Debug("previous watchdog tick still running, skipping")
		return 0
	}
	defer w.ticking.Store(false)

	cutoff := w.now().Add(-w.config.StaleAfter)

	var stuck []*domain.SagaTransaction
	for _, status := range []domain.SagaStatus{domain.SagaStatusInProgress, domain.SagaStatusStarted} {
		sagas, err := w.sagaRepository.FindByStatusBefore(ctx, status, cutoff)
		if err != nil {
			w.logger.Error("failed to scan for stuck sagas",
				zap.String("status", status.String()),
				zap.Error(err),
			)
			continue
		}
		stuck = append(stuck, sagas...)
	}

	if len(stuck) == 0 {
		return 0
	}

	w.logger.Info("found stuck sagas", zap.Int("count", len(stuck)))

	var g errgroup.Group
	g.SetLimit(w.config.Concurrency)

	for _, saga := range stuck {
		sagaID := saga.ID
		g.Go(func() error {
			if err := w.handler.HandleTimeout(ctx, sagaID); err != nil {
				w.logger.Error("failed to resolve stuck saga",
					zap.String("saga_id", sagaID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
	return len(stuck)
}
