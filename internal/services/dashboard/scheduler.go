package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"qrdine-backend/internal/models"
)

const DefaultRefreshInterval = 30 * time.Second

// OrderSource returns the orders the kitchen currently reports as ready.
type OrderSource interface {
	FetchReady(ctx context.Context) ([]models.Order, error)
}

// AudioCue plays the new-order chime. Errors are ignored by the scheduler.
type AudioCue interface {
	Play(ctx context.Context) error
}

type SchedulerConfig struct {
	Interval time.Duration
	Notifier Notifier
	Audio    AudioCue
	Logger   *zap.Logger
}

// Scheduler pulls ready orders on a fixed interval and feeds them to the
// store. Only one pull runs at a time.
type Scheduler struct {
	source   OrderSource
	store    *Store
	interval time.Duration
	notifier Notifier
	audio    AudioCue
	logger   *zap.Logger

	inFlight   atomic.Bool
	refreshing atomic.Bool
	loading    atomic.Bool
	primed     atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(source OrderSource, store *Store, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		source:   source,
		store:    store,
		interval: cfg.Interval,
		notifier: cfg.Notifier,
		audio:    cfg.Audio,
		logger:   cfg.Logger,
	}
	if s.interval <= 0 {
		s.interval = DefaultRefreshInterval
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.loading.Store(true)
	return s
}

// Run pulls once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("⏱️  Order refresh loop started", zap.Duration("interval", s.interval))
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("🛑 Order refresh loop stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Start runs the loop in the background. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
}

// Stop cancels the background loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh performs an on-demand pull. It fails with ErrRefreshInProgress
// when another pull is already running.
func (s *Scheduler) Refresh(ctx context.Context) (ReconcileResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ReconcileResult{}, ErrRefreshInProgress
	}
	s.refreshing.Store(true)
	defer func() {
		s.refreshing.Store(false)
		s.inFlight.Store(false)
	}()

	s.logger.Info("🔄 Manual order refresh")
	return s.pull(ctx)
}

// Refreshing reports whether an on-demand refresh is running.
func (s *Scheduler) Refreshing() bool { return s.refreshing.Load() }

// Loading is true until the first pull has finished, successfully or not.
func (s *Scheduler) Loading() bool { return s.loading.Load() }

func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("Skipping order refresh tick, pull already running")
		return
	}
	defer s.inFlight.Store(false)
	_, _ = s.pull(ctx)
}

func (s *Scheduler) pull(ctx context.Context) (ReconcileResult, error) {
	defer s.loading.Store(false)

	orders, err := s.source.FetchReady(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ReconcileResult{}, ctx.Err()
		}
		s.logger.Warn("⚠️  Failed to fetch ready orders", zap.Error(err))
		s.notifier.Notify(ctx, models.Notification{
			Message: "Failed to fetch orders",
			Kind:    models.NotificationError,
		})
		return ReconcileResult{}, &FetchError{Err: err}
	}

	result := s.store.Reconcile(orders)
	s.logger.Debug("Orders reconciled",
		zap.Int("fetched", len(orders)),
		zap.Int("active", result.Total),
		zap.Ints("new", result.NewOrderIDs))

	// The first successful load only establishes the baseline.
	if s.primed.Swap(true) && len(result.NewOrderIDs) > 0 {
		s.announce(ctx, len(result.NewOrderIDs))
	}
	return result, nil
}

func (s *Scheduler) announce(ctx context.Context, count int) {
	suffix := ""
	if count > 1 {
		suffix = "s"
	}
	s.logger.Info("🔔 New orders ready", zap.Int("count", count))
	s.notifier.Notify(ctx, models.Notification{
		Message: fmt.Sprintf("🔔 %d new order%s ready!", count, suffix),
		Kind:    models.NotificationSuccess,
		Icon:    "🍽️",
	})
	if s.audio == nil {
		return
	}
	if err := s.audio.Play(ctx); err != nil {
		s.logger.Debug("Audio cue not played", zap.Error(err))
	}
}
