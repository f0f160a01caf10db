package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	drepo "PanelPulse/internal/domain/repository"
	icache "PanelPulse/internal/service/cache"
	"PanelPulse/pkg/logger"
)

// Scheduler states.
const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// Scheduler drives the periodic pipeline work: cache sweep, queued
// point-update drain, full batch recalculation, and opportunity scan. At
// most one tick body runs at a time; a tick that fires while one is running
// is dropped, not queued.
type Scheduler struct {
	pipeline *NarrativePipeline
	recalc   *BatchRecalculator
	detector *OpportunityDetector
	cache    *icache.FreshnessCache
	metrics  drepo.Metrics
	logger   *logger.Logger

	period     time.Duration
	drainLimit int

	running atomic.Bool
	started bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// SchedulerOption configures Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickPeriod sets the interval between ticks.
func WithTickPeriod(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithDrainLimit caps how many queued point-updates one tick processes.
func WithDrainLimit(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.drainLimit = n
		}
	}
}

// NewScheduler creates a scheduler with a 60s tick period and a drain limit
// of 10 point-updates per tick.
func NewScheduler(pipeline *NarrativePipeline, recalc *BatchRecalculator, detector *OpportunityDetector, cache *icache.FreshnessCache, metrics drepo.Metrics, l *logger.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pipeline:   pipeline,
		recalc:     recalc,
		detector:   detector,
		cache:      cache,
		metrics:    metrics,
		logger:     l,
		period:     60 * time.Second,
		drainLimit: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the tick loop and runs an initial full pass immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		// initial bulk pass before the first timer fire
		s.Tick(ctx)

		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
	s.logger.Info("scheduler started", logger.Duration("period", s.period))
}

// Stop cancels the loop and waits for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

// State reports "idle" or "running" for operational monitoring.
func (s *Scheduler) State() string {
	if s.running.Load() {
		return StateRunning
	}
	return StateIdle
}

// Tick executes one tick body unless one is already in flight, in which
// case it is a no-op.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordError("tick_overlap")
		return false
	}
	defer s.running.Store(false)

	start := time.Now()

	swept := s.cache.Sweep()
	drained := s.pipeline.DrainQueue(ctx, s.drainLimit)

	res, err := s.recalc.RunFullPass(ctx)
	if err != nil {
		s.metrics.RecordError("batch_pass")
		s.logger.Error("batch pass failed", logger.Error(err))
	}

	ops, err := s.detector.Scan(ctx)
	if err != nil {
		s.logger.Error("opportunity scan failed", logger.Error(err))
	}
	s.pipeline.PublishOpportunities(ctx, ops)

	s.metrics.RecordLatency("scheduler_tick", time.Since(start).Seconds())
	s.logger.Info("scheduler tick complete",
		logger.Int("swept", swept),
		logger.Int("drained", drained),
		logger.Int("recalculated", res.Succeeded),
		logger.Int("opportunities", len(ops)),
		logger.Duration("took", time.Since(start)))
	return true
}
