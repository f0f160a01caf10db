package usecase

import (
	"context"
	"testing"
	"time"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
	"PanelPulse/pkg/metrics"
)

// blockingCatalog parks List until released, to hold a tick in flight.
type blockingCatalog struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCatalog) ResolveByName(context.Context, string) (*models.TradableEntity, error) {
	return nil, models.ErrEntityUnknown
}

func (b *blockingCatalog) List(context.Context) ([]*models.TradableEntity, error) {
	b.entered <- struct{}{}
	<-b.release
	return nil, nil
}

func (b *blockingCatalog) Health(context.Context) error { return nil }

func newTestScheduler(t *testing.T, rig *testRig, catalog drepo.EntityCatalog, opts ...SchedulerOption) *Scheduler {
	t.Helper()
	l := testLogger(t)
	noop := metrics.Noop{}
	recalc := NewBatchRecalculator(catalog, rig.updater, noop, l, WithChunkPause(0))
	detector := NewOpportunityDetector(rig.store, noop)
	return NewScheduler(rig.pipeline, recalc, detector, rig.cache, noop, l, opts...)
}

func TestTickSingleFlight(t *testing.T) {
	rig := newTestRig(t)
	cat := &blockingCatalog{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestScheduler(t, rig, cat)

	done := make(chan bool)
	go func() { done <- s.Tick(context.Background()) }()
	<-cat.entered

	if s.State() != StateRunning {
		t.Fatalf("state = %q, want running while tick is in flight", s.State())
	}
	if s.Tick(context.Background()) {
		t.Fatalf("overlapping tick should be dropped")
	}

	close(cat.release)
	if !<-done {
		t.Fatalf("first tick should have run")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %q, want idle after tick", s.State())
	}
}

func TestTickDrainsQueueAndScans(t *testing.T) {
	rig := newTestRig(t, character("e1", "Hero Man"))
	ctx := context.Background()

	// Seed a hot entity so the scan has something to find.
	if _, err := rig.updater.Apply(ctx, "e1", []models.Signal{
		{Kind: models.SignalVolatility, Magnitude: 0.5},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	rig.pipeline.QueueRefresh("e2")

	s := newTestScheduler(t, rig, rig.catalog)
	if !s.Tick(ctx) {
		t.Fatalf("tick should run")
	}

	if got := rig.pipeline.QueueLen(); got != 0 {
		t.Fatalf("queue len = %d, want 0 after drain", got)
	}
	if got := rig.alerts.Published(); len(got) != 1 || got[0].EntityID != "e1" {
		t.Fatalf("published = %+v, want one alert for e1", got)
	}
	if len(rig.pipeline.RecentOpportunities(10)) != 1 {
		t.Fatalf("recent opportunities not recorded")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	rig := newTestRig(t, character("e1", "Hero Man"))
	s := newTestScheduler(t, rig, rig.catalog, WithTickPeriod(time.Hour), WithDrainLimit(5))

	s.Start(context.Background())

	// The initial tick refreshes the cataloged entity.
	deadline := time.Now().Add(2 * time.Second)
	for {
		m, err := rig.store.Load(context.Background(), "e1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if m != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("initial tick never refreshed e1")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Stop()
	if s.State() != StateIdle {
		t.Fatalf("state = %q, want idle after stop", s.State())
	}

	// Stop again is a no-op.
	s.Stop()
}
