package usecase

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"PanelPulse/internal/domain/models"
)

func TestProcessStoryBeat(t *testing.T) {
	rig := newTestRig(t, character("e1", "Hero Man"))
	ctx := context.Background()

	err := rig.pipeline.SubmitStoryBeat(ctx, &models.StoryBeat{
		BeatID:            "42",
		Title:             "The Fall",
		PrimaryEntities:   []string{"Hero Man"},
		SignificantEvents: []string{"Hero killed in battle"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	m, err := rig.store.Load(ctx, "e1")
	if err != nil || m == nil {
		t.Fatalf("load: %v, %v", m, err)
	}
	if math.Abs(m.VolatilityScore-0.8) > 1e-9 {
		t.Fatalf("volatility = %v, want 0.8 (character death weight)", m.VolatilityScore)
	}
	if m.CalculationVersion != 1 {
		t.Fatalf("version = %d, want 1", m.CalculationVersion)
	}

	stats := rig.pipeline.Stats()
	if stats.TotalProcessed != 1 || stats.SuccessfulUpdates != 1 || stats.Errors != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestProcessEventNoKnownEntities(t *testing.T) {
	rig := newTestRig(t)

	err := rig.pipeline.SubmitStoryBeat(context.Background(), &models.StoryBeat{
		BeatID:          "1",
		PrimaryEntities: []string{"Unknown Stranger"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stats := rig.pipeline.Stats()
	if stats.TotalProcessed != 1 || stats.SuccessfulUpdates != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSubmitCharacterUpdate(t *testing.T) {
	rig := newTestRig(t, character("e1", "Hero Man"))
	ctx := context.Background()

	err := rig.pipeline.SubmitCharacterUpdate(ctx, &models.CharacterUpdate{
		Name:       "Hero Man",
		PowerLevel: 30,
		Strength:   10,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	m, err := rig.store.Load(ctx, "e1")
	if err != nil || m == nil {
		t.Fatalf("load: %v, %v", m, err)
	}
	// power signal 3.0*0.1 plus profile volatility 3.0*0.1
	if math.Abs(m.VolatilityScore-0.6) > 1e-9 {
		t.Fatalf("volatility = %v, want 0.6", m.VolatilityScore)
	}
	if m.HouseAffiliation != "power" {
		t.Fatalf("house = %q, want power (strength bonus)", m.HouseAffiliation)
	}
	if m.CalculationVersion != 2 {
		t.Fatalf("version = %d, want 2 (signal apply + profile)", m.CalculationVersion)
	}
}

func TestSubmitTimelineTransition(t *testing.T) {
	rig := newTestRig(t, &models.TradableEntity{ID: "s1", Name: "Infinity Saga", Kind: models.EntitySeries})
	ctx := context.Background()

	err := rig.pipeline.SubmitTimelineTransition(ctx, &models.TimelineTransition{
		TimelineID:   "tl-1",
		TimelineName: "Infinity Saga",
		Status:       "completed",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	m, err := rig.store.Load(ctx, "s1")
	if err != nil || m == nil {
		t.Fatalf("load: %v, %v", m, err)
	}
	if m.StoryArcPhase != models.PhaseResolution {
		t.Fatalf("phase = %v, want resolution", m.StoryArcPhase)
	}
	// resolution sentiment signal lands in momentum
	if math.Abs(m.MomentumScore-0.02) > 1e-9 {
		t.Fatalf("momentum = %v, want 0.02", m.MomentumScore)
	}
	if m.CalculationVersion != 2 {
		t.Fatalf("version = %d, want 2 (signal apply + phase stamp)", m.CalculationVersion)
	}
}

func TestQueueRefreshDedupAndDrain(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	rig.pipeline.QueueRefresh("e1")
	rig.pipeline.QueueRefresh("e1")
	rig.pipeline.QueueRefresh("e2")
	if got := rig.pipeline.QueueLen(); got != 2 {
		t.Fatalf("queue len = %d, want 2 after dedup", got)
	}

	if drained := rig.pipeline.DrainQueue(ctx, 1); drained != 1 {
		t.Fatalf("drained = %d, want 1", drained)
	}
	if got := rig.pipeline.QueueLen(); got != 1 {
		t.Fatalf("queue len = %d, want 1", got)
	}

	if drained := rig.pipeline.DrainQueue(ctx, 10); drained != 1 {
		t.Fatalf("drained = %d, want 1", drained)
	}
	if got := rig.pipeline.QueueLen(); got != 0 {
		t.Fatalf("queue len = %d, want 0", got)
	}

	m, err := rig.store.Load(ctx, "e1")
	if err != nil || m == nil {
		t.Fatalf("load: %v, %v", m, err)
	}
	if m.CalculationVersion != 1 {
		t.Fatalf("version = %d, want 1 after queued refresh", m.CalculationVersion)
	}
}

func TestPublishAndRecentOpportunities(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	ops := []*models.Opportunity{
		{EntityID: "a", Kind: models.OpportunityHighVolatility, Score: 0.3},
		{EntityID: "b", Kind: models.OpportunityHighMomentum, Score: 2.5},
		{EntityID: "c", Kind: models.OpportunityHighVolatility, Score: 0.5},
	}
	rig.pipeline.PublishOpportunities(ctx, ops)

	if got := rig.alerts.Published(); len(got) != 3 {
		t.Fatalf("published %d alerts, want 3", len(got))
	}

	recent := rig.pipeline.RecentOpportunities(2)
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(recent))
	}
	if recent[0].EntityID != "c" || recent[1].EntityID != "b" {
		t.Fatalf("order = %s, %s, want newest first", recent[0].EntityID, recent[1].EntityID)
	}
}

func TestRecentOpportunitiesRingCap(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		rig.pipeline.PublishOpportunities(ctx, []*models.Opportunity{
			{EntityID: fmt.Sprintf("e%03d", i), Kind: models.OpportunityHighVolatility},
		})
	}

	all := rig.pipeline.RecentOpportunities(0)
	if len(all) != recentOpportunityCap {
		t.Fatalf("ring holds %d, want %d", len(all), recentOpportunityCap)
	}
	if all[0].EntityID != "e249" {
		t.Fatalf("newest = %s, want e249", all[0].EntityID)
	}
}

func TestStatsRunningAverage(t *testing.T) {
	rig := newTestRig(t)

	base := time.Now()
	rig.pipeline.now = func() time.Time { return base }

	rig.pipeline.recordOutcome(base.Add(-100*time.Millisecond), true)
	rig.pipeline.recordOutcome(base.Add(-300*time.Millisecond), false)

	stats := rig.pipeline.Stats()
	if stats.TotalProcessed != 2 || stats.SuccessfulUpdates != 1 || stats.Errors != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.AverageProcessingTime != 200*time.Millisecond {
		t.Fatalf("average = %v, want 200ms", stats.AverageProcessingTime)
	}
	if !stats.LastProcessingTime.Equal(base) {
		t.Fatalf("last processing time = %v, want %v", stats.LastProcessingTime, base)
	}
}
