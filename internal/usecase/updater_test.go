package usecase

import (
	"context"
	"math"
	"sync"
	"testing"

	"PanelPulse/internal/domain/models"
)

func TestApplyClampsAndVersions(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	sigs := []models.Signal{
		{Kind: models.SignalVolatility, Magnitude: 6},
		{Kind: models.SignalVolatility, Magnitude: 7},
		{Kind: models.SignalMomentum, Magnitude: 4},
		{Kind: models.SignalSentiment, Magnitude: 3},
		{Kind: models.SignalCulturalImpact, Magnitude: 5},
	}
	m, err := rig.updater.Apply(ctx, "e1", sigs)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.VolatilityScore != models.VolatilityMax {
		t.Fatalf("volatility = %v, want clamp at %v", m.VolatilityScore, models.VolatilityMax)
	}
	if m.MomentumScore != models.MomentumMax {
		t.Fatalf("momentum = %v, want clamp at %v", m.MomentumScore, models.MomentumMax)
	}
	if m.MediaBoostFactor != models.MediaBoostMax {
		t.Fatalf("media boost = %v, want clamp at %v", m.MediaBoostFactor, models.MediaBoostMax)
	}
	if m.CalculationVersion != 1 {
		t.Fatalf("version = %d, want 1", m.CalculationVersion)
	}
	if m.LastRecalculatedAt.IsZero() {
		t.Fatalf("recalculated_at not stamped")
	}

	stored, err := rig.store.Load(ctx, "e1")
	if err != nil || stored == nil {
		t.Fatalf("store load: %v, %v", stored, err)
	}
	if stored.CalculationVersion != 1 {
		t.Fatalf("stored version = %d, want 1", stored.CalculationVersion)
	}
}

func TestApplyEmptySignals(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	m, err := rig.updater.Apply(ctx, "e1", nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m != nil {
		t.Fatalf("expected no-op for empty signals, got %+v", m)
	}
	if stored, _ := rig.store.Load(ctx, "e1"); stored != nil {
		t.Fatalf("empty apply wrote to store: %+v", stored)
	}
}

func TestApplyStartsFromBaseline(t *testing.T) {
	rig := newTestRig(t)

	m, err := rig.updater.Apply(context.Background(), "e1", []models.Signal{
		{Kind: models.SignalVolatility, Magnitude: 0.5},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.MediaBoostFactor != 1.0 {
		t.Fatalf("baseline media boost = %v, want 1.0", m.MediaBoostFactor)
	}
	if m.HouseAffiliation != "heroes" || m.StoryArcPhase != models.PhaseRisingAction {
		t.Fatalf("baseline defaults wrong: %+v", m)
	}
}

func TestApplyCharacterProfile(t *testing.T) {
	rig := newTestRig(t)

	m, err := rig.updater.ApplyCharacterProfile(context.Background(), "e1", "mystery", 3.0)
	if err != nil {
		t.Fatalf("apply profile: %v", err)
	}
	if m.HouseAffiliation != "mystery" {
		t.Fatalf("house = %q, want mystery", m.HouseAffiliation)
	}
	if math.Abs(m.VolatilityScore-0.3) > 1e-9 {
		t.Fatalf("volatility = %v, want 0.3", m.VolatilityScore)
	}
}

func TestApplyArcPhase(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	if _, err := rig.updater.Apply(ctx, "e1", []models.Signal{
		{Kind: models.SignalVolatility, Magnitude: 1.0},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	m, err := rig.updater.ApplyArcPhase(ctx, "e1", models.PhaseClimax)
	if err != nil {
		t.Fatalf("apply phase: %v", err)
	}
	if m.StoryArcPhase != models.PhaseClimax {
		t.Fatalf("phase = %v, want climax", m.StoryArcPhase)
	}
	if math.Abs(m.VolatilityScore-1.8) > 1e-9 {
		t.Fatalf("volatility = %v, want 1.8 after climax multiplier", m.VolatilityScore)
	}
	if m.CalculationVersion != 2 {
		t.Fatalf("version = %d, want 2", m.CalculationVersion)
	}
}

func TestRefreshShortCircuitsOnFreshCache(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	if _, err := rig.updater.Apply(ctx, "e1", []models.Signal{
		{Kind: models.SignalVolatility, Magnitude: 1.0},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	m, err := rig.updater.Refresh(ctx, "e1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if m.CalculationVersion != 1 {
		t.Fatalf("fresh cache refresh bumped version to %d", m.CalculationVersion)
	}

	rig.cache.Invalidate("e1")
	m, err = rig.updater.Refresh(ctx, "e1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if m.CalculationVersion != 2 {
		t.Fatalf("cold refresh version = %d, want 2", m.CalculationVersion)
	}
}

func TestConcurrentAppliesSameEntity(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	const writers = 40
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rig.updater.Apply(ctx, "e1", []models.Signal{
				{Kind: models.SignalVolatility, Magnitude: 0.1},
			})
			if err != nil {
				t.Errorf("apply: %v", err)
			}
		}()
	}
	wg.Wait()

	m, err := rig.store.Load(ctx, "e1")
	if err != nil || m == nil {
		t.Fatalf("load: %v, %v", m, err)
	}
	if m.CalculationVersion != writers {
		t.Fatalf("version = %d, want %d (lost update)", m.CalculationVersion, writers)
	}
	if math.Abs(m.VolatilityScore-4.0) > 1e-6 {
		t.Fatalf("volatility = %v, want 4.0", m.VolatilityScore)
	}
}
