package usecase

import (
	"context"
	"testing"
	"time"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/repository"
	"PanelPulse/pkg/metrics"
)

func TestEvaluateHighVolatility(t *testing.T) {
	at := time.Now()
	m := &models.TradingMetrics{EntityID: "e1", VolatilityScore: 0.3, HouseAffiliation: "mystery"}

	op := Evaluate(m, at)
	if op == nil {
		t.Fatalf("expected opportunity")
	}
	if op.Kind != models.OpportunityHighVolatility {
		t.Fatalf("kind = %v, want high_volatility", op.Kind)
	}
	if op.Score != 0.3 || op.House != "mystery" || !op.DetectedAt.Equal(at) {
		t.Fatalf("unexpected opportunity: %+v", op)
	}
	if op.Recommendation != "High volatility - consider protective strategies" {
		t.Fatalf("recommendation = %q", op.Recommendation)
	}
}

func TestEvaluateHighMomentum(t *testing.T) {
	m := &models.TradingMetrics{EntityID: "e1", VolatilityScore: 0.1, MomentumScore: -3.0}

	op := Evaluate(m, time.Now())
	if op == nil {
		t.Fatalf("expected opportunity")
	}
	if op.Kind != models.OpportunityHighMomentum {
		t.Fatalf("kind = %v, want high_momentum", op.Kind)
	}
	if op.Score != 3.0 {
		t.Fatalf("score = %v, want 3.0 (absolute momentum)", op.Score)
	}
	if op.Recommendation != "Negative momentum - consider selling or shorting" {
		t.Fatalf("recommendation = %q", op.Recommendation)
	}
}

func TestEvaluatePositiveMomentumRecommendation(t *testing.T) {
	m := &models.TradingMetrics{EntityID: "e1", VolatilityScore: 0.05, MomentumScore: 2.5}

	op := Evaluate(m, time.Now())
	if op == nil || op.Kind != models.OpportunityHighMomentum || op.Score != 2.5 {
		t.Fatalf("unexpected opportunity: %+v", op)
	}
	if op.Recommendation != "Strong positive momentum - potential buying opportunity" {
		t.Fatalf("recommendation = %q", op.Recommendation)
	}
}

func TestEvaluateModerateVolatilityRecommendation(t *testing.T) {
	// Above the detection threshold, below the protective-strategy cut.
	m := &models.TradingMetrics{EntityID: "e1", VolatilityScore: 0.18}

	op := Evaluate(m, time.Now())
	if op == nil || op.Kind != models.OpportunityHighVolatility {
		t.Fatalf("unexpected opportunity: %+v", op)
	}
	if op.Recommendation != "Moderate activity - monitor for changes" {
		t.Fatalf("recommendation = %q", op.Recommendation)
	}
}

func TestEvaluateQuietEntity(t *testing.T) {
	m := &models.TradingMetrics{EntityID: "e1", VolatilityScore: 0.1, MomentumScore: 1.0}
	if op := Evaluate(m, time.Now()); op != nil {
		t.Fatalf("expected nil for quiet entity, got %+v", op)
	}
}

func TestScanWindow(t *testing.T) {
	store := repository.NewMemoryMetricsStore()
	ctx := context.Background()
	now := time.Now()

	recent := &models.TradingMetrics{EntityID: "hot", VolatilityScore: 0.5, LastRecalculatedAt: now.Add(-time.Minute)}
	stale := &models.TradingMetrics{EntityID: "old", VolatilityScore: 0.5, LastRecalculatedAt: now.Add(-time.Hour)}
	quiet := &models.TradingMetrics{EntityID: "calm", VolatilityScore: 0.01, LastRecalculatedAt: now.Add(-time.Minute)}
	for _, m := range []*models.TradingMetrics{recent, stale, quiet} {
		if err := store.Store(ctx, m); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	d := NewOpportunityDetector(store, metrics.Noop{})
	d.now = func() time.Time { return now }

	ops, err := d.Scan(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(ops))
	}
	if ops[0].EntityID != "hot" {
		t.Fatalf("entity = %q, want hot", ops[0].EntityID)
	}
}
