package usecase

import (
	"context"
	"math"
	"time"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
)

// Detection thresholds and the scan cap.
const (
	HighVolatilityThreshold = 0.15
	HighMomentumThreshold   = 2.0
	defaultScanLimit        = 50
)

// OpportunityDetector scans recently recalculated metrics for
// threshold-crossing volatility or momentum.
type OpportunityDetector struct {
	store   drepo.MetricsStore
	metrics drepo.Metrics
	window  time.Duration
	limit   int
	now     func() time.Time
}

// DetectorOption configures OpportunityDetector.
type DetectorOption func(*OpportunityDetector)

// WithScanWindow sets how far back the scan reaches.
func WithScanWindow(d time.Duration) DetectorOption {
	return func(o *OpportunityDetector) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithScanLimit caps how many metric records one scan reads.
func WithScanLimit(n int) DetectorOption {
	return func(o *OpportunityDetector) {
		if n > 0 {
			o.limit = n
		}
	}
}

// NewOpportunityDetector creates a detector with a 5 minute window.
func NewOpportunityDetector(store drepo.MetricsStore, metrics drepo.Metrics, opts ...DetectorOption) *OpportunityDetector {
	o := &OpportunityDetector{
		store:   store,
		metrics: metrics,
		window:  5 * time.Minute,
		limit:   defaultScanLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scan returns one opportunity per qualifying entity recalculated within the
// window.
func (o *OpportunityDetector) Scan(ctx context.Context) ([]*models.Opportunity, error) {
	since := o.now().Add(-o.window)
	recent, err := o.store.RecentlyUpdated(ctx, since, o.limit)
	if err != nil {
		o.metrics.RecordError("opportunity_scan")
		return nil, err
	}

	var out []*models.Opportunity
	for _, m := range recent {
		if op := Evaluate(m, o.now()); op != nil {
			o.metrics.RecordOpportunity(string(op.Kind))
			out = append(out, op)
		}
	}
	return out, nil
}

// Evaluate decides whether one metrics record presents an opportunity.
func Evaluate(m *models.TradingMetrics, at time.Time) *models.Opportunity {
	vol := m.VolatilityScore
	mom := m.MomentumScore
	if vol <= HighVolatilityThreshold && math.Abs(mom) <= HighMomentumThreshold {
		return nil
	}

	kind := models.OpportunityHighMomentum
	score := math.Abs(mom)
	if vol > HighVolatilityThreshold {
		kind = models.OpportunityHighVolatility
		if vol > score {
			score = vol
		}
	}
	return &models.Opportunity{
		EntityID:       m.EntityID,
		Kind:           kind,
		Score:          score,
		House:          m.HouseAffiliation,
		Recommendation: recommend(vol, mom),
		DetectedAt:     at,
	}
}

func recommend(volatility, momentum float64) string {
	switch {
	case volatility > 0.2:
		return "High volatility - consider protective strategies"
	case momentum > HighMomentumThreshold:
		return "Strong positive momentum - potential buying opportunity"
	case momentum < -HighMomentumThreshold:
		return "Negative momentum - consider selling or shorting"
	default:
		return "Moderate activity - monitor for changes"
	}
}
