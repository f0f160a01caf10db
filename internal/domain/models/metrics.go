package models

import "time"

// Score bounds. Every update clamps into these ranges.
const (
	VolatilityMin = 0.0
	VolatilityMax = 10.0
	MomentumMin   = -5.0
	MomentumMax   = 5.0
	MediaBoostMin = 0.5
	MediaBoostMax = 2.0
)

// ArcPhase describes where an entity's current storyline sits.
type ArcPhase string

const (
	PhaseOrigin        ArcPhase = "origin"
	PhaseRisingAction  ArcPhase = "rising_action"
	PhaseClimax        ArcPhase = "climax"
	PhaseFallingAction ArcPhase = "falling_action"
	PhaseResolution    ArcPhase = "resolution"
)

// PhaseMultipliers are per-phase volatility/momentum weights.
type PhaseMultipliers struct {
	Volatility float64
	Momentum   float64
}

// MultipliersForPhase returns the weights applied to an entity while its
// storyline is in the given phase.
func MultipliersForPhase(p ArcPhase) PhaseMultipliers {
	switch p {
	case PhaseOrigin:
		return PhaseMultipliers{Volatility: 1.2, Momentum: 0.6}
	case PhaseClimax:
		return PhaseMultipliers{Volatility: 1.8, Momentum: 1.5}
	case PhaseFallingAction:
		return PhaseMultipliers{Volatility: 0.9, Momentum: 0.4}
	case PhaseResolution:
		return PhaseMultipliers{Volatility: 0.8, Momentum: 0.2}
	default:
		return PhaseMultipliers{Volatility: 1.1, Momentum: 0.8}
	}
}

// TradingMetrics is the pipeline's primary mutable state, one record per
// entity. Mutated exclusively through the updater; superseded, never deleted.
type TradingMetrics struct {
	EntityID           string    `json:"entity_id"`
	VolatilityScore    float64   `json:"volatility_score"`   // [0, 10]
	MomentumScore      float64   `json:"momentum_score"`     // [-5, 5]
	MediaBoostFactor   float64   `json:"media_boost_factor"` // [0.5, 2.0]
	HouseAffiliation   string    `json:"house_affiliation"`
	StoryArcPhase      ArcPhase  `json:"story_arc_phase"`
	CalculationVersion int64     `json:"calculation_version"`
	LastRecalculatedAt time.Time `json:"last_recalculated_at"`
}

// NewBaselineMetrics returns the zeroed starting record for an entity that
// has never received a signal.
func NewBaselineMetrics(entityID string) *TradingMetrics {
	return &TradingMetrics{
		EntityID:         entityID,
		MediaBoostFactor: 1.0,
		HouseAffiliation: "heroes",
		StoryArcPhase:    PhaseRisingAction,
	}
}

// Clamp forces every score back into its declared range.
func (m *TradingMetrics) Clamp() {
	m.VolatilityScore = clamp(m.VolatilityScore, VolatilityMin, VolatilityMax)
	m.MomentumScore = clamp(m.MomentumScore, MomentumMin, MomentumMax)
	m.MediaBoostFactor = clamp(m.MediaBoostFactor, MediaBoostMin, MediaBoostMax)
}

// Clone returns a snapshot safe to hand to the cache or readers.
func (m *TradingMetrics) Clone() *TradingMetrics {
	cp := *m
	return &cp
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OpportunityKind tags why an entity crossed a threshold.
type OpportunityKind string

const (
	OpportunityHighVolatility OpportunityKind = "high_volatility"
	OpportunityHighMomentum   OpportunityKind = "high_momentum"
)

// Opportunity is a detected threshold-crossing surfaced for alerting.
type Opportunity struct {
	EntityID       string          `json:"entity_id"`
	Kind           OpportunityKind `json:"kind"`
	Score          float64         `json:"score"`
	House          string          `json:"house"`
	Recommendation string          `json:"recommendation"`
	DetectedAt     time.Time       `json:"detected_at"`
}

// PipelineStats tracks process-wide pipeline counters. Reset only on restart.
type PipelineStats struct {
	TotalProcessed        int64
	SuccessfulUpdates     int64
	Errors                int64
	LastProcessingTime    time.Time
	AverageProcessingTime time.Duration
}
