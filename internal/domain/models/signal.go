package models

// SignalKind tags the metric a signal contributes to.
type SignalKind string

const (
	SignalVolatility     SignalKind = "volatility"
	SignalMomentum       SignalKind = "momentum"
	SignalSentiment      SignalKind = "sentiment"
	SignalCulturalImpact SignalKind = "cultural_impact"
)

// Signal is a bounded numeric contribution derived from one narrative event.
// Ephemeral: produced and consumed within a single pipeline pass.
type Signal struct {
	Kind          SignalKind
	Magnitude     float64
	Category      string // classification bucket, e.g. "character_death"
	OriginEventID string
}

// SumByKind groups signal magnitudes by kind.
func SumByKind(signals []Signal) map[SignalKind]float64 {
	sums := make(map[SignalKind]float64, 4)
	for _, s := range signals {
		sums[s.Kind] += s.Magnitude
	}
	return sums
}
