package signals

import (
	"math"
	"strings"

	"PanelPulse/internal/domain/models"
)

// Event classification categories and their impact weights.
const (
	CategoryCharacterDeath = "character_death"
	CategoryResurrection   = "resurrection"
	CategoryPowerUpgrade   = "power_upgrade"
	CategoryIdentityReveal = "identity_reveal"
	CategoryCosmicEvent    = "cosmic_event"
	CategoryGeneralEvent   = "general_event"
)

var impactWeights = map[string]float64{
	CategoryCharacterDeath: 0.8,
	CategoryResurrection:   1.2,
	CategoryPowerUpgrade:   0.6,
	CategoryIdentityReveal: 0.4,
	CategoryCosmicEvent:    2.0,
	CategoryGeneralEvent:   0.2,
}

// Media momentum bounds and weights.
const (
	mediaBaseBoost   = 0.1
	mediaGrossWeight = 0.05
	mediaScoreWeight = 0.001
	MediaBoostFloor  = -0.2
	MediaBoostCeil   = 0.5
)

// ClassifyEvent buckets a free-text significant event into a category.
func ClassifyEvent(event string) string {
	s := strings.ToLower(event)
	switch {
	case strings.Contains(s, "death") || strings.Contains(s, "killed"):
		return CategoryCharacterDeath
	case strings.Contains(s, "resurrection") || strings.Contains(s, "returned"):
		return CategoryResurrection
	case strings.Contains(s, "power") && (strings.Contains(s, "gain") || strings.Contains(s, "upgrade")):
		return CategoryPowerUpgrade
	case strings.Contains(s, "reveal") || strings.Contains(s, "identity"):
		return CategoryIdentityReveal
	case strings.Contains(s, "cosmic") || strings.Contains(s, "universal"):
		return CategoryCosmicEvent
	default:
		return CategoryGeneralEvent
	}
}

// EventImpact returns the volatility weight for a classified category.
func EventImpact(category string) float64 {
	if w, ok := impactWeights[category]; ok {
		return w
	}
	return impactWeights[CategoryGeneralEvent]
}

// MediaMomentum computes the momentum signal for a media performance report:
// base + log10(gross/1e6)*0.05 + (critic-50)*0.001 + category adjustment,
// clamped to [-0.2, 0.5].
func MediaMomentum(m *models.MediaPerformance) float64 {
	boost := mediaBaseBoost
	if m.WorldwideGross > 0 {
		boost += math.Log10(m.WorldwideGross/1e6) * mediaGrossWeight
	}
	if m.CriticScore > 0 {
		boost += (m.CriticScore - 50.0) * mediaScoreWeight
	}
	switch m.SuccessCategory {
	case "Success":
		boost += 0.1
	case "Flop":
		boost -= 0.05
	}
	if boost < MediaBoostFloor {
		boost = MediaBoostFloor
	}
	if boost > MediaBoostCeil {
		boost = MediaBoostCeil
	}
	return boost
}

// Extract derives the ordered signal list for one narrative event.
// Deterministic given the classification tables; no side effects.
func Extract(e *models.NarrativeEvent) []models.Signal {
	var out []models.Signal

	switch e.Type {
	case models.EventStoryBeat:
		if e.StoryBeat != nil {
			out = append(out, significantEventSignals(e.ID, e.StoryBeat.SignificantEvents)...)
		}
	case models.EventComicIssue:
		if e.Comic != nil {
			out = append(out, significantEventSignals(e.ID, e.Comic.SignificantEvents)...)
			if n := len(e.Comic.FirstAppearances); n > 0 {
				out = append(out, models.Signal{
					Kind:          models.SignalCulturalImpact,
					Magnitude:     float64(n) * 0.05,
					Category:      "first_appearances",
					OriginEventID: e.ID,
				})
			}
			if r := e.Comic.KeyIssueRating; r > 0 {
				out = append(out, models.Signal{
					Kind:          models.SignalCulturalImpact,
					Magnitude:     0.1 * math.Log10(r+1),
					Category:      "key_issue_rating",
					OriginEventID: e.ID,
				})
			}
		}
	case models.EventCharacterUpdate:
		if e.Character != nil {
			out = append(out, models.Signal{
				Kind:          models.SignalVolatility,
				Magnitude:     PowerVolatilityFactor(e.Character) * 0.1,
				Category:      "power_level",
				OriginEventID: e.ID,
			})
		}
	case models.EventMediaPerformance:
		if e.Media != nil {
			out = append(out, models.Signal{
				Kind:          models.SignalMomentum,
				Magnitude:     MediaMomentum(e.Media),
				Category:      "media_performance",
				OriginEventID: e.ID,
			})
		}
	case models.EventTimelineTransition:
		if e.Transition != nil {
			phase := ArcPhaseForTimeline(e.Transition)
			mult := models.MultipliersForPhase(phase)
			out = append(out, models.Signal{
				Kind:          models.SignalSentiment,
				Magnitude:     mult.Momentum * 0.1,
				Category:      string(phase),
				OriginEventID: e.ID,
			})
		}
	}
	return out
}

func significantEventSignals(eventID string, events []string) []models.Signal {
	sigs := make([]models.Signal, 0, len(events))
	for _, ev := range events {
		cat := ClassifyEvent(ev)
		sigs = append(sigs, models.Signal{
			Kind:          models.SignalVolatility,
			Magnitude:     EventImpact(cat),
			Category:      cat,
			OriginEventID: eventID,
		})
	}
	return sigs
}

// PowerVolatilityFactor derives a volatility factor from a character's power
// level, clamped to [0.5, 5.0].
func PowerVolatilityFactor(c *models.CharacterUpdate) float64 {
	level := c.PowerLevel
	if level <= 0 {
		level = 1.0
	}
	f := level * 0.1
	if f < 0.5 {
		f = 0.5
	}
	if f > 5.0 {
		f = 5.0
	}
	return f
}

// ArcPhaseForTimeline maps a timeline transition to a story arc phase.
func ArcPhaseForTimeline(t *models.TimelineTransition) models.ArcPhase {
	switch {
	case t.Status == "completed":
		return models.PhaseResolution
	case t.TimelineType == "character_arc":
		return models.PhaseClimax
	default:
		return models.PhaseRisingAction
	}
}
