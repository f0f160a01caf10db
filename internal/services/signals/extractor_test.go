package signals

import (
	"math"
	"testing"

	"PanelPulse/internal/domain/models"
)

func TestClassifyEvent(t *testing.T) {
	cases := map[string]string{
		"Hero killed in battle":        CategoryCharacterDeath,
		"Shock death of a sidekick":    CategoryCharacterDeath,
		"Resurrection of the fallen":   CategoryResurrection,
		"Hero returned from the void":  CategoryResurrection,
		"Power upgrade after exposure": CategoryPowerUpgrade,
		"Identity reveal at the gala":  CategoryIdentityReveal,
		"Cosmic incursion begins":      CategoryCosmicEvent,
		"Team moves headquarters":      CategoryGeneralEvent,
	}
	for in, want := range cases {
		if got := ClassifyEvent(in); got != want {
			t.Fatalf("ClassifyEvent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEventImpactWeights(t *testing.T) {
	if got := EventImpact(CategoryCosmicEvent); got != 2.0 {
		t.Fatalf("cosmic impact = %v, want 2.0", got)
	}
	if got := EventImpact("unknown_bucket"); got != 0.2 {
		t.Fatalf("unknown impact = %v, want general 0.2", got)
	}
}

func TestMediaMomentum(t *testing.T) {
	// 0.1 base + log10(100)*0.05 + (90-50)*0.001 + 0.1 success = 0.34
	m := &models.MediaPerformance{
		FilmTitle:       "Crisis",
		WorldwideGross:  1e8,
		CriticScore:     90,
		SuccessCategory: "Success",
	}
	got := MediaMomentum(m)
	if math.Abs(got-0.34) > 1e-9 {
		t.Fatalf("media momentum = %v, want 0.34", got)
	}
}

func TestMediaMomentumClamps(t *testing.T) {
	high := &models.MediaPerformance{WorldwideGross: 1e12, CriticScore: 100, SuccessCategory: "Success"}
	if got := MediaMomentum(high); got != MediaBoostCeil {
		t.Fatalf("momentum = %v, want ceiling %v", got, MediaBoostCeil)
	}
	low := &models.MediaPerformance{WorldwideGross: 1, CriticScore: 10, SuccessCategory: "Flop"}
	if got := MediaMomentum(low); got != MediaBoostFloor {
		t.Fatalf("momentum = %v, want floor %v", got, MediaBoostFloor)
	}
}

func TestExtractStoryBeat(t *testing.T) {
	e := &models.NarrativeEvent{
		ID:   "beat-1",
		Type: models.EventStoryBeat,
		StoryBeat: &models.StoryBeat{
			BeatID:            "1",
			SignificantEvents: []string{"Hero killed in battle", "Cosmic incursion"},
		},
	}
	sigs := Extract(e)
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(sigs))
	}
	for _, s := range sigs {
		if s.Kind != models.SignalVolatility {
			t.Fatalf("story beat signal kind = %v, want volatility", s.Kind)
		}
		if s.OriginEventID != "beat-1" {
			t.Fatalf("origin = %q", s.OriginEventID)
		}
	}
	if sigs[0].Magnitude != 0.8 || sigs[1].Magnitude != 2.0 {
		t.Fatalf("magnitudes = %v, %v", sigs[0].Magnitude, sigs[1].Magnitude)
	}
}

func TestExtractComicIssue(t *testing.T) {
	e := &models.NarrativeEvent{
		ID:   "comic-1",
		Type: models.EventComicIssue,
		Comic: &models.ComicIssue{
			Series:           "Astral Tales",
			IssueName:        "#1",
			FirstAppearances: []string{"New Hero", "New Villain"},
			KeyIssueRating:   9,
		},
	}
	sigs := Extract(e)
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(sigs))
	}
	if sigs[0].Kind != models.SignalCulturalImpact || sigs[0].Magnitude != 0.1 {
		t.Fatalf("first appearances signal = %+v", sigs[0])
	}
	want := 0.1 * math.Log10(10)
	if math.Abs(sigs[1].Magnitude-want) > 1e-9 {
		t.Fatalf("key issue signal = %v, want %v", sigs[1].Magnitude, want)
	}
}

func TestExtractTimelineTransition(t *testing.T) {
	e := &models.NarrativeEvent{
		ID:   "timeline-1",
		Type: models.EventTimelineTransition,
		Transition: &models.TimelineTransition{
			TimelineID: "tl-1", Status: "completed",
		},
	}
	sigs := Extract(e)
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(sigs))
	}
	// resolution momentum multiplier 0.2 scaled by 0.1
	if sigs[0].Kind != models.SignalSentiment || math.Abs(sigs[0].Magnitude-0.02) > 1e-9 {
		t.Fatalf("transition signal = %+v", sigs[0])
	}
}

func TestPowerVolatilityFactor(t *testing.T) {
	if got := PowerVolatilityFactor(&models.CharacterUpdate{PowerLevel: 30}); got != 3.0 {
		t.Fatalf("factor = %v, want 3.0", got)
	}
	if got := PowerVolatilityFactor(&models.CharacterUpdate{PowerLevel: 1}); got != 0.5 {
		t.Fatalf("low factor = %v, want floor 0.5", got)
	}
	if got := PowerVolatilityFactor(&models.CharacterUpdate{PowerLevel: 900}); got != 5.0 {
		t.Fatalf("high factor = %v, want ceiling 5.0", got)
	}
	if got := PowerVolatilityFactor(&models.CharacterUpdate{}); got != 0.5 {
		t.Fatalf("zero power factor = %v, want 0.5", got)
	}
}

func TestArcPhaseForTimeline(t *testing.T) {
	cases := []struct {
		tr   models.TimelineTransition
		want models.ArcPhase
	}{
		{models.TimelineTransition{Status: "completed"}, models.PhaseResolution},
		{models.TimelineTransition{Status: "active", TimelineType: "character_arc"}, models.PhaseClimax},
		{models.TimelineTransition{Status: "active", TimelineType: "event"}, models.PhaseRisingAction},
	}
	for _, c := range cases {
		if got := ArcPhaseForTimeline(&c.tr); got != c.want {
			t.Fatalf("phase for %+v = %v, want %v", c.tr, got, c.want)
		}
	}
}
