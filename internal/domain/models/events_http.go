package models

// Requests for the event submission endpoints. Defined in domain for
// consistency and reuse.

type StoryBeatRequest struct {
	BeatID            string   `json:"beat_id" validate:"required"`
	Title             string   `json:"title" validate:"required"`
	TimelineID        string   `json:"timeline_id"`
	PrimaryEntities   []string `json:"primary_entities"`
	SecondaryEntities []string `json:"secondary_entities"`
	SignificantEvents []string `json:"significant_events"`
}

type ComicIssueRequest struct {
	Series            string   `json:"series" validate:"required"`
	IssueName         string   `json:"issue_name" validate:"required"`
	FirstAppearances  []string `json:"first_appearances"`
	Writers           []string `json:"writers"`
	Artists           []string `json:"artists"`
	SignificantEvents []string `json:"significant_events"`
	KeyIssueRating    float64  `json:"key_issue_rating" validate:"gte=0,lte=10"`
}

type CharacterUpdateRequest struct {
	Name             string   `json:"name" validate:"required"`
	Identity         string   `json:"identity"`
	PowerLevel       float64  `json:"power_level" validate:"gte=0"`
	Strength         int      `json:"strength" default:"1" validate:"gte=1,lte=10"`
	Speed            int      `json:"speed" default:"1" validate:"gte=1,lte=10"`
	Intelligence     int      `json:"intelligence" default:"1" validate:"gte=1,lte=10"`
	SpecialAbilities []string `json:"special_abilities"`
	Teams            []string `json:"teams"`
}

type MediaPerformanceRequest struct {
	FilmTitle          string   `json:"film_title" validate:"required"`
	FeaturedCharacters []string `json:"featured_characters"`
	WorldwideGross     float64  `json:"worldwide_gross" validate:"gte=0"`
	CriticScore        float64  `json:"critic_score" validate:"gte=0,lte=100"`
	SuccessCategory    string   `json:"success_category" default:"Average" validate:"oneof=Success Average Flop"`
}

type TimelineTransitionRequest struct {
	TimelineID   string `json:"timeline_id" validate:"required"`
	TimelineName string `json:"timeline_name" validate:"required"`
	Status       string `json:"status" default:"active" validate:"oneof=active completed"`
	TimelineType string `json:"timeline_type" default:"event" validate:"oneof=event character_arc"`
	Scope        string `json:"scope"`
	Universe     string `json:"universe"`
}

type OpportunitiesRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
