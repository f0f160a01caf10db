package models

import "time"

// EventType tags a narrative event variant.
type EventType string

const (
	EventStoryBeat          EventType = "story_beat"
	EventComicIssue         EventType = "comic_issue"
	EventCharacterUpdate    EventType = "character_update"
	EventMediaPerformance   EventType = "media_performance"
	EventTimelineTransition EventType = "timeline_transition"
)

// NarrativeEvent is the tagged union consumed by the pipeline. Exactly one of
// the payload pointers matching Type is set.
type NarrativeEvent struct {
	ID         string
	Type       EventType
	OccurredAt time.Time

	StoryBeat  *StoryBeat
	Comic      *ComicIssue
	Character  *CharacterUpdate
	Media      *MediaPerformance
	Transition *TimelineTransition
}

// StoryBeat is a published beat of an ongoing storyline.
type StoryBeat struct {
	BeatID            string
	Title             string
	TimelineID        string
	PrimaryEntities   []string
	SecondaryEntities []string
	SignificantEvents []string
}

// ComicIssue is a released issue with its creative team and notable events.
type ComicIssue struct {
	Series            string
	IssueName         string
	FirstAppearances  []string
	Writers           []string
	Artists           []string
	SignificantEvents []string
	KeyIssueRating    float64
}

// CharacterUpdate carries a character's refreshed stat snapshot.
type CharacterUpdate struct {
	Name             string
	Identity         string
	PowerLevel       float64
	Strength         int
	Speed            int
	Intelligence     int
	SpecialAbilities []string
	Teams            []string
}

// MediaPerformance reports box-office and critic results for a film or show.
type MediaPerformance struct {
	FilmTitle          string
	FeaturedCharacters []string
	WorldwideGross     float64
	CriticScore        float64
	SuccessCategory    string // "Success", "Average", "Flop"
}

// TimelineTransition signals a timeline/phase status change.
type TimelineTransition struct {
	TimelineID   string
	TimelineName string
	Status       string // "active", "completed"
	TimelineType string // "event", "character_arc"
	Scope        string
	Universe     string
}

// EntityNames returns every named participant the event references,
// in declaration order. Used by the resolver.
func (e *NarrativeEvent) EntityNames() []string {
	var names []string
	switch e.Type {
	case EventStoryBeat:
		if e.StoryBeat != nil {
			names = append(names, e.StoryBeat.PrimaryEntities...)
			names = append(names, e.StoryBeat.SecondaryEntities...)
		}
	case EventComicIssue:
		if e.Comic != nil {
			names = append(names, e.Comic.FirstAppearances...)
			names = append(names, e.Comic.Writers...)
			names = append(names, e.Comic.Artists...)
			names = append(names, e.Comic.Series)
		}
	case EventCharacterUpdate:
		if e.Character != nil {
			names = append(names, e.Character.Name)
		}
	case EventMediaPerformance:
		if e.Media != nil {
			names = append(names, e.Media.FeaturedCharacters...)
			names = append(names, e.Media.FilmTitle)
		}
	case EventTimelineTransition:
		if e.Transition != nil {
			names = append(names, e.Transition.TimelineName)
		}
	}
	return names
}
