package models

// EntityKind classifies a tradable entity.
type EntityKind string

const (
	EntityCharacter EntityKind = "character"
	EntityCreator   EntityKind = "creator"
	EntitySeries    EntityKind = "series"
)

// TradableEntity is a catalog record the pipeline reads but never mutates.
type TradableEntity struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     EntityKind `json:"kind"`
	Universe string     `json:"universe"`
}
