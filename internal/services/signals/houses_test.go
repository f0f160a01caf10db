package signals

import (
	"testing"

	"PanelPulse/internal/domain/models"
)

func TestHouseAffiliationKeywords(t *testing.T) {
	c := &models.CharacterUpdate{
		Name:     "Night Shadow",
		Identity: "dark vigilante of the occult",
	}
	if got := HouseAffiliation(c); got != "mystery" {
		t.Fatalf("house = %q, want mystery", got)
	}
}

func TestHouseAffiliationStatBonus(t *testing.T) {
	// No keyword hits; the intelligence bonus alone should carry wisdom.
	c := &models.CharacterUpdate{
		Name:         "Quiet One",
		Intelligence: 9,
	}
	if got := HouseAffiliation(c); got != "wisdom" {
		t.Fatalf("house = %q, want wisdom", got)
	}

	c = &models.CharacterUpdate{Name: "Quiet One", Strength: 10}
	if got := HouseAffiliation(c); got != "power" {
		t.Fatalf("house = %q, want power", got)
	}

	c = &models.CharacterUpdate{Name: "Quiet One", Speed: 8}
	if got := HouseAffiliation(c); got != "time" {
		t.Fatalf("house = %q, want time", got)
	}
}

func TestHouseAffiliationAbilitiesAndTeams(t *testing.T) {
	c := &models.CharacterUpdate{
		Name:             "Gale",
		SpecialAbilities: []string{"storm summoning", "weather control"},
		Teams:            []string{"Elemental Guard"},
	}
	if got := HouseAffiliation(c); got != "elements" {
		t.Fatalf("house = %q, want elements", got)
	}
}

func TestHouseAffiliationDefault(t *testing.T) {
	if got := HouseAffiliation(&models.CharacterUpdate{Name: "Nobody"}); got != "heroes" {
		t.Fatalf("house = %q, want heroes default", got)
	}
}
