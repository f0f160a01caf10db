package signals

import (
	"strings"

	"PanelPulse/internal/domain/models"
)

var houseOrder = []string{"heroes", "wisdom", "power", "mystery", "elements", "time", "spirit"}

var houseKeywords = map[string][]string{
	"heroes":   {"hero", "captain", "spider", "superman", "wonder", "flash", "heroic", "justice", "protect", "avenger"},
	"wisdom":   {"doctor", "professor", "sage", "oracle", "scholar", "strange", "detective", "mystery", "intelligent"},
	"power":    {"hulk", "thor", "strength", "cosmic", "phoenix", "galactus", "omega", "infinity", "powerful"},
	"mystery":  {"batman", "shadow", "night", "dark", "mystic", "occult", "secret", "hidden", "stealth"},
	"elements": {"storm", "fire", "ice", "earth", "water", "elemental", "nature", "environment", "weather"},
	"time":     {"time", "temporal", "chrono", "speed", "future", "past", "timeline", "paradox", "fast"},
	"spirit":   {"ghost", "spirit", "soul", "astral", "phantom", "supernatural", "afterlife", "mystical", "magic"},
}

// HouseAffiliation scores a character against the house keyword tables plus
// stat bonuses and returns the best match. Ties keep the default "heroes".
func HouseAffiliation(c *models.CharacterUpdate) string {
	searchText := strings.ToLower(strings.Join([]string{
		c.Name, c.Identity,
		strings.Join(c.SpecialAbilities, " "),
		strings.Join(c.Teams, " "),
	}, " "))

	// fixed order so equal scores resolve the same way every run
	bestHouse, bestScore := "heroes", 0
	for _, house := range houseOrder {
		score := 0
		for _, kw := range houseKeywords[house] {
			if strings.Contains(searchText, kw) {
				score++
			}
		}
		switch {
		case house == "wisdom" && c.Intelligence >= 8:
			score += 2
		case house == "power" && c.Strength >= 8:
			score += 2
		case house == "time" && c.Speed >= 8:
			score += 2
		}
		if score > bestScore {
			bestHouse, bestScore = house, score
		}
	}
	return bestHouse
}
