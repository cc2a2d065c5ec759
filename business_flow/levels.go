package businessflow

import "github.com/mercat-labs/loyalty-platform/models"

// Experience thresholds per level. Past the table, every further level costs
// another 100 XP.
var levelThresholds = map[int]int{
	1:  0,
	2:  100,
	3:  250,
	4:  450,
	5:  700,
	6:  1000,
	7:  1350,
	8:  1750,
	9:  2200,
	10: 2700,
}

const maxTableLevel = 10

// XP awarded per valid ticket, plus a spend bonus above the threshold
const (
	validTicketXP    = 50
	spendBonusCutoff = 50.0
	spendBonusDiv    = 10.0
)

// LevelForXP returns the highest level whose threshold is at or below xp
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}

	level := 1
	for l := 2; l <= maxTableLevel; l++ {
		if xp >= levelThresholds[l] {
			level = l
		}
	}
	if level < maxTableLevel {
		return level
	}

	// Beyond the table each level costs a flat 100 XP
	extra := (xp - levelThresholds[maxTableLevel]) / 100
	return maxTableLevel + extra
}

// NextLevelThreshold returns the XP needed for the level after the given one
func NextLevelThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	if next, ok := levelThresholds[level+1]; ok {
		return next
	}

	current := levelThresholds[maxTableLevel] + (level-maxTableLevel)*100
	return current + 100
}

// ProgressPercentage reports progress toward the next level, capped at 100
func ProgressPercentage(xp int) float64 {
	next := NextLevelThreshold(LevelForXP(xp))
	if next <= 0 {
		return 100
	}

	progress := float64(xp) / float64(next) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// TicketXP computes the XP granted for one processed ticket
func TicketXP(isValid bool, totalAmount float64) int {
	if !isValid {
		return 0
	}

	xp := validTicketXP
	if totalAmount > spendBonusCutoff {
		xp += int(totalAmount / spendBonusDiv)
	}
	return xp
}

// badgeDefinition couples a badge type with its display copy and condition
type badgeDefinition struct {
	Type        string
	Name        string
	Description string
	Qualifies   func(profile *models.GamificationProfile) bool
}

// badgeDefinitions is evaluated in order after every ticket event
var badgeDefinitions = []badgeDefinition{
	{
		Type:        models.BadgeFirstScan,
		Name:        "Primer Escaneig",
		Description: "Has escanejat el teu primer tiquet",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.TotalTickets >= 1 },
	},
	{
		Type:        models.BadgeFirstValid,
		Name:        "Primera Compra Vàlida",
		Description: "Has escanejat el teu primer tiquet vàlid",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.ValidTickets >= 1 },
	},
	{
		Type:        models.BadgeTicketCollector,
		Name:        "Col·leccionista de Tiquets",
		Description: "Has escanejat 10 tiquets",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.TotalTickets >= 10 },
	},
	{
		Type:        models.BadgeValidCollector,
		Name:        "Col·leccionista Vàlid",
		Description: "Has escanejat 10 tiquets vàlids",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.ValidTickets >= 10 },
	},
	{
		Type:        models.BadgeBigSpender,
		Name:        "Gran Comprador",
		Description: "Has gastat més de 100€ en tiquets vàlids",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.TotalSpent >= 100 },
	},
	{
		Type:        models.BadgeStreak3,
		Name:        "Ratxa de 3 Dies",
		Description: "Has escanejat tiquets durant 3 dies consecutius",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.StreakDays >= 3 },
	},
	{
		Type:        models.BadgeStreak7,
		Name:        "Ratxa de 7 Dies",
		Description: "Has escanejat tiquets durant 7 dies consecutius",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.StreakDays >= 7 },
	},
	{
		Type:        models.BadgeLevel5,
		Name:        "Nivell 5",
		Description: "Has arribat al nivell 5",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.Level >= 5 },
	},
	{
		Type:        models.BadgeLevel10,
		Name:        "Nivell 10",
		Description: "Has arribat al nivell 10",
		Qualifies:   func(p *models.GamificationProfile) bool { return p.Level >= 10 },
	},
}
