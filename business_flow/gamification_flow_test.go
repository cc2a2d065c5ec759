package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/utils"
)

func TestUpdateStreak(t *testing.T) {
	gf := &GamificationFlowImpl{}
	day := func(d, hour int) time.Time {
		return time.Date(2025, time.March, d, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name         string
		lastScan     *time.Time
		streak       int
		scanAt       time.Time
		wantStreak   int
		wantLastScan time.Time
	}{
		{
			name:         "first scan starts at one",
			lastScan:     nil,
			streak:       0,
			scanAt:       day(10, 9),
			wantStreak:   1,
			wantLastScan: day(10, 0),
		},
		{
			name:         "same day leaves the streak alone",
			lastScan:     utils.ToPtr(day(10, 0)),
			streak:       4,
			scanAt:       day(10, 23),
			wantStreak:   4,
			wantLastScan: day(10, 0),
		},
		{
			name:         "next day increments",
			lastScan:     utils.ToPtr(day(10, 0)),
			streak:       4,
			scanAt:       day(11, 1),
			wantStreak:   5,
			wantLastScan: day(11, 0),
		},
		{
			name:         "stored timestamp compares by calendar day",
			lastScan:     utils.ToPtr(day(10, 14)),
			streak:       1,
			scanAt:       day(11, 2),
			wantStreak:   2,
			wantLastScan: day(11, 0),
		},
		{
			name:         "two day gap resets",
			lastScan:     utils.ToPtr(day(10, 0)),
			streak:       4,
			scanAt:       day(12, 1),
			wantStreak:   1,
			wantLastScan: day(12, 0),
		},
		{
			name:         "earlier date resets",
			lastScan:     utils.ToPtr(day(10, 0)),
			streak:       4,
			scanAt:       day(8, 1),
			wantStreak:   1,
			wantLastScan: day(8, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.GamificationProfile{
				LastScanDate: tt.lastScan,
				StreakDays:   tt.streak,
			}
			gf.updateStreak(profile, tt.scanAt)
			assert.Equal(t, tt.wantStreak, profile.StreakDays)
			require.NotNil(t, profile.LastScanDate)
			assert.True(t, profile.LastScanDate.Equal(tt.wantLastScan))
		})
	}
}

func TestBadgeThresholds(t *testing.T) {
	byType := func(t *testing.T, badgeType string) badgeDefinition {
		t.Helper()
		for _, definition := range badgeDefinitions {
			if definition.Type == badgeType {
				return definition
			}
		}
		t.Fatalf("no badge definition for type %q", badgeType)
		return badgeDefinition{}
	}

	tests := []struct {
		name      string
		badgeType string
		profile   models.GamificationProfile
		qualifies bool
	}{
		{name: "first scan after one ticket", badgeType: models.BadgeFirstScan, profile: models.GamificationProfile{TotalTickets: 1}, qualifies: true},
		{name: "first scan needs a ticket", badgeType: models.BadgeFirstScan, profile: models.GamificationProfile{}, qualifies: false},
		{name: "first valid needs a valid ticket", badgeType: models.BadgeFirstValid, profile: models.GamificationProfile{TotalTickets: 3}, qualifies: false},
		{name: "first valid after one valid ticket", badgeType: models.BadgeFirstValid, profile: models.GamificationProfile{TotalTickets: 3, ValidTickets: 1}, qualifies: true},
		{name: "collector at ten tickets", badgeType: models.BadgeTicketCollector, profile: models.GamificationProfile{TotalTickets: 10}, qualifies: true},
		{name: "collector below ten", badgeType: models.BadgeTicketCollector, profile: models.GamificationProfile{TotalTickets: 9}, qualifies: false},
		{name: "valid collector at ten valid", badgeType: models.BadgeValidCollector, profile: models.GamificationProfile{ValidTickets: 10}, qualifies: true},
		{name: "valid collector below ten", badgeType: models.BadgeValidCollector, profile: models.GamificationProfile{TotalTickets: 20, ValidTickets: 9}, qualifies: false},
		{name: "big spender at a hundred", badgeType: models.BadgeBigSpender, profile: models.GamificationProfile{TotalSpent: 100}, qualifies: true},
		{name: "big spender just below", badgeType: models.BadgeBigSpender, profile: models.GamificationProfile{TotalSpent: 99.99}, qualifies: false},
		{name: "three day streak", badgeType: models.BadgeStreak3, profile: models.GamificationProfile{StreakDays: 3}, qualifies: true},
		{name: "two day streak is short", badgeType: models.BadgeStreak3, profile: models.GamificationProfile{StreakDays: 2}, qualifies: false},
		{name: "seven day streak", badgeType: models.BadgeStreak7, profile: models.GamificationProfile{StreakDays: 7}, qualifies: true},
		{name: "six day streak is short", badgeType: models.BadgeStreak7, profile: models.GamificationProfile{StreakDays: 6}, qualifies: false},
		{name: "level five", badgeType: models.BadgeLevel5, profile: models.GamificationProfile{Level: 5}, qualifies: true},
		{name: "level four misses level five", badgeType: models.BadgeLevel5, profile: models.GamificationProfile{Level: 4}, qualifies: false},
		{name: "level ten", badgeType: models.BadgeLevel10, profile: models.GamificationProfile{Level: 10}, qualifies: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			definition := byType(t, tt.badgeType)
			assert.Equal(t, tt.qualifies, definition.Qualifies(&tt.profile))
		})
	}
}
