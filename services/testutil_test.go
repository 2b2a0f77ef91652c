package services

import (
	"testing"
	"time"

	"season-reward-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
// A single connection keeps sqlite from seeing concurrent writers as
// lock contention.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.PlayerProgress{},
		&models.PlayerMirror{},
		&models.SeasonProgress{},
		&models.SeasonRewardGrant{},
		&models.SeasonPassPurchase{},
		&models.SeasonEventParticipation{},
	))
	return db
}

// contentAt wraps a season definition with a frozen clock.
func contentAt(season *models.SeasonDefinition, now time.Time) *SeasonContent {
	sc := NewSeasonContent(season)
	sc.Now = func() time.Time { return now }
	return sc
}

func timePtr(t time.Time) *time.Time { return &t }

// activeSeason returns a season whose window contains `now`.
func activeSeason(now time.Time) *models.SeasonDefinition {
	return &models.SeasonDefinition{
		ID:       "season-3",
		Number:   3,
		Name:     "Harbor Days",
		StartsAt: timePtr(now.Add(-24 * time.Hour)),
		EndsAt:   timePtr(now.Add(24 * time.Hour)),
	}
}

// endedSeason returns a season whose window closed before `now`.
func endedSeason(now time.Time) *models.SeasonDefinition {
	return &models.SeasonDefinition{
		ID:       "season-3",
		Number:   3,
		Name:     "Harbor Days",
		StartsAt: timePtr(now.Add(-48 * time.Hour)),
		EndsAt:   timePtr(now.Add(-1 * time.Hour)),
	}
}
