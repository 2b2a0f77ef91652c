package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"season-reward-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeason_FillsMissingIDs(t *testing.T) {
	season := &models.SeasonDefinition{
		Number: 3,
		Name:   "Harbor Days!",
		Events: []models.SeasonEvent{
			{Name: "Weekend Build-Off"},
			{ID: "kept-as-is", Name: "Something Else"},
		},
	}
	sc := NewSeasonContent(season)

	assert.Equal(t, "season-3-harbor-days", sc.Season().ID)
	assert.Equal(t, "weekend-build-off", sc.Season().Events[0].ID)
	assert.Equal(t, "kept-as-is", sc.Season().Events[1].ID)
}

func TestResolveActiveSeason_WindowChecks(t *testing.T) {
	now := time.Now()

	t.Run("nil season", func(t *testing.T) {
		_, err := contentAt(nil, now).ResolveActiveSeason()
		assert.ErrorIs(t, err, ErrSeasonNotFound)
	})

	t.Run("before start", func(t *testing.T) {
		season := activeSeason(now)
		season.StartsAt = timePtr(now.Add(time.Hour))
		_, err := contentAt(season, now).ResolveActiveSeason()
		assert.ErrorIs(t, err, ErrSeasonInactive)
	})

	t.Run("after end", func(t *testing.T) {
		_, err := contentAt(endedSeason(now), now).ResolveActiveSeason()
		assert.ErrorIs(t, err, ErrSeasonInactive)
	})

	t.Run("inside window", func(t *testing.T) {
		season, err := contentAt(activeSeason(now), now).ResolveActiveSeason()
		require.NoError(t, err)
		assert.Equal(t, "season-3", season.ID)
	})

	t.Run("no window configured runs forever", func(t *testing.T) {
		season := &models.SeasonDefinition{ID: "evergreen", Number: 1, Name: "Evergreen"}
		_, err := contentAt(season, now).ResolveActiveSeason()
		assert.NoError(t, err)
		assert.False(t, contentAt(season, now).SeasonEnded())
	})
}

func TestSeasonEnded(t *testing.T) {
	now := time.Now()

	assert.False(t, contentAt(activeSeason(now), now).SeasonEnded())
	assert.True(t, contentAt(endedSeason(now), now).SeasonEnded())
	assert.False(t, contentAt(nil, now).SeasonEnded())
}

func TestLoadSeasonContent_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "season.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"number": 3,
		"name": "Harbor Days",
		"battle_pass": {"enabled": true, "tiers": 10, "xp_per_tier": 500}
	}`), 0o644))

	t.Setenv("SEASON_CONTENT_KEY", "")
	t.Setenv("SEASON_CONTENT_FILE", path)

	sc, err := LoadSeasonContent()
	require.NoError(t, err)
	require.NotNil(t, sc.Season())
	assert.Equal(t, "season-3-harbor-days", sc.Season().ID)
	assert.True(t, sc.Season().BattlePass.Enabled)
	assert.Equal(t, int64(500), sc.Season().BattlePass.XPPerTier)
}

func TestLoadSeasonContent_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "season.json")
	require.NoError(t, os.WriteFile(path, []byte(`{nope`), 0o644))

	t.Setenv("SEASON_CONTENT_KEY", "")
	t.Setenv("SEASON_CONTENT_FILE", path)

	_, err := LoadSeasonContent()
	assert.Error(t, err)
}

func TestLoadSeasonContent_NothingConfigured(t *testing.T) {
	t.Setenv("SEASON_CONTENT_KEY", "")
	t.Setenv("SEASON_CONTENT_FILE", "")

	sc, err := LoadSeasonContent()
	require.NoError(t, err)
	assert.Nil(t, sc.Season())

	_, err = sc.ResolveActiveSeason()
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}
