package services

import (
	"errors"
	"fmt"
	"log"

	"season-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// rankRefreshWindow is how many participants get a stored rank per refresh.
const rankRefreshWindow = 1000

// SeasonProgressTracker accumulates per-player season counters and computes
// leaderboard positions. Counters use atomic SQL increments so concurrent
// taps and ticks never lose updates.
type SeasonProgressTracker struct {
	DB       *gorm.DB
	Content  *SeasonContent
	Curve    *LevelCurve
	Rewards  *ActionRewardCalculator
	Progress *ProgressStore
}

func NewSeasonProgressTracker(db *gorm.DB, content *SeasonContent, curve *LevelCurve, progress *ProgressStore) *SeasonProgressTracker {
	return &SeasonProgressTracker{
		DB:       db,
		Content:  content,
		Curve:    curve,
		Rewards:  NewActionRewardCalculator(curve),
		Progress: progress,
	}
}

// RecordExperience adds season XP for the player. Silent no-op when no
// season is active — accrual must never fail normal gameplay calls.
func (t *SeasonProgressTracker) RecordExperience(externalUserID string, amount int64) error {
	return t.recordDelta(externalUserID, "season_xp", amount)
}

// RecordProduction adds to the player's season production counter.
func (t *SeasonProgressTracker) RecordProduction(externalUserID string, amount int64) error {
	return t.recordDelta(externalUserID, "production", amount)
}

func (t *SeasonProgressTracker) recordDelta(externalUserID, column string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	season, err := t.Content.ResolveActiveSeason()
	if err != nil {
		if IsDomainError(err) {
			return nil // no active season — accrual quietly skipped
		}
		return err
	}

	if err := t.ensureSeasonRow(externalUserID, season.ID); err != nil {
		return err
	}
	return t.DB.Model(&models.SeasonProgress{}).
		Where("external_user_id = ? AND season_id = ?", externalUserID, season.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", amount)).Error
}

// ensureSeasonRow lazily creates the (player, season) row with zero counters.
func (t *SeasonProgressTracker) ensureSeasonRow(externalUserID, seasonID string) error {
	var existing models.SeasonProgress
	err := t.DB.Select("id").
		Where("external_user_id = ? AND season_id = ?", externalUserID, seasonID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	row := models.SeasonProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		SeasonID:       seasonID,
	}
	if err := t.DB.Create(&row).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

// RecordConstruction is the gameplay entry point for a finished build job:
// computes the bounded XP reward at the performer's current level, credits
// lifetime XP, and accrues season XP + production.
func (t *SeasonProgressTracker) RecordConstruction(externalUserID string, tier int, durationMinutes float64, quality float64) (ActionReward, error) {
	player, err := t.Progress.EnsurePlayer(externalUserID)
	if err != nil {
		return ActionReward{}, err
	}

	lp := t.Curve.LevelFromTotalXP(float64(player.TotalXP))
	reward := t.Rewards.Calculate(tier, durationMinutes, float64(lp.Level), lp.Level, quality)

	if _, err := t.Progress.AwardXP(externalUserID, reward.AppliedXP,
		fmt.Sprintf("construction_tier_%d", tier)); err != nil {
		return reward, err
	}
	if err := t.DB.Model(&models.PlayerProgress{}).
		Where("external_user_id = ?", externalUserID).
		UpdateColumn("total_constructions", gorm.Expr("total_constructions + 1")).Error; err != nil {
		return reward, err
	}

	if err := t.RecordExperience(externalUserID, reward.AppliedXP); err != nil {
		return reward, err
	}
	if err := t.RecordProduction(externalUserID, 1); err != nil {
		return reward, err
	}
	return reward, nil
}

// LeaderboardRow is one live leaderboard position.
type LeaderboardRow struct {
	Rank           int    `json:"rank"`
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username,omitempty"`
	Production     int64  `json:"production"`
	SeasonXP       int64  `json:"season_xp"`
}

// ComputeLeaderboard returns the live top `limit` for a season: production
// desc, ties by season XP desc, then player id for a stable order. Rank is
// assigned 1-based by position in the returned list — a read-time view, not
// the stored snapshot.
func (t *SeasonProgressTracker) ComputeLeaderboard(seasonID string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []LeaderboardRow
	err := t.DB.Raw(`
		SELECT sp.external_user_id, sp.production, sp.season_xp, COALESCE(pm.username, '') AS username
		FROM season_progresses sp
		LEFT JOIN player_mirror pm ON pm.external_user_id = sp.external_user_id AND pm.deleted_at IS NULL
		WHERE sp.season_id = ? AND sp.deleted_at IS NULL
		ORDER BY sp.production DESC, sp.season_xp DESC, sp.external_user_id ASC
		LIMIT ?
	`, seasonID, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// RefreshStoredRanks recomputes the ordering over the refresh window and
// persists the 1-based rank into each SeasonProgress row. The stored rank —
// not a live recomputation — is what reward eligibility reads after the
// season closes. Safe to re-run.
func (t *SeasonProgressTracker) RefreshStoredRanks(seasonID string) (int, error) {
	rows, err := t.ComputeLeaderboard(seasonID, rankRefreshWindow)
	if err != nil {
		return 0, err
	}

	err = t.DB.Transaction(func(tx *gorm.DB) error {
		// Clear every stored rank first so players who fell out of the
		// window lose their old position instead of keeping it.
		if err := tx.Model(&models.SeasonProgress{}).
			Where("season_id = ? AND rank IS NOT NULL", seasonID).
			UpdateColumn("rank", nil).Error; err != nil {
			return err
		}
		for _, row := range rows {
			if err := tx.Model(&models.SeasonProgress{}).
				Where("external_user_id = ? AND season_id = ?", row.ExternalUserID, seasonID).
				UpdateColumn("rank", row.Rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("📊 Stored ranks refreshed: season=%s participants=%d", seasonID, len(rows))
	return len(rows), nil
}

// SeasonProgressView is the player-facing season summary.
type SeasonProgressView struct {
	SeasonID                 string        `json:"season_id"`
	SeasonName               string        `json:"season_name"`
	SeasonXP                 int64         `json:"season_xp"`
	Production               int64         `json:"production"`
	Rank                     *int          `json:"rank,omitempty"`
	LeaderboardRewardClaimed bool          `json:"leaderboard_reward_claimed"`
	Level                    LevelProgress `json:"level"`
}

// GetSeasonProgress builds the season summary for one player. Players with
// no accrual yet get a zeroed view rather than an error.
func (t *SeasonProgressTracker) GetSeasonProgress(externalUserID string) (*SeasonProgressView, error) {
	season, err := t.Content.ResolveSeason()
	if err != nil {
		return nil, err
	}

	view := &SeasonProgressView{SeasonID: season.ID, SeasonName: season.Name}

	var row models.SeasonProgress
	err = t.DB.Where("external_user_id = ? AND season_id = ?", externalUserID, season.ID).
		First(&row).Error
	if err == nil {
		view.SeasonXP = row.SeasonXP
		view.Production = row.Production
		view.Rank = row.Rank
		view.LeaderboardRewardClaimed = row.LeaderboardRewardClaimed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if player, err := t.Progress.GetProgress(externalUserID); err == nil {
		view.Level = t.Curve.LevelFromTotalXP(float64(player.TotalXP))
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		view.Level = t.Curve.LevelFromTotalXP(0)
	} else {
		return nil, err
	}

	return view, nil
}
