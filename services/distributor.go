package services

import (
	"errors"
	"log"

	"season-reward-system/models"

	"gorm.io/gorm"
)

// LeaderboardRewardKey is the reward-key for a player's once-per-season
// leaderboard payout. The batch distributor and the interactive claim both
// use it, so whichever runs first wins and the other is a no-op.
const LeaderboardRewardKey = "leaderboard"

// LeaderboardRewardDistributor hands out rank rewards at season close: the
// batch path sweeps every covered rank, the interactive path lets a player
// claim their own. Both read the stored rank snapshot, never a live query.
type LeaderboardRewardDistributor struct {
	DB      *gorm.DB
	Content *SeasonContent
	Tracker *SeasonProgressTracker
	Ledger  *RewardLedger
}

func NewLeaderboardRewardDistributor(db *gorm.DB, content *SeasonContent, tracker *SeasonProgressTracker, ledger *RewardLedger) *LeaderboardRewardDistributor {
	return &LeaderboardRewardDistributor{DB: db, Content: content, Tracker: tracker, Ledger: ledger}
}

// DistributionResult summarizes one batch run. Skipped is set (with the
// reason) when the run was a no-op.
type DistributionResult struct {
	Skipped          string `json:"skipped,omitempty"`
	Distributed      int    `json:"distributed"`
	AlreadyClaimed   int    `json:"already_claimed"`
	NoMatchingRule   int    `json:"no_matching_rule"`
	Failed           int    `json:"failed"`
	RankedCandidates int    `json:"ranked_candidates"`
}

// RankTierLabel names the medal bucket for a 1-based final rank.
func RankTierLabel(rank int) string {
	switch {
	case rank == 1:
		return "gold"
	case rank == 2:
		return "silver"
	case rank == 3:
		return "bronze"
	case rank <= 10:
		return "top10"
	case rank <= 50:
		return "top50"
	case rank <= 100:
		return "top100"
	default:
		return "participant"
	}
}

// resolveRewardRule finds the rule for a rank: exact match first, then the
// first range containing it. Nil when nothing covers the rank.
func resolveRewardRule(rules []models.LeaderboardRewardRule, rank int) *models.LeaderboardRewardRule {
	for i := range rules {
		if rules[i].Rank > 0 && rules[i].Rank == rank {
			return &rules[i]
		}
	}
	for i := range rules {
		if rules[i].Rank == 0 && rules[i].Matches(rank) {
			return &rules[i]
		}
	}
	return nil
}

func highestCoveredRank(rules []models.LeaderboardRewardRule) int {
	max := 0
	for _, r := range rules {
		if h := r.HighestRank(); h > max {
			max = h
		}
	}
	return max
}

// Distribute runs the season-close payout. It refreshes the stored rank
// snapshot first, then walks every ranked row the reward table covers. A
// single candidate's failure is logged and skipped — one bad row must not
// abort the run. Re-running is safe: claimed rows are no-ops.
func (d *LeaderboardRewardDistributor) Distribute(force bool) (DistributionResult, error) {
	season := d.Content.Season()
	if season == nil {
		return DistributionResult{Skipped: string(ErrSeasonNotFound)}, nil
	}
	if !d.Content.SeasonEnded() && !force {
		return DistributionResult{Skipped: string(ErrSeasonActive)}, nil
	}

	maxRank := highestCoveredRank(season.LeaderboardRewards)
	if maxRank == 0 {
		return DistributionResult{Skipped: string(ErrNoRewardsConfigured)}, nil
	}

	// Snapshot ranks so the batch and any concurrent interactive claims see
	// the same positions.
	if _, err := d.Tracker.RefreshStoredRanks(season.ID); err != nil {
		return DistributionResult{}, err
	}

	var rows []models.SeasonProgress
	if err := d.DB.Where("season_id = ? AND rank IS NOT NULL AND rank <= ?", season.ID, maxRank).
		Order("rank ASC").
		Find(&rows).Error; err != nil {
		return DistributionResult{}, err
	}

	result := DistributionResult{RankedCandidates: len(rows)}
	for _, row := range rows {
		rank := *row.Rank

		rule := resolveRewardRule(season.LeaderboardRewards, rank)
		if rule == nil {
			result.NoMatchingRule++
			continue
		}
		if row.LeaderboardRewardClaimed {
			result.AlreadyClaimed++
			continue
		}

		err := d.Ledger.Grant(GrantRequest{
			ExternalUserID: row.ExternalUserID,
			SeasonID:       season.ID,
			RewardKey:      LeaderboardRewardKey,
			Kind:           models.RewardKindLeaderboard,
			TierLabel:      RankTierLabel(rank),
			FinalRank:      &rank,
			Payload:        BuildRewardPayload(rule.Rewards),
		})
		switch {
		case errors.Is(err, ErrRewardAlreadyClaimed):
			result.AlreadyClaimed++
		case err != nil:
			result.Failed++
			log.Printf("⚠️ Leaderboard payout failed for %s (rank %d): %v", row.ExternalUserID, rank, err)
		default:
			result.Distributed++
		}
	}

	log.Printf("🏁 Leaderboard distribution: season=%s distributed=%d already_claimed=%d unmatched=%d failed=%d",
		season.ID, result.Distributed, result.AlreadyClaimed, result.NoMatchingRule, result.Failed)
	return result, nil
}

// ClaimLeaderboardReward is the interactive counterpart to Distribute: the
// player pulls their own payout after season close. Same rule resolution,
// same reward-key, same idempotency.
func (d *LeaderboardRewardDistributor) ClaimLeaderboardReward(externalUserID string) error {
	season, err := d.Content.ResolveSeason()
	if err != nil {
		return err
	}
	if !d.Content.SeasonEnded() {
		return ErrSeasonActive
	}

	var row models.SeasonProgress
	err = d.DB.Where("external_user_id = ? AND season_id = ?", externalUserID, season.ID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotRanked
	}
	if err != nil {
		return err
	}
	if row.Rank == nil {
		return ErrNotRanked
	}
	if row.LeaderboardRewardClaimed {
		return ErrRewardAlreadyClaimed
	}

	rank := *row.Rank
	rule := resolveRewardRule(season.LeaderboardRewards, rank)
	if rule == nil {
		return ErrNoRewardsDefined
	}

	return d.Ledger.Grant(GrantRequest{
		ExternalUserID: externalUserID,
		SeasonID:       season.ID,
		RewardKey:      LeaderboardRewardKey,
		Kind:           models.RewardKindLeaderboard,
		TierLabel:      RankTierLabel(rank),
		FinalRank:      &rank,
		Payload:        BuildRewardPayload(rule.Rewards),
	})
}
