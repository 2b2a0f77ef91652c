package models

// SeasonProgress tracks one player's accumulated progress within one season
// (denormalized for leaderboard queries). Created lazily on the first
// progress-affecting action; counters only ever increase.
type SeasonProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;uniqueIndex:idx_season_progress_user_season" json:"external_user_id"`
	SeasonID       string `gorm:"not null;uniqueIndex:idx_season_progress_user_season;index" json:"season_id"`

	SeasonXP   int64 `json:"season_xp" gorm:"default:0"`
	Production int64 `json:"production" gorm:"default:0"`

	// Rank is the stored leaderboard snapshot written by the last rank
	// refresh — authoritative for reward eligibility. Nil = never ranked.
	Rank *int `json:"rank,omitempty"`

	LeaderboardRewardClaimed bool `json:"leaderboard_reward_claimed" gorm:"default:false"`

	Timestamps
}
