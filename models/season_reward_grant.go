package models

import "time"

// RewardKind distinguishes what a grant was for
type RewardKind string

const (
	RewardKindLeaderboard RewardKind = "leaderboard"
	RewardKindBattlePass  RewardKind = "battle_pass"
	RewardKindEvent       RewardKind = "event"
)

// RewardPayload is the folded form of a reward set, stored on the grant row
// and applied to player balances on claim. Cosmetic ids are carried through
// opaquely for the cosmetics service.
type RewardPayload struct {
	Energy    int64    `json:"energy,omitempty"`
	Stars     int64    `json:"stars,omitempty"`
	Cosmetics []string `json:"cosmetics,omitempty"`
}

// SeasonRewardGrant is the ledger row for one grantable reward. The unique
// index on (user, season, reward_key) plus the conditional claimed update is
// what guarantees at-most-once application.
type SeasonRewardGrant struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;uniqueIndex:idx_grant_user_season_key" json:"external_user_id"`
	SeasonID       string `gorm:"not null;uniqueIndex:idx_grant_user_season_key" json:"season_id"`
	RewardKey      string `gorm:"not null;uniqueIndex:idx_grant_user_season_key" json:"reward_key"`

	Kind      RewardKind    `gorm:"type:varchar(32);not null" json:"kind"`
	TierLabel string        `gorm:"type:varchar(32)" json:"tier_label,omitempty"` // e.g. "gold", "top50"
	FinalRank *int          `json:"final_rank,omitempty"`
	Payload   RewardPayload `gorm:"type:jsonb;serializer:json" json:"payload"`

	Claimed   bool       `gorm:"default:false" json:"claimed"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	Timestamps
}
