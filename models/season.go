package models

import "time"

// SeasonDefinition is static season content (loaded from JSON or R2).
// It is immutable for the process lifetime — never persisted to the DB.
type SeasonDefinition struct {
	ID                 string                  `json:"id"`
	Number             int                     `json:"number"`
	Name               string                  `json:"name"`
	StartsAt           *time.Time              `json:"starts_at,omitempty"`
	EndsAt             *time.Time              `json:"ends_at,omitempty"`
	Events             []SeasonEvent           `json:"events,omitempty"`
	LeaderboardRewards []LeaderboardRewardRule `json:"leaderboard_rewards,omitempty"`
	BattlePass         BattlePassConfig        `json:"battle_pass"`
}

// SeasonEvent is a timed sub-event within a season (e.g., a weekend build-off)
type SeasonEvent struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	StartsAt *time.Time   `json:"starts_at,omitempty"`
	EndsAt   *time.Time   `json:"ends_at,omitempty"`
	Rewards  []RewardItem `json:"rewards,omitempty"`
}

// LeaderboardRewardRule maps a final rank (or rank range) to a reward set.
// Rank takes precedence when > 0; otherwise MinRank..MaxRank is matched inclusively.
type LeaderboardRewardRule struct {
	Rank    int          `json:"rank,omitempty"`
	MinRank int          `json:"min_rank,omitempty"`
	MaxRank int          `json:"max_rank,omitempty"`
	Rewards []RewardItem `json:"rewards"`
}

// Matches reports whether the rule covers the given 1-based rank.
func (r LeaderboardRewardRule) Matches(rank int) bool {
	if r.Rank > 0 {
		return r.Rank == rank
	}
	return r.MinRank > 0 && rank >= r.MinRank && rank <= r.MaxRank
}

// HighestRank returns the largest rank the rule covers (0 if malformed).
func (r LeaderboardRewardRule) HighestRank() int {
	if r.Rank > 0 {
		return r.Rank
	}
	return r.MaxRank
}

// RewardItem is one reward descriptor: either a numeric grant (energy/stars)
// or a cosmetic item reference.
type RewardItem struct {
	Type   string `json:"type"` // "energy", "stars", "cosmetic"
	Amount int64  `json:"amount,omitempty"`
	ItemID string `json:"item_id,omitempty"`
}

const (
	RewardItemEnergy   = "energy"
	RewardItemStars    = "stars"
	RewardItemCosmetic = "cosmetic"
)

// BattlePassConfig is the per-season battle pass layout.
type BattlePassConfig struct {
	Enabled           bool             `json:"enabled"`
	Tiers             int              `json:"tiers"`
	XPPerTier         int64            `json:"xp_per_tier"`
	PremiumPriceStars int64            `json:"premium_price_stars"`
	TierRewards       []BattlePassTier `json:"tier_rewards,omitempty"`
}

// BattlePassTier carries the free and premium reward sets for one tier.
type BattlePassTier struct {
	Tier           int          `json:"tier"`
	FreeRewards    []RewardItem `json:"free_rewards,omitempty"`
	PremiumRewards []RewardItem `json:"premium_rewards,omitempty"`
}

// TierConfig returns the reward config for a 1-based tier, nil if none defined.
func (c BattlePassConfig) TierConfig(tier int) *BattlePassTier {
	for i := range c.TierRewards {
		if c.TierRewards[i].Tier == tier {
			return &c.TierRewards[i]
		}
	}
	return nil
}

// Active reports whether the season is currently running: either no date
// window is configured, or now falls inside it.
func (s *SeasonDefinition) Active(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.StartsAt != nil && now.Before(*s.StartsAt) {
		return false
	}
	if s.EndsAt != nil && now.After(*s.EndsAt) {
		return false
	}
	return true
}

// Ended reports whether the season's window has closed. A season without an
// end date never ends on its own.
func (s *SeasonDefinition) Ended(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.EndsAt != nil && now.After(*s.EndsAt)
}

// Event looks up a sub-event by id.
func (s *SeasonDefinition) Event(eventID string) *SeasonEvent {
	for i := range s.Events {
		if s.Events[i].ID == eventID {
			return &s.Events[i]
		}
	}
	return nil
}
