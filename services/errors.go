package services

import "errors"

// DomainError is an expected domain outcome (reward already claimed, tier
// locked, ...). Callers branch on these routinely, so they are plain values
// rather than wrapped infrastructure errors — handlers surface the string
// directly and batch jobs log and continue.
type DomainError string

func (e DomainError) Error() string { return string(e) }

const (
	ErrSeasonNotFound       DomainError = "season_not_found"
	ErrSeasonInactive       DomainError = "season_inactive"
	ErrSeasonActive         DomainError = "season_active"
	ErrNotRanked            DomainError = "not_ranked"
	ErrRewardAlreadyClaimed DomainError = "reward_already_claimed"
	ErrInvalidTier          DomainError = "invalid_tier"
	ErrTierOutOfRange       DomainError = "tier_out_of_range"
	ErrTierLocked           DomainError = "tier_locked"
	ErrPremiumRequired      DomainError = "premium_required"
	ErrNoRewardsDefined     DomainError = "no_rewards_defined"
	ErrNoRewardsConfigured  DomainError = "no_rewards_configured"
	ErrInsufficientStars    DomainError = "insufficient_stars"
	ErrBattlePassDisabled   DomainError = "battle_pass_disabled"
	ErrAlreadyPremium       DomainError = "already_premium"
	ErrEventNotFound        DomainError = "event_not_found"
	ErrEventNotParticipated DomainError = "event_not_participated"
)

// IsDomainError distinguishes expected outcomes from infrastructure failures.
func IsDomainError(err error) bool {
	var de DomainError
	return errors.As(err, &de)
}
