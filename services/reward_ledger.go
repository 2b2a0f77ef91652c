package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"season-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardLedger is the single authority for "has this (player, season,
// reward-key) ever been granted". The unique index on the triple plus a
// conditional claimed=false→true update make the grant at-most-once under
// concurrent callers; the payload is applied inside the same transaction as
// the claim transition, so a claimed grant is always a paid grant.
type RewardLedger struct {
	DB       *gorm.DB
	Progress *ProgressStore
}

func NewRewardLedger(db *gorm.DB, progress *ProgressStore) *RewardLedger {
	return &RewardLedger{DB: db, Progress: progress}
}

// GrantRequest describes one reward to hand out exactly once.
type GrantRequest struct {
	ExternalUserID string
	SeasonID       string
	RewardKey      string
	Kind           models.RewardKind
	TierLabel      string
	FinalRank      *int
	Payload        models.RewardPayload
}

// BuildRewardPayload folds reward descriptors into the payload applied to
// balances. Pure — safe to call anywhere.
func BuildRewardPayload(items []models.RewardItem) models.RewardPayload {
	var p models.RewardPayload
	for _, item := range items {
		switch item.Type {
		case models.RewardItemEnergy:
			p.Energy += item.Amount
		case models.RewardItemStars:
			p.Stars += item.Amount
		case models.RewardItemCosmetic:
			if item.ItemID != "" {
				p.Cosmetics = append(p.Cosmetics, item.ItemID)
			}
		}
	}
	return p
}

// Grant creates (or reuses) the grant row for the key and claims it.
// reward_already_claimed when another caller got there first — callers treat
// that as a quiet no-op, not a failure worth alerting on.
func (l *RewardLedger) Grant(req GrantRequest) error {
	if _, err := l.Progress.EnsurePlayer(req.ExternalUserID); err != nil {
		return err
	}

	grant, err := l.ensureGrantRow(req)
	if err != nil {
		return err
	}
	if grant.Claimed {
		return ErrRewardAlreadyClaimed
	}

	return l.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.SeasonRewardGrant{}).
			Where("id = ? AND claimed = ?", grant.ID, false).
			Updates(map[string]interface{}{"claimed": true, "claimed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the claim race.
			return ErrRewardAlreadyClaimed
		}

		if err := l.Progress.ApplyRewardPayload(tx, req.ExternalUserID, grant.Payload); err != nil {
			return fmt.Errorf("failed to apply reward payload for %s/%s: %w",
				req.ExternalUserID, req.RewardKey, err)
		}

		if req.Kind == models.RewardKindLeaderboard {
			if err := tx.Model(&models.SeasonProgress{}).
				Where("external_user_id = ? AND season_id = ?", req.ExternalUserID, req.SeasonID).
				UpdateColumn("leaderboard_reward_claimed", true).Error; err != nil {
				return err
			}
		}

		log.Printf("🏆 Reward granted: %s season=%s key=%s energy=%d stars=%d cosmetics=%d",
			req.ExternalUserID, req.SeasonID, req.RewardKey,
			grant.Payload.Energy, grant.Payload.Stars, len(grant.Payload.Cosmetics))
		return nil
	})
}

// ensureGrantRow fetches the grant row for the key, creating an unclaimed one
// holding the payload when absent. A concurrent creator is resolved by
// rereading after a duplicate-key error.
func (l *RewardLedger) ensureGrantRow(req GrantRequest) (*models.SeasonRewardGrant, error) {
	var grant models.SeasonRewardGrant
	err := l.DB.Where("external_user_id = ? AND season_id = ? AND reward_key = ?",
		req.ExternalUserID, req.SeasonID, req.RewardKey).First(&grant).Error
	if err == nil {
		return &grant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	grant = models.SeasonRewardGrant{
		ID:             uuid.NewString(),
		ExternalUserID: req.ExternalUserID,
		SeasonID:       req.SeasonID,
		RewardKey:      req.RewardKey,
		Kind:           req.Kind,
		TierLabel:      req.TierLabel,
		FinalRank:      req.FinalRank,
		Payload:        req.Payload,
	}
	if err := l.DB.Create(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.SeasonRewardGrant
			if rerr := l.DB.Where("external_user_id = ? AND season_id = ? AND reward_key = ?",
				req.ExternalUserID, req.SeasonID, req.RewardKey).First(&existing).Error; rerr != nil {
				return nil, rerr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &grant, nil
}

// IsClaimed reports whether the key has already been claimed.
func (l *RewardLedger) IsClaimed(externalUserID, seasonID, rewardKey string) (bool, error) {
	var count int64
	err := l.DB.Model(&models.SeasonRewardGrant{}).
		Where("external_user_id = ? AND season_id = ? AND reward_key = ? AND claimed = ?",
			externalUserID, seasonID, rewardKey, true).
		Count(&count).Error
	return count > 0, err
}

// GrantsFor lists all grant rows for a player in a season (claimed or not).
func (l *RewardLedger) GrantsFor(externalUserID, seasonID string) ([]models.SeasonRewardGrant, error) {
	var grants []models.SeasonRewardGrant
	err := l.DB.Where("external_user_id = ? AND season_id = ?", externalUserID, seasonID).
		Find(&grants).Error
	return grants, err
}
