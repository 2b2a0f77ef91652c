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

// Battle pass track names. They are part of the reward-key, so they must
// never change for a live season.
const (
	TrackFree    = "free"
	TrackPremium = "premium"
)

// BattlePassRewardKey builds the season-unique key for a tier+track reward.
// Deterministic construction keeps the ledger's uniqueness guarantee
// independent of tier ordering in content.
func BattlePassRewardKey(track string, tier int) string {
	return fmt.Sprintf("battlepass_%s_tier_%d", track, tier)
}

// BattlePassEngine derives the tier read-model from season config + tracked
// progress + purchase state, and drives purchases and tier claims.
type BattlePassEngine struct {
	DB       *gorm.DB
	Content  *SeasonContent
	Ledger   *RewardLedger
	Progress *ProgressStore
}

func NewBattlePassEngine(db *gorm.DB, content *SeasonContent, ledger *RewardLedger, progress *ProgressStore) *BattlePassEngine {
	return &BattlePassEngine{DB: db, Content: content, Ledger: ledger, Progress: progress}
}

// TrackView is one tier's reward set on one track, with claim state.
type TrackView struct {
	Rewards   []models.RewardItem `json:"rewards"`
	Claimed   bool                `json:"claimed"`
	Claimable bool                `json:"claimable"`
}

// BattlePassTierView is the per-tier read model.
type BattlePassTierView struct {
	Tier       int        `json:"tier"`
	RequiredXP int64      `json:"required_xp"`
	Reached    bool       `json:"reached"`
	Free       *TrackView `json:"free,omitempty"`
	Premium    *TrackView `json:"premium,omitempty"`
}

// BattlePassView is the full battle pass read model for one player.
type BattlePassView struct {
	Enabled      bool                 `json:"enabled"`
	Premium      bool                 `json:"premium"`
	SeasonXP     int64                `json:"season_xp"`
	CurrentTier  int                  `json:"current_tier"`
	XPIntoTier   int64                `json:"xp_into_tier"`
	XPToNextTier *int64               `json:"xp_to_next_tier,omitempty"` // nil at max tier
	Tiers        []BattlePassTierView `json:"tiers"`
}

// requiredXPForTier: tier 1 requires zero, tier N requires (N-1)*xpPerTier.
func requiredXPForTier(cfg models.BattlePassConfig, tier int) int64 {
	return cfg.XPPerTier * int64(tier-1)
}

// currentTier clamps floor(xp/xpPerTier)+1 to the configured tier count.
func currentTier(cfg models.BattlePassConfig, seasonXP int64) int {
	if cfg.XPPerTier <= 0 || cfg.Tiers <= 0 {
		return 1
	}
	tier := int(seasonXP/cfg.XPPerTier) + 1
	if tier > cfg.Tiers {
		tier = cfg.Tiers
	}
	return tier
}

// GetView assembles the read model: current tier position plus per-tier
// claimed/claimable flags across both tracks.
func (e *BattlePassEngine) GetView(externalUserID string) (*BattlePassView, error) {
	season, err := e.Content.ResolveSeason()
	if err != nil {
		return nil, err
	}
	cfg := season.BattlePass
	if !cfg.Enabled {
		return &BattlePassView{Enabled: false}, nil
	}

	seasonXP, err := e.seasonXP(externalUserID, season.ID)
	if err != nil {
		return nil, err
	}
	premium, err := e.HasPremium(externalUserID, season.ID)
	if err != nil {
		return nil, err
	}
	claimed, err := e.claimedKeys(externalUserID, season.ID)
	if err != nil {
		return nil, err
	}

	tier := currentTier(cfg, seasonXP)
	view := &BattlePassView{
		Enabled:     true,
		Premium:     premium,
		SeasonXP:    seasonXP,
		CurrentTier: tier,
		XPIntoTier:  seasonXP - requiredXPForTier(cfg, tier),
	}
	if tier < cfg.Tiers {
		toNext := requiredXPForTier(cfg, tier+1) - seasonXP
		view.XPToNextTier = &toNext
	}

	for t := 1; t <= cfg.Tiers; t++ {
		required := requiredXPForTier(cfg, t)
		reached := seasonXP >= required
		tv := BattlePassTierView{Tier: t, RequiredXP: required, Reached: reached}

		if tierCfg := cfg.TierConfig(t); tierCfg != nil {
			if len(tierCfg.FreeRewards) > 0 {
				key := BattlePassRewardKey(TrackFree, t)
				tv.Free = &TrackView{
					Rewards:   tierCfg.FreeRewards,
					Claimed:   claimed[key],
					Claimable: reached && !claimed[key],
				}
			}
			if len(tierCfg.PremiumRewards) > 0 {
				key := BattlePassRewardKey(TrackPremium, t)
				tv.Premium = &TrackView{
					Rewards:   tierCfg.PremiumRewards,
					Claimed:   claimed[key],
					Claimable: reached && premium && !claimed[key],
				}
			}
		}
		view.Tiers = append(view.Tiers, tv)
	}
	return view, nil
}

// Purchase debits the premium price from the player's stars and records the
// purchase as one transaction — a failed debit writes nothing, a successful
// debit always gets its purchase row.
func (e *BattlePassEngine) Purchase(externalUserID string) error {
	season, err := e.Content.ResolveActiveSeason()
	if err != nil {
		return err
	}
	cfg := season.BattlePass
	if !cfg.Enabled {
		return ErrBattlePassDisabled
	}

	premium, err := e.HasPremium(externalUserID, season.ID)
	if err != nil {
		return err
	}
	if premium {
		return ErrAlreadyPremium
	}

	if _, err := e.Progress.EnsurePlayer(externalUserID); err != nil {
		return err
	}

	return e.DB.Transaction(func(tx *gorm.DB) error {
		if err := e.Progress.adjustStars(tx, externalUserID, -cfg.PremiumPriceStars); err != nil {
			return err
		}

		purchase := models.SeasonPassPurchase{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			SeasonID:       season.ID,
			Premium:        true,
			PricePaid:      cfg.PremiumPriceStars,
			PurchasedAt:    time.Now(),
		}
		if err := tx.Create(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyPremium
			}
			return err
		}

		log.Printf("💫 Battle pass purchased: %s season=%s price=%d",
			externalUserID, season.ID, cfg.PremiumPriceStars)
		return nil
	})
}

// Claim validates tier/track eligibility and hands off to the ledger.
func (e *BattlePassEngine) Claim(externalUserID string, tier int, track string) error {
	season, err := e.Content.ResolveSeason()
	if err != nil {
		return err
	}
	cfg := season.BattlePass
	if !cfg.Enabled {
		return ErrBattlePassDisabled
	}
	if track != TrackFree && track != TrackPremium {
		return ErrInvalidTier
	}
	if tier < 1 || tier > cfg.Tiers {
		return ErrTierOutOfRange
	}

	seasonXP, err := e.seasonXP(externalUserID, season.ID)
	if err != nil {
		return err
	}
	if seasonXP < requiredXPForTier(cfg, tier) {
		return ErrTierLocked
	}

	if track == TrackPremium {
		premium, err := e.HasPremium(externalUserID, season.ID)
		if err != nil {
			return err
		}
		if !premium {
			return ErrPremiumRequired
		}
	}

	tierCfg := cfg.TierConfig(tier)
	var rewards []models.RewardItem
	if tierCfg != nil {
		if track == TrackFree {
			rewards = tierCfg.FreeRewards
		} else {
			rewards = tierCfg.PremiumRewards
		}
	}
	if len(rewards) == 0 {
		return ErrNoRewardsDefined
	}

	return e.Ledger.Grant(GrantRequest{
		ExternalUserID: externalUserID,
		SeasonID:       season.ID,
		RewardKey:      BattlePassRewardKey(track, tier),
		Kind:           models.RewardKindBattlePass,
		TierLabel:      track,
		Payload:        BuildRewardPayload(rewards),
	})
}

// HasPremium reports whether the player bought the premium track this season.
func (e *BattlePassEngine) HasPremium(externalUserID, seasonID string) (bool, error) {
	var count int64
	err := e.DB.Model(&models.SeasonPassPurchase{}).
		Where("external_user_id = ? AND season_id = ? AND premium = ?", externalUserID, seasonID, true).
		Count(&count).Error
	return count > 0, err
}

func (e *BattlePassEngine) seasonXP(externalUserID, seasonID string) (int64, error) {
	var row models.SeasonProgress
	err := e.DB.Where("external_user_id = ? AND season_id = ?", externalUserID, seasonID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.SeasonXP, nil
}

func (e *BattlePassEngine) claimedKeys(externalUserID, seasonID string) (map[string]bool, error) {
	grants, err := e.Ledger.GrantsFor(externalUserID, seasonID)
	if err != nil {
		return nil, err
	}
	claimed := make(map[string]bool, len(grants))
	for _, g := range grants {
		if g.Claimed {
			claimed[g.RewardKey] = true
		}
	}
	return claimed, nil
}
