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

// CosmeticGranter hands cosmetic item grants to the cosmetics service.
// Implementations live outside this core; payloads only carry the ids.
type CosmeticGranter interface {
	GrantCosmetics(externalUserID string, itemIDs []string) error
}

// ProgressStore owns player-level balances (energy, stars) and lifetime XP.
// All reward payloads land here.
type ProgressStore struct {
	DB        *gorm.DB
	Curve     *LevelCurve
	Cosmetics CosmeticGranter // optional
}

func NewProgressStore(db *gorm.DB, curve *LevelCurve) *ProgressStore {
	return &ProgressStore{DB: db, Curve: curve}
}

// EnsurePlayer ensures a PlayerProgress row exists (idempotent)
func (s *ProgressStore) EnsurePlayer(externalUserID string) (*models.PlayerProgress, error) {
	var prog models.PlayerProgress
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if err == nil {
		return &prog, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prog = models.PlayerProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Level:          s.Curve.MinLevel(),
	}
	if err := s.DB.Create(&prog).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent creator won — reread.
			err = s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error
		}
		if err != nil {
			return nil, err
		}
	}
	return &prog, nil
}

// GetProgress fetches the player row without creating it.
func (s *ProgressStore) GetProgress(externalUserID string) (*models.PlayerProgress, error) {
	var prog models.PlayerProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return nil, err
	}
	return &prog, nil
}

// AwardXP adds lifetime XP and recomputes the stored level from the curve —
// returns updated progress
func (s *ProgressStore) AwardXP(externalUserID string, xp int64, reason string) (*models.PlayerProgress, error) {
	if _, err := s.EnsurePlayer(externalUserID); err != nil {
		return nil, err
	}

	var updated *models.PlayerProgress
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Atomic increment — concurrent awards for the same player must
		// never lose each other's XP.
		res := tx.Model(&models.PlayerProgress{}).
			Where("external_user_id = ?", externalUserID).
			UpdateColumn("total_xp", gorm.Expr("total_xp + ?", xp))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("player record not found for %s", externalUserID)
		}

		var prog models.PlayerProgress
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
			return err
		}

		lp := s.Curve.LevelFromTotalXP(float64(prog.TotalXP))
		if lp.Level > prog.Level {
			// Monotonic guard: whichever concurrent award saw the highest
			// total wins, nobody can lower the level.
			now := time.Now()
			if err := tx.Model(&models.PlayerProgress{}).
				Where("external_user_id = ? AND level < ?", externalUserID, lp.Level).
				Updates(map[string]interface{}{"level": lp.Level, "last_level_up_at": now}).Error; err != nil {
				return err
			}
			prog.Level = lp.Level
			prog.LastLevelUpAt = &now
		}

		updated = &prog

		log.Printf("🎮 XP Awarded: %s → XP=%d, Lvl=%d (reason: %s)",
			externalUserID, prog.TotalXP, prog.Level, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AdjustStars applies a stars delta. Negative deltas are conditional: the
// update only lands when the balance covers it, otherwise insufficient_stars.
func (s *ProgressStore) AdjustStars(externalUserID string, delta int64) error {
	if _, err := s.EnsurePlayer(externalUserID); err != nil {
		return err
	}
	return s.adjustStars(s.DB, externalUserID, delta)
}

// adjustStars runs the conditional update on the given handle so callers can
// pass their own transaction.
func (s *ProgressStore) adjustStars(db *gorm.DB, externalUserID string, delta int64) error {
	q := db.Model(&models.PlayerProgress{}).
		Where("external_user_id = ?", externalUserID)
	if delta < 0 {
		q = q.Where("stars_balance >= ?", -delta)
	}
	res := q.UpdateColumn("stars_balance", gorm.Expr("stars_balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStars
	}
	return nil
}

// AddEnergy credits energy (never conditional — energy cannot go negative
// through this path).
func (s *ProgressStore) AddEnergy(externalUserID string, delta int64) error {
	if _, err := s.EnsurePlayer(externalUserID); err != nil {
		return err
	}
	return s.DB.Model(&models.PlayerProgress{}).
		Where("external_user_id = ?", externalUserID).
		UpdateColumn("energy", gorm.Expr("energy + ?", delta)).Error
}

// ApplyRewardPayload credits a claimed payload to the player's balances.
// Runs on the given handle so the ledger can apply it inside the claim
// transaction. Cosmetic grants go to the cosmetics service; a missing
// collaborator just logs the ids.
func (s *ProgressStore) ApplyRewardPayload(db *gorm.DB, externalUserID string, payload models.RewardPayload) error {
	updates := map[string]interface{}{}
	if payload.Energy != 0 {
		updates["energy"] = gorm.Expr("energy + ?", payload.Energy)
	}
	if payload.Stars != 0 {
		updates["stars_balance"] = gorm.Expr("stars_balance + ?", payload.Stars)
	}
	if len(updates) > 0 {
		res := db.Model(&models.PlayerProgress{}).
			Where("external_user_id = ?", externalUserID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("no player row for %s while applying reward payload", externalUserID)
		}
	}

	if len(payload.Cosmetics) > 0 {
		if s.Cosmetics != nil {
			if err := s.Cosmetics.GrantCosmetics(externalUserID, payload.Cosmetics); err != nil {
				return fmt.Errorf("cosmetic grant failed for %s: %w", externalUserID, err)
			}
		} else {
			log.Printf("⚠️ No cosmetics service wired — dropping cosmetic grant %v for %s", payload.Cosmetics, externalUserID)
		}
	}
	return nil
}
