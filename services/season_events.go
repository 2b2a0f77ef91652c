package services

import (
	"errors"
	"fmt"
	"log"

	"season-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRewardKey builds the season-unique reward-key for a sub-event.
func EventRewardKey(eventID string) string {
	return fmt.Sprintf("event_%s", eventID)
}

// SeasonEventService tracks participation in season sub-events and routes
// their reward claims through the ledger.
type SeasonEventService struct {
	DB      *gorm.DB
	Content *SeasonContent
	Ledger  *RewardLedger
}

func NewSeasonEventService(db *gorm.DB, content *SeasonContent, ledger *RewardLedger) *SeasonEventService {
	return &SeasonEventService{DB: db, Content: content, Ledger: ledger}
}

// Participate marks the player as a participant in the sub-event. Joining
// requires an active season; repeated calls are no-ops.
func (s *SeasonEventService) Participate(externalUserID, eventID string) error {
	season, err := s.Content.ResolveActiveSeason()
	if err != nil {
		return err
	}
	if season.Event(eventID) == nil {
		return ErrEventNotFound
	}

	var existing models.SeasonEventParticipation
	err = s.DB.Where("external_user_id = ? AND season_id = ? AND event_id = ?",
		externalUserID, season.ID, eventID).First(&existing).Error
	if err == nil {
		if existing.Participated {
			return nil
		}
		return s.DB.Model(&existing).UpdateColumn("participated", true).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	row := models.SeasonEventParticipation{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		SeasonID:       season.ID,
		EventID:        eventID,
		Participated:   true,
	}
	if err := s.DB.Create(&row).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	log.Printf("🎪 Event joined: %s event=%s season=%s", externalUserID, eventID, season.ID)
	return nil
}

// ClaimEventReward grants the sub-event reward set once per player.
func (s *SeasonEventService) ClaimEventReward(externalUserID, eventID string) error {
	season, err := s.Content.ResolveSeason()
	if err != nil {
		return err
	}
	event := season.Event(eventID)
	if event == nil {
		return ErrEventNotFound
	}

	var row models.SeasonEventParticipation
	err = s.DB.Where("external_user_id = ? AND season_id = ? AND event_id = ?",
		externalUserID, season.ID, eventID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !row.Participated) {
		return ErrEventNotParticipated
	}
	if err != nil {
		return err
	}
	if row.RewardClaimed {
		return ErrRewardAlreadyClaimed
	}
	if len(event.Rewards) == 0 {
		return ErrNoRewardsDefined
	}

	if err := s.Ledger.Grant(GrantRequest{
		ExternalUserID: externalUserID,
		SeasonID:       season.ID,
		RewardKey:      EventRewardKey(eventID),
		Kind:           models.RewardKindEvent,
		TierLabel:      eventID,
		Payload:        BuildRewardPayload(event.Rewards),
	}); err != nil {
		return err
	}

	return s.DB.Model(&models.SeasonEventParticipation{}).
		Where("id = ?", row.ID).
		UpdateColumn("reward_claimed", true).Error
}
