package models

// SeasonEventParticipation tracks per-player state for a season sub-event.
// Independent lifecycle from SeasonProgress.
type SeasonEventParticipation struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;uniqueIndex:idx_event_part_user_season_event" json:"external_user_id"`
	SeasonID       string `gorm:"not null;uniqueIndex:idx_event_part_user_season_event" json:"season_id"`
	EventID        string `gorm:"not null;uniqueIndex:idx_event_part_user_season_event" json:"event_id"`

	Participated  bool `gorm:"default:false" json:"participated"`
	RewardClaimed bool `gorm:"default:false" json:"reward_claimed"`

	Timestamps
}
