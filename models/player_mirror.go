// models/player_mirror.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerMirror mirrors profile data from the profile service so leaderboard
// views can join display names locally.
// Table name: player_mirror
type PlayerMirror struct {
	ID             string    `gorm:"primaryKey;type:uuid;not null" json:"id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex" json:"external_user_id"` // Primary lookup key
	Username       string    `gorm:"type:varchar(128)" json:"username"`
	AvatarURL      string    `gorm:"type:text" json:"avatar_url"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	LastSyncedAt   time.Time `gorm:"not null" json:"last_synced_at"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (PlayerMirror) TableName() string { return "player_mirror" }
