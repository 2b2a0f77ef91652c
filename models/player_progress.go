package models

import "time"

// PlayerProgress holds lifetime progression and spendable balances for each
// player (denormalized for performance). Season counters live in
// SeasonProgress; this row is the balance-mutation target for reward payloads.
type PlayerProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Lifetime progression
	TotalXP int64 `json:"total_xp" gorm:"default:0"`
	Level   int   `json:"level" gorm:"default:1"`

	// Spendable balances
	Energy       int64 `json:"energy" gorm:"default:0"`
	StarsBalance int64 `json:"stars_balance" gorm:"default:0"`

	// Activity counters
	TotalConstructions int64 `json:"total_constructions" gorm:"default:0"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}
