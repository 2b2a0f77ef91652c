package models

import "time"

// SeasonPassPurchase records a premium battle pass purchase. One row per
// (player, season), written once — refunds are not modeled.
type SeasonPassPurchase struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;uniqueIndex:idx_pass_user_season" json:"external_user_id"`
	SeasonID       string `gorm:"not null;uniqueIndex:idx_pass_user_season" json:"season_id"`

	Premium     bool      `gorm:"default:false" json:"premium"`
	PricePaid   int64     `json:"price_paid"`
	PurchasedAt time.Time `json:"purchased_at"`

	Timestamps
}
