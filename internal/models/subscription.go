package models

import (
	"time"
)

// SubscriptionPlan describes a purchasable tier/duration combination.
// Price is in cents.
type SubscriptionPlan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Tier      string    `gorm:"not null" json:"tier"`
	Duration  string    `gorm:"not null" json:"duration"`
	Price     int       `gorm:"not null" json:"price"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PeriodFromDuration maps a plan duration to the concrete subscription
// period used to compute the expiry timestamp.
func PeriodFromDuration(duration string) time.Duration {
	switch duration {
	case "week":
		return 7 * 24 * time.Hour
	case "month":
		return 30 * 24 * time.Hour
	case "6month":
		return 182 * 24 * time.Hour
	case "year":
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}
