package models

import (
	"time"
)

// User holds identity plus entitlement state. Usernames are stored
// lowercased so uniqueness is case-insensitive.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	IsAdmin      bool   `gorm:"default:false" json:"isAdmin"`
	IsPaid       bool   `gorm:"default:false" json:"isPaid"`

	SubscriptionTier     string     `gorm:"default:free" json:"subscriptionTier"`
	SubscriptionDuration string     `json:"subscriptionDuration"`
	SubscriptionExpiry   *time.Time `json:"subscriptionExpiry"`
	PaypalSubscriptionID string     `json:"-"`

	MessageCount int `gorm:"default:0" json:"messageCount"`

	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// Entitled reports whether the user currently holds a paid entitlement.
// Admins are always entitled. A paid flag with an expiry in the past does
// not count.
func (u *User) Entitled(now time.Time) bool {
	if u.IsAdmin {
		return true
	}
	if !u.IsPaid {
		return false
	}
	if u.SubscriptionExpiry != nil && u.SubscriptionExpiry.Before(now) {
		return false
	}
	return true
}
