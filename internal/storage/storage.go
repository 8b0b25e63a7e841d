package storage

import (
	"errors"

	"sophia_companion_go_backend/internal/models"
)

// ErrNotFound is returned when a record does not exist, regardless of the
// backing engine.
var ErrNotFound = errors.New("record not found")

// UserStore is the entitlement store contract: user records plus the
// message counter that gates the free tier.
type UserStore interface {
	GetUser(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(user *models.User) error
	UpdateUser(id uint, updates map[string]interface{}) (*models.User, error)
	ResetMessageCount(id uint) error
	IncrementMessageCount(id uint) error

	// TryConsumeQuota atomically increments the user's message counter if
	// and only if it is still below limit. The single operation closes the
	// race between two near-simultaneous messages both passing a separate
	// check before either increment lands.
	TryConsumeQuota(id uint, limit int) (bool, error)
}

// MessageStore is the append-only conversation log. A nil owner on a
// message marks a guest exchange.
type MessageStore interface {
	GetMessages(userID uint) ([]models.Message, error)
	RecentMessages(userID uint, n int) ([]models.Message, error)
	CreateMessage(msg *models.Message) error
}

// SettingsStore holds the configuration singleton. GetSettings materializes
// the defaults when no row exists yet.
type SettingsStore interface {
	GetSettings() (*models.Settings, error)
	UpdateSettings(updates map[string]interface{}) (*models.Settings, error)
}

// PlanStore exposes the purchasable subscription plans.
type PlanStore interface {
	GetPlans(activeOnly bool) ([]models.SubscriptionPlan, error)
	GetPlan(id uint) (*models.SubscriptionPlan, error)
	CreatePlan(plan *models.SubscriptionPlan) error
}

// Store is the full persistence contract the gateway and REST surface are
// wired against.
type Store interface {
	UserStore
	MessageStore
	SettingsStore
	PlanStore
}
