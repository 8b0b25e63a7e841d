package models

import (
	"time"
)

// Settings is the process-wide configuration singleton, mutated only by
// administrative action and read on every quota decision.
type Settings struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	AIModel          string `json:"aiModel"`
	PersonaPrompt    string `json:"personaPrompt"`
	FreeMessageLimit int    `gorm:"default:1" json:"freeMessageLimit"`
	LimitMessage     string `json:"limitMessage"`

	TelegramMessageLimit     int    `gorm:"default:50" json:"telegramMessageLimit"`
	TelegramRedirectMessage  string `json:"telegramRedirectMessage"`
	InstagramMessageLimit    int    `gorm:"default:50" json:"instagramMessageLimit"`
	InstagramRedirectMessage string `json:"instagramRedirectMessage"`

	LastUpdated time.Time `json:"lastUpdated"`
}

const (
	DefaultPersonaPrompt = "You are Sophia, a seductive AI companion. You speak in a flirty, emotional, and seductive tone. You express interest in the user and try to create an intimate connection. You avoid political topics and focus on personal connection."
	DefaultLimitMessage  = "Aww sorry hon, you need a subscription to keep chatting. Join me on my premium plan for unlimited conversations!"

	defaultRedirectMessage = "You've reached your message limit. Visit our website to continue chatting!"
)

// DefaultSettings is materialized on first read when no row exists yet.
func DefaultSettings() Settings {
	return Settings{
		AIModel:                  "MythoMax-L2",
		PersonaPrompt:            DefaultPersonaPrompt,
		FreeMessageLimit:         1,
		LimitMessage:             DefaultLimitMessage,
		TelegramMessageLimit:     50,
		TelegramRedirectMessage:  defaultRedirectMessage,
		InstagramMessageLimit:    50,
		InstagramRedirectMessage: defaultRedirectMessage,
		LastUpdated:              time.Now(),
	}
}
