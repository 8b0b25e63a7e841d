package models

import (
	"time"
)

// Message is one turn in a conversation. A nil UserID marks a guest
// exchange not tied to any account. Messages are immutable once created;
// ordering is by Timestamp with ID as the tie-breaker.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"userId"`
	Content   string    `gorm:"not null" json:"content"`
	FromUser  bool      `gorm:"default:true" json:"fromUser"`
	Timestamp time.Time `json:"timestamp"`
}
