package model

import "time"

type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"not null;default:''"`
	ThreadID  string    `gorm:"uniqueIndex;size:36;not null"`
	CreatedAt time.Time `gorm:"not null"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID"`
}

type ConversationParticipant struct {
	ConversationID string `gorm:"primaryKey;size:36"`
	AccountID      string `gorm:"primaryKey;size:36;index"`
	Position       int    `gorm:"not null"`
}

// MessageThread is the ordered message log owned by one conversation.
// Version is bumped on every mutation of the thread or its messages.
type MessageThread struct {
	ID           string    `gorm:"primaryKey;size:36"`
	MessageCount int       `gorm:"not null;default:0"`
	Version      int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
