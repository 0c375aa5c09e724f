package model

import "time"

type Message struct {
	ID          string     `gorm:"primaryKey;size:36"`
	ThreadID    string     `gorm:"size:36;not null;uniqueIndex:idx_thread_seq"`
	Seq         int        `gorm:"not null;uniqueIndex:idx_thread_seq"`
	Text        string     `gorm:"not null"`
	SenderName  string     `gorm:"not null"`
	SenderPhone string     `gorm:"not null"`
	SentAt      time.Time  `gorm:"not null"`
	Delivered   bool       `gorm:"not null;default:false"`
	ReadAt      *time.Time

	Reactions []Reaction `gorm:"foreignKey:MessageID"`
}

// Reaction holds at most one value per account per message.
type Reaction struct {
	MessageID string    `gorm:"primaryKey;size:36"`
	AccountID string    `gorm:"primaryKey;size:36"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Sender struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
