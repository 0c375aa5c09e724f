package model

import "time"

// Views are the assembled read models returned to clients and cached in Redis.

type ParticipantView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

type ReactionView struct {
	SenderID string `json:"senderId"`
	Reaction string `json:"reaction"`
}

type MessageView struct {
	ID        string         `json:"id"`
	Seq       int            `json:"seq"`
	Text      string         `json:"message"`
	Sender    Sender         `json:"sender"`
	SentAt    time.Time      `json:"timestamp"`
	Delivered bool           `json:"delivered"`
	ReadAt    *time.Time     `json:"readTime,omitempty"`
	Reactions []ReactionView `json:"reactions"`
}

type ThreadView struct {
	ID           string        `json:"id"`
	MessageCount int           `json:"messageCount"`
	Version      int64         `json:"version"`
	LastUpdated  time.Time     `json:"lastUpdated"`
	Messages     []MessageView `json:"messages"`
}

type ConversationView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	Participants []ParticipantView `json:"participants"`
	Thread       ThreadView        `json:"messages"`
}

// ChatSummary is one entry of an account's chat list.
type ChatSummary struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	Participants []ParticipantView `json:"participants"`
}

type ContactView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}
