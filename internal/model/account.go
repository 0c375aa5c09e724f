package model

import "time"

type Account struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"`
	Phone            string    `gorm:"uniqueIndex;not null" json:"phone"` // 9876543210
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	TwoFactorEnabled bool      `gorm:"not null;default:false" json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Profile is the public projection of an account.
type Profile struct {
	ID       string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Phone:    a.Phone,
	}
}

// Contact links an owner to another account. The composite key keeps the
// contact list free of duplicates.
type Contact struct {
	OwnerID     string    `gorm:"primaryKey;size:36"`
	ContactID   string    `gorm:"primaryKey;size:36"`
	DisplayName string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index"`
}

// AccountChat is the account side of a conversation membership.
type AccountChat struct {
	AccountID      string `gorm:"primaryKey;size:36"`
	ConversationID string `gorm:"primaryKey;size:36;index"`
	CreatedAt      time.Time
}
