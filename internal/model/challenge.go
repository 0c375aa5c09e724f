package model

import "time"

// Challenge is a pending second-factor login for an email.
type Challenge struct {
	Secret    string    `json:"secret"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
