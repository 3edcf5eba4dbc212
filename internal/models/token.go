package models

import (
	"time"
)

// VerificationToken is an email-verification token. The secret is stored
// as-is: verification only flips a flag on the account, so at-rest hashing
// buys little here.
type VerificationToken struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Identifier string    `gorm:"index;not null" json:"identifier"` // email being verified
	Token      string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PasswordResetToken stores only a SHA-256 hash of the secret, so a leaked
// table does not yield usable reset links.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"index;not null" json:"email"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
