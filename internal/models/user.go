package models

import (
	"time"
)

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	Password        string     `gorm:"not null" json:"-"` // bcrypt hash; empty for OAuth-only accounts
	Name            string     `gorm:"size:100" json:"name"`
	Bio             string     `gorm:"size:500" json:"bio"`
	Image           string     `json:"image"` // avatar URL
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	GoogleID        string     `gorm:"index" json:"-"` // Google OAuth subject, empty if not linked
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EmailVerified reports whether the account's email has been confirmed.
func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// HasPassword distinguishes credentials accounts from OAuth-only ones.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// AuthorView is the minimal author projection attached to posts and comments.
type AuthorView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

func (u *User) AuthorView() AuthorView {
	return AuthorView{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Image:    u.Image,
	}
}
