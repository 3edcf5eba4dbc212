package models

import (
	"time"
)

type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    uint       `gorm:"not null;index" json:"post_id"`
	Post      Post       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID  *uint      `gorm:"index" json:"parent_id"` // nil for top-level comments
	Content   string     `gorm:"type:text;not null" json:"content"`
	Deleted   bool       `gorm:"default:false" json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsTopLevel reports whether the comment can receive replies. Replies to
// replies are rejected at creation, so nesting never exceeds two levels.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}
