package models

import (
	"time"
)

type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Slug          string     `gorm:"uniqueIndex;not null" json:"slug"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	User          User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Excerpt       string     `gorm:"size:500" json:"excerpt"`
	FeaturedImage string     `json:"featured_image"`
	Published     bool       `gorm:"default:false;index" json:"published"`
	PublishedAt   *time.Time `gorm:"index" json:"published_at"`
	Views         int        `gorm:"default:0" json:"views"`
	Categories    []Category `gorm:"many2many:post_categories;" json:"categories"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Filled by queries, not stored
	CommentCount int        `gorm:"-" json:"comment_count"`
	Author       AuthorView `gorm:"-" json:"author"`
}
