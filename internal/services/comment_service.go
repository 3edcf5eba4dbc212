package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"blogify/internal/apperr"
	"blogify/internal/models"

	"gorm.io/gorm"
)

const (
	maxCommentLength   = 2000
	deletedPlaceholder = "[deleted]"
)

// CommentService owns comment creation, deletion and thread reconstruction.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(conn *gorm.DB) *CommentService {
	return &CommentService{db: conn}
}

// CommentView is the serialized form of a comment. Soft-deleted comments keep
// their slot and timestamp but carry the placeholder content and no author.
type CommentView struct {
	ID        uint               `json:"id"`
	PostID    uint               `json:"post_id"`
	ParentID  *uint              `json:"parent_id,omitempty"`
	Content   string             `json:"content"`
	Deleted   bool               `json:"deleted"`
	CreatedAt time.Time          `json:"created_at"`
	Author    *models.AuthorView `json:"author,omitempty"`
	Replies   []CommentView      `json:"replies,omitempty"`
}

// Thread is the per-post comment forest: top-level comments newest-first,
// each with its replies oldest-first, plus a live total over all rows.
type Thread struct {
	Comments []CommentView `json:"comments"`
	Total    int64         `json:"total"`
}

func newCommentView(c *models.Comment) CommentView {
	view := CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
	}
	if c.Deleted {
		view.Content = deletedPlaceholder
		return view
	}
	view.Content = c.Content
	author := c.User.AuthorView()
	view.Author = &author
	return view
}

// Create validates and inserts a comment or a one-level reply.
//
// The post must exist and be published; a missing and an unpublished post are
// indistinguishable to the caller so drafts stay hidden. A reply's parent
// must itself be top-level, which caps nesting at exactly two levels with a
// single one-hop check.
func (s *CommentService) Create(postID, authorID uint, content string, parentID *uint) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.Validation, "Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, apperr.New(apperr.Validation, "Comment must be less than 2000 characters")
	}

	var post models.Post
	if err := s.db.Where("id = ? AND published = ?", postID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Post not found")
		}
		return nil, apperr.Wrap(apperr.Unexpected, "failed to load post", err)
	}

	if parentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.NotFound, "Parent comment not found")
			}
			return nil, apperr.Wrap(apperr.Unexpected, "failed to load parent comment", err)
		}
		if !parent.IsTopLevel() {
			return nil, apperr.New(apperr.Validation, "Cannot reply to a reply")
		}
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   authorID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to create comment", err)
	}

	if err := s.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to load created comment", err)
	}
	view := newCommentView(&comment)
	return &view, nil
}

// Delete soft-deletes a comment. Only the author may delete; the row stays so
// replies keep a valid parent and their place in the thread.
func (s *CommentService) Delete(commentID, requesterID uint) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Comment not found")
		}
		return apperr.Wrap(apperr.Unexpected, "failed to load comment", err)
	}

	if comment.UserID != requesterID {
		return apperr.New(apperr.Forbidden, "You can only delete your own comments")
	}

	if comment.Deleted {
		return nil
	}

	now := time.Now()
	err := s.db.Model(&comment).Updates(map[string]interface{}{
		"deleted":    true,
		"deleted_at": &now,
	}).Error
	if err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to delete comment", err)
	}
	return nil
}

// ListThread rebuilds the comment forest for a post.
func (s *CommentService) ListThread(postID uint) (*Thread, error) {
	var topLevel []models.Comment
	err := s.db.Preload("User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at DESC").
		Find(&topLevel).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to load comments", err)
	}

	var replies []models.Comment
	err = s.db.Preload("User").
		Where("post_id = ? AND parent_id IS NOT NULL", postID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to load replies", err)
	}

	repliesByParent := make(map[uint][]CommentView)
	for i := range replies {
		reply := newCommentView(&replies[i])
		repliesByParent[*replies[i].ParentID] = append(repliesByParent[*replies[i].ParentID], reply)
	}

	thread := &Thread{Comments: make([]CommentView, 0, len(topLevel))}
	for i := range topLevel {
		view := newCommentView(&topLevel[i])
		view.Replies = repliesByParent[topLevel[i].ID]
		thread.Comments = append(thread.Comments, view)
	}

	if err := s.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&thread.Total).Error; err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to count comments", err)
	}
	return thread, nil
}

// Count returns the live comment total for a post.
func (s *CommentService) Count(postID uint) (int64, error) {
	var total int64
	if err := s.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return 0, apperr.Wrap(apperr.Unexpected, "failed to count comments", err)
	}
	return total, nil
}
