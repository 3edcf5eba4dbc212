package services

import (
	"strings"
	"testing"
	"time"

	"blogify/internal/apperr"
	"blogify/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	view, err := svc.Create(post.ID, author.ID, "  First!  ", nil)
	require.NoError(t, err)

	assert.Equal(t, "First!", view.Content, "content is trimmed")
	assert.Equal(t, post.ID, view.PostID)
	assert.Nil(t, view.ParentID)
	assert.False(t, view.Deleted)
	require.NotNil(t, view.Author)
	assert.Equal(t, "alice", view.Author.Username)
}

func TestCreateCommentValidation(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	_, err := svc.Create(post.ID, author.ID, "", nil)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = svc.Create(post.ID, author.ID, "   \n\t  ", nil)
	assert.True(t, apperr.IsKind(err, apperr.Validation), "whitespace-only is empty")

	_, err = svc.Create(post.ID, author.ID, strings.Repeat("x", 2001), nil)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	// Exactly at the limit is fine.
	_, err = svc.Create(post.ID, author.ID, strings.Repeat("x", 2000), nil)
	assert.NoError(t, err)
}

func TestCreateCommentRequiresPublishedPost(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	draft := seedPost(t, conn, author, false)

	// A draft and a missing post look the same to the caller.
	_, err := svc.Create(draft.ID, author.ID, "hello", nil)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	_, err = svc.Create(99999, author.ID, "hello", nil)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestCreateReply(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	top, err := svc.Create(post.ID, author.ID, "top level", nil)
	require.NoError(t, err)

	reply, err := svc.Create(post.ID, author.ID, "a reply", &top.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)
}

func TestCreateReplyToReplyRejected(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	top, err := svc.Create(post.ID, author.ID, "top level", nil)
	require.NoError(t, err)
	reply, err := svc.Create(post.ID, author.ID, "a reply", &top.ID)
	require.NoError(t, err)

	_, err = svc.Create(post.ID, author.ID, "too deep", &reply.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
	assert.Equal(t, "Cannot reply to a reply", apperr.Message(err))
}

func TestCreateReplyMissingParent(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	missing := uint(99999)
	_, err := svc.Create(post.ID, author.ID, "orphan", &missing)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestDeleteCommentSoftDeletes(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	replier := seedUser(t, conn, "bob", "bob@example.com")
	post := seedPost(t, conn, author, true)

	top, err := svc.Create(post.ID, author.ID, "delete me", nil)
	require.NoError(t, err)
	_, err = svc.Create(post.ID, replier.ID, "keep me", &top.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(top.ID, author.ID))

	thread, err := svc.ListThread(post.ID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 1, "the deleted comment keeps its slot")

	got := thread.Comments[0]
	assert.True(t, got.Deleted)
	assert.Equal(t, "[deleted]", got.Content)
	assert.Nil(t, got.Author, "no author on a deleted comment")
	require.Len(t, got.Replies, 1, "replies survive the parent's deletion")
	assert.Equal(t, "keep me", got.Replies[0].Content)
	assert.Equal(t, int64(2), thread.Total, "deleted rows still count")
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	other := seedUser(t, conn, "bob", "bob@example.com")
	post := seedPost(t, conn, author, true)

	comment, err := svc.Create(post.ID, author.ID, "mine", nil)
	require.NoError(t, err)

	err = svc.Delete(comment.ID, other.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))

	// Untouched after the rejected attempt.
	var row models.Comment
	require.NoError(t, conn.First(&row, comment.ID).Error)
	assert.False(t, row.Deleted)
}

func TestDeleteCommentNotFound(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	user := seedUser(t, conn, "alice", "alice@example.com")

	err := svc.Delete(99999, user.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestDeleteCommentIdempotent(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	comment, err := svc.Create(post.ID, author.ID, "once", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(comment.ID, author.ID))
	require.NoError(t, svc.Delete(comment.ID, author.ID))
}

func TestListThreadOrdering(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	base := time.Now().Add(-time.Hour)
	mkComment := func(content string, parentID *uint, offset time.Duration) *models.Comment {
		c := models.Comment{
			PostID:    post.ID,
			UserID:    author.ID,
			ParentID:  parentID,
			Content:   content,
			CreatedAt: base.Add(offset),
		}
		require.NoError(t, conn.Create(&c).Error)
		return &c
	}

	oldTop := mkComment("old top", nil, 0)
	mkComment("new top", nil, 10*time.Minute)
	mkComment("second reply", &oldTop.ID, 5*time.Minute)
	mkComment("first reply", &oldTop.ID, 1*time.Minute)

	thread, err := svc.ListThread(post.ID)
	require.NoError(t, err)

	require.Len(t, thread.Comments, 2)
	assert.Equal(t, "new top", thread.Comments[0].Content, "top level is newest first")
	assert.Equal(t, "old top", thread.Comments[1].Content)
	assert.Empty(t, thread.Comments[0].Replies)

	replies := thread.Comments[1].Replies
	require.Len(t, replies, 2)
	assert.Equal(t, "first reply", replies[0].Content, "replies are oldest first")
	assert.Equal(t, "second reply", replies[1].Content)

	assert.Equal(t, int64(4), thread.Total)
}

func TestListThreadEmpty(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)

	thread, err := svc.ListThread(post.ID)
	require.NoError(t, err)
	assert.Empty(t, thread.Comments)
	assert.Equal(t, int64(0), thread.Total)
}

func TestCount(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCommentService(conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	post := seedPost(t, conn, author, true)
	other := seedPost(t, conn, author, true)

	_, err := svc.Create(post.ID, author.ID, "one", nil)
	require.NoError(t, err)
	_, err = svc.Create(post.ID, author.ID, "two", nil)
	require.NoError(t, err)
	_, err = svc.Create(other.ID, author.ID, "elsewhere", nil)
	require.NoError(t, err)

	total, err := svc.Count(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
