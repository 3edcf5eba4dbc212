package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(Validation, "bad input"), http.StatusBadRequest},
		{New(Expired, "too late"), http.StatusBadRequest},
		{New(Unauthenticated, "who are you"), http.StatusUnauthorized},
		{New(Forbidden, "not yours"), http.StatusForbidden},
		{New(NotFound, "gone"), http.StatusNotFound},
		{New(RateLimited, "slow down"), http.StatusTooManyRequests},
		{Wrap(Unexpected, "db down", errors.New("conn refused")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), "error %v", tc.err)
	}
}

func TestMessageHidesUnexpectedDetails(t *testing.T) {
	err := Wrap(Unexpected, "failed to load post", errors.New("pq: relation missing"))
	assert.Equal(t, "Something went wrong. Please try again.", Message(err))

	assert.Equal(t, "Post not found", Message(New(NotFound, "Post not found")))
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := New(NotFound, "Comment not found")
	outer := fmt.Errorf("listing thread: %w", inner)

	assert.True(t, IsKind(outer, NotFound))
	assert.False(t, IsKind(outer, Forbidden))
	assert.False(t, IsKind(errors.New("plain"), NotFound))
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := New(Expired, "Reset token has expired. Please request a new one.")
	assert.True(t, errors.Is(err, New(Expired, "")))
	assert.False(t, errors.Is(err, New(NotFound, "")))
}
