package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostSlugCollision(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	cookies := login(t, r, author.ID)

	body := `{"title":"My Great Post","content":"words","published":true}`

	w := doJSON(r, http.MethodPost, "/api/posts", body, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	first := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "my-great-post", first["slug"])

	w = doJSON(r, http.MethodPost, "/api/posts", body, cookies)
	require.Equal(t, http.StatusCreated, w.Code, "the second post with the same title still persists")
	second := decodeBody(t, w)["data"].(map[string]interface{})

	secondSlug := second["slug"].(string)
	assert.NotEqual(t, first["slug"], secondSlug)
	assert.True(t, strings.HasPrefix(secondSlug, "my-great-post-"), "collision appends a suffix, got %q", secondSlug)
}

func TestDraftPostHiddenFromOthers(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, conn)
	author := seedUser(t, conn, "alice", "alice@example.com")
	reader := seedUser(t, conn, "bob", "bob@example.com")
	draft := seedPost(t, conn, author, false)

	// Detail: anonymous and other users get the same 404 a missing post would.
	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	readerCookies := login(t, r, reader.ID)
	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), "", readerCookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	authorCookies := login(t, r, author.ID)
	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), "", authorCookies)
	assert.Equal(t, http.StatusOK, w.Code, "the author still sees their own draft")

	// Bookmarking: a draft looks missing there too.
	w = doJSON(r, http.MethodPost, "/api/bookmarks",
		fmt.Sprintf(`{"post_id":%d}`, draft.ID), readerCookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchSkipsDrafts(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, conn)
	author := seedUser(t, conn, "alice", "alice@example.com")

	published := seedPost(t, conn, author, true)
	require.NoError(t, conn.Model(published).Update("title", "Gardening for beginners").Error)
	draft := seedPost(t, conn, author, false)
	require.NoError(t, conn.Model(draft).Update("title", "Gardening secrets draft").Error)

	w := doJSON(r, http.MethodGet, "/api/posts/search?q=gardening", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	results := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Gardening for beginners", results[0].(map[string]interface{})["title"])
}

func TestFeedSkipsDrafts(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, conn)
	author := seedUser(t, conn, "alice", "alice@example.com")

	published := seedPost(t, conn, author, true)
	require.NoError(t, conn.Model(published).Update("title", "Published headline").Error)
	draft := seedPost(t, conn, author, false)
	require.NoError(t, conn.Model(draft).Update("title", "Draft headline").Error)

	w := doJSON(r, http.MethodGet, "/feed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<rss")
	assert.Contains(t, body, "Published headline")
	assert.NotContains(t, body, "Draft headline")
}
