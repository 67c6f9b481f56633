package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"alumnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, app *fiber.App, method, target, auth string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createPost(t *testing.T, app *fiber.App, auth, content string) models.Post {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/feed/posts", auth, fiber.Map{
		"content": content,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[models.Post](t, resp)
}

func TestGetFeed_EmptyStore(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/feed/posts", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	page := decode[models.FeedPage](t, resp)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasMore)
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, fiber.MethodPost, "/api/feed/posts", "", fiber.Map{
		"content": "hello",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePost_RoundTrip(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")

	post := createPost(t, app, auth, "<p>Reunion photos are up!</p>")
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "user-1", post.AuthorID)
	assert.Equal(t, "Priya Raman", post.Author.Name)
	assert.Equal(t, 0, post.LikeCount)

	resp := doJSON(t, app, fiber.MethodGet, "/api/feed/posts", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[models.FeedPage](t, resp)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, post.ID, page.Posts[0].ID)
	assert.Equal(t, 1, page.Total)
}

func TestCreatePost_ValidationFailure(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")

	resp := doJSON(t, app, fiber.MethodPost, "/api/feed/posts", auth, fiber.Map{
		"content":   "bad combo",
		"image_url": "http://example.com/a.png",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.CodeValidation, body.Code)
}

func TestGetPost_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/feed/posts/no-such-id", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.CodeNotFound, body.Code)
}

func TestToggleLike_FlipsState(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")
	post := createPost(t, app, auth, "like me")

	target := fmt.Sprintf("/api/feed/posts/%s/like", post.ID)

	resp := doJSON(t, app, fiber.MethodPost, target, auth, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	liked := decode[models.LikeResult](t, resp)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikeCount)

	resp = doJSON(t, app, fiber.MethodPost, target, auth, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	unliked := decode[models.LikeResult](t, resp)
	assert.False(t, unliked.Liked)
	assert.Equal(t, 0, unliked.LikeCount)
}

func TestToggleLike_LikedFlagIsPerViewer(t *testing.T) {
	app, _ := setupTestApp(t)
	author := bearerToken(t, "user-1", "Priya Raman")
	other := bearerToken(t, "user-2", "Dev Patel")
	post := createPost(t, app, author, "popular post")

	resp := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/feed/posts/%s/like", post.ID), other, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The liker sees their flag set.
	resp = doJSON(t, app, fiber.MethodGet, "/api/feed/posts/"+post.ID, other, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	seen := decode[models.Post](t, resp)
	assert.True(t, seen.Liked)
	assert.Equal(t, 1, seen.LikeCount)

	// Anonymous viewers see the count but no flag.
	resp = doJSON(t, app, fiber.MethodGet, "/api/feed/posts/"+post.ID, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	anon := decode[models.Post](t, resp)
	assert.False(t, anon.Liked)
	assert.Equal(t, 1, anon.LikeCount)
}

func TestComments_RoundTrip(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")
	post := createPost(t, app, auth, "discuss")

	target := fmt.Sprintf("/api/feed/posts/%s/comments", post.ID)

	resp := doJSON(t, app, fiber.MethodPost, target, auth, fiber.Map{"content": "congrats!"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	first := decode[models.Comment](t, resp)
	assert.Equal(t, post.ID, first.PostID)
	assert.Equal(t, "Priya Raman", first.Author.Name)

	resp = doJSON(t, app, fiber.MethodPost, target, auth, fiber.Map{"content": "well deserved"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, target, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	comments := decode[[]models.Comment](t, resp)
	require.Len(t, comments, 2)
	assert.Equal(t, "well deserved", comments[0].Content)
	assert.Equal(t, "congrats!", comments[1].Content)

	// The comment count is derived on the parent post.
	resp = doJSON(t, app, fiber.MethodGet, "/api/feed/posts/"+post.ID, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	parent := decode[models.Post](t, resp)
	assert.Equal(t, 2, parent.CommentCount)
}

func TestComments_UnknownPost(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")

	resp := doJSON(t, app, fiber.MethodGet, "/api/feed/posts/ghost/comments", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodPost, "/api/feed/posts/ghost/comments", auth, fiber.Map{"content": "hi"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetFeed_PaginationAndSort(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")

	for i := 1; i <= 5; i++ {
		createPost(t, app, auth, fmt.Sprintf("post %d", i))
	}

	resp := doJSON(t, app, fiber.MethodGet, "/api/feed/posts?page=1&limit=2", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[models.FeedPage](t, resp)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)

	resp = doJSON(t, app, fiber.MethodGet, "/api/feed/posts?page=3&limit=2", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	last := decode[models.FeedPage](t, resp)
	require.Len(t, last.Posts, 1)
	assert.False(t, last.HasMore)

	resp = doJSON(t, app, fiber.MethodGet, "/api/feed/posts?sort=sideways", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetFeed_Search(t *testing.T) {
	app, _ := setupTestApp(t)
	auth := bearerToken(t, "user-1", "Priya Raman")

	createPost(t, app, auth, "Placement drive next week")
	createPost(t, app, auth, "Campus photos")

	resp := doJSON(t, app, fiber.MethodGet, "/api/feed/posts?search=placement", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[models.FeedPage](t, resp)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, 1, page.Total)
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// No DB and no Redis under the local backend; readiness still reports.
	resp = doJSON(t, app, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "unavailable")
}

func TestMalformedTokenRejected(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, fiber.MethodPost, "/api/feed/posts", "Bearer not-a-token", fiber.Map{
		"content": "hello",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
