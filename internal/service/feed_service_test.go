package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"alumnet/internal/identity"
	"alumnet/internal/models"
	"alumnet/internal/notifications"
	"alumnet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, string, string) (*models.Post, error)
	listFn            func(context.Context, models.PostFilters, int, int, string) ([]*models.Post, int64, error)
	isLikedFn         func(context.Context, string, string) (bool, error)
	getLikedPostIDsFn func(context.Context, string, []string) ([]string, error)
	likeFn            func(context.Context, string, string) error
	unlikeFn          func(context.Context, string, string) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, filters models.PostFilters, limit, offset int, viewerID string) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filters, limit, offset, viewerID)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID string) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID string) error {
	return s.unlikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, _, _ string) (*models.Post, error) { return &models.Post{}, nil },
		listFn: func(_ context.Context, _ models.PostFilters, _, _ int, _ string) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		isLikedFn:         func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		getLikedPostIDsFn: func(_ context.Context, _ string, _ []string) ([]string, error) { return nil, nil },
		likeFn:            func(_ context.Context, _, _ string) error { return nil },
		unlikeFn:          func(_ context.Context, _, _ string) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	listByPostFn  func(context.Context, string) ([]*models.Comment, error)
	countByPostFn func(context.Context, string) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID string) (int64, error) {
	return s.countByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn:  func(_ context.Context, _ string) ([]*models.Comment, error) { return nil, nil },
		countByPostFn: func(_ context.Context, _ string) (int64, error) { return 0, nil },
	}
}

// eventSink records published feed events.
type eventSink struct {
	events []notifications.FeedEvent
}

func (s *eventSink) PublishFeedEvent(_ context.Context, event notifications.FeedEvent) error {
	s.events = append(s.events, event)
	return nil
}

func testPrincipal() identity.Principal {
	return identity.Principal{
		UserID: "user-1",
		Author: models.AuthorSnapshot{Name: "Priya Raman", Batch: "2014"},
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestListPosts_InvalidSort(t *testing.T) {
	svc := NewFeedService(noopPostRepo(), noopCommentRepo(), nil, nil)

	_, err := svc.ListPosts(context.Background(), ListPostsInput{Sort: "hot"})
	assertValidationError(t, err)
}

func TestListPosts_ClampsPageAndLimit(t *testing.T) {
	repo := noopPostRepo()
	var gotLimit, gotOffset int
	repo.listFn = func(_ context.Context, _ models.PostFilters, limit, offset int, _ string) ([]*models.Post, int64, error) {
		gotLimit, gotOffset = limit, offset
		return nil, 0, nil
	}
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.ListPosts(ctx, ListPostsInput{Page: 0, Limit: 0, Search: "q"})
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 0, gotOffset)

	_, err = svc.ListPosts(ctx, ListPostsInput{Page: 3, Limit: 500, Search: "q"})
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 100, gotOffset)
}

func TestListPosts_HasMore(t *testing.T) {
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _ models.PostFilters, limit, offset int, _ string) ([]*models.Post, int64, error) {
		posts := []*models.Post{{ID: "a"}, {ID: "b"}}
		return posts, 5, nil
	}
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: 1, Limit: 2, Search: "x"})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)

	repo.listFn = func(_ context.Context, _ models.PostFilters, limit, offset int, _ string) ([]*models.Post, int64, error) {
		return []*models.Post{{ID: "e"}}, 5, nil
	}
	last, err := svc.ListPosts(context.Background(), ListPostsInput{Page: 3, Limit: 2, Search: "x"})
	require.NoError(t, err)
	assert.False(t, last.HasMore, "slice end 5 is not below total 5")
}

func TestListPosts_EmptyPageNeverNil(t *testing.T) {
	svc := NewFeedService(noopPostRepo(), noopCommentRepo(), nil, nil)

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: 2, Search: "nothing"})
	require.NoError(t, err)
	require.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
}

func TestCreatePost_RequiresContent(t *testing.T) {
	svc := NewFeedService(noopPostRepo(), noopCommentRepo(), nil, nil)

	_, err := svc.CreatePost(context.Background(), testPrincipal(), CreatePostInput{Content: "   "})
	assertValidationError(t, err)

	_, err = svc.CreatePost(context.Background(), testPrincipal(), CreatePostInput{
		Content: strings.Repeat("a", 50001),
	})
	assertValidationError(t, err)
}

func TestCreatePost_MediaInvariant(t *testing.T) {
	svc := NewFeedService(noopPostRepo(), noopCommentRepo(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"none with image url", CreatePostInput{Content: "x", ImageURL: "http://img"}},
		{"none with youtube url", CreatePostInput{Content: "x", YoutubeURL: "https://youtu.be/abc"}},
		{"image without url", CreatePostInput{Content: "x", MediaType: models.MediaTypeImage}},
		{"image with youtube url", CreatePostInput{Content: "x", MediaType: models.MediaTypeImage, ImageURL: "http://img", YoutubeURL: "https://youtu.be/abc"}},
		{"youtube without url", CreatePostInput{Content: "x", MediaType: models.MediaTypeYoutube}},
		{"youtube with image url", CreatePostInput{Content: "x", MediaType: models.MediaTypeYoutube, YoutubeURL: "https://youtu.be/abc", ImageURL: "http://img"}},
		{"youtube with non-youtube url", CreatePostInput{Content: "x", MediaType: models.MediaTypeYoutube, YoutubeURL: "https://vimeo.com/123"}},
		{"unknown media type", CreatePostInput{Content: "x", MediaType: "gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, testPrincipal(), tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestCreatePost_Success(t *testing.T) {
	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		created = p
		return nil
	}
	sink := &eventSink{}
	svc := NewFeedService(repo, noopCommentRepo(), nil, sink)

	post, err := svc.CreatePost(context.Background(), testPrincipal(), CreatePostInput{
		Content: "<p>Reunion photos are up!</p>",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "user-1", post.AuthorID)
	assert.Equal(t, "Priya Raman", post.Author.Name)
	assert.Equal(t, models.MediaTypeNone, post.MediaType)
	assert.Equal(t, 0, post.LikeCount)
	assert.False(t, post.Liked)

	require.Len(t, sink.events, 1)
	assert.Equal(t, notifications.EventPostCreated, sink.events[0].Kind)
	assert.Equal(t, "user-1", sink.events[0].ActorID)
}

func TestCreatePost_DerivesYoutubeID(t *testing.T) {
	repo := noopPostRepo()
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, testPrincipal(), CreatePostInput{
		Content:    "watch this",
		MediaType:  models.MediaTypeYoutube,
		YoutubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		VideoTitle: "Recruitment tips",
	})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", post.YoutubeID)
	assert.Equal(t, "Recruitment tips", post.VideoTitle)
}

func TestCreatePost_FallsBackToDirectorySnapshot(t *testing.T) {
	directory := identity.NewDirectory()
	directory.Add("user-1", models.AuthorSnapshot{Name: "Priya Raman"})
	svc := NewFeedService(noopPostRepo(), noopCommentRepo(), directory, nil)

	bare := identity.Principal{UserID: "user-1"}
	post, err := svc.CreatePost(context.Background(), bare, CreatePostInput{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Priya Raman", post.Author.Name)

	unknown := identity.Principal{UserID: "ghost"}
	_, err = svc.CreatePost(context.Background(), unknown, CreatePostInput{Content: "hello"})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
}

func TestToggleLike_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _, _ string) (*models.Post, error) {
		return nil, repository.ErrNotFound
	}
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)

	_, err := svc.ToggleLike(context.Background(), "user-1", "missing")
	assertNotFoundError(t, err)
}

func TestToggleLike_LikesWhenNotLiked(t *testing.T) {
	repo := noopPostRepo()
	var liked, unliked bool
	repo.likeFn = func(_ context.Context, _, _ string) error { liked = true; return nil }
	repo.unlikeFn = func(_ context.Context, _, _ string) error { unliked = true; return nil }
	repo.getByIDFn = func(_ context.Context, id, viewerID string) (*models.Post, error) {
		post := &models.Post{ID: id}
		if liked && viewerID != "" {
			post.Liked = true
			post.LikeCount = 1
		}
		return post, nil
	}
	sink := &eventSink{}
	svc := NewFeedService(repo, noopCommentRepo(), nil, sink)

	result, err := svc.ToggleLike(context.Background(), "user-1", "post-1")
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikeCount)
	assert.True(t, liked)
	assert.False(t, unliked)

	require.Len(t, sink.events, 1)
	assert.Equal(t, notifications.EventReactionUpdated, sink.events[0].Kind)
}

func TestToggleLike_UnlikesWhenLiked(t *testing.T) {
	repo := noopPostRepo()
	repo.isLikedFn = func(_ context.Context, _, _ string) (bool, error) { return true, nil }
	var unliked bool
	repo.unlikeFn = func(_ context.Context, _, _ string) error { unliked = true; return nil }
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)

	result, err := svc.ToggleLike(context.Background(), "user-1", "post-1")
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.LikeCount)
	assert.True(t, unliked)
}

func TestListComments_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _, _ string) (*models.Post, error) {
		return nil, repository.ErrNotFound
	}
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)

	_, err := svc.ListComments(context.Background(), "missing")
	assertNotFoundError(t, err)
}

func TestAddComment_Validation(t *testing.T) {
	svc := NewFeedService(noopPostRepo(), noopCommentRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, testPrincipal(), AddCommentInput{PostID: "p1", Content: "  "})
	assertValidationError(t, err)

	_, err = svc.AddComment(ctx, testPrincipal(), AddCommentInput{
		PostID:  "p1",
		Content: strings.Repeat("a", 10001),
	})
	assertValidationError(t, err)
}

func TestAddComment_Success(t *testing.T) {
	comments := noopCommentRepo()
	var created *models.Comment
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		created = c
		return nil
	}
	sink := &eventSink{}
	svc := NewFeedService(noopPostRepo(), comments, nil, sink)

	comment, err := svc.AddComment(context.Background(), testPrincipal(), AddCommentInput{
		PostID:  "post-1",
		Content: "congrats!",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "post-1", comment.PostID)
	assert.Equal(t, "user-1", comment.AuthorID)
	assert.Equal(t, "Priya Raman", comment.Author.Name)

	require.Len(t, sink.events, 1)
	assert.Equal(t, notifications.EventCommentCreated, sink.events[0].Kind)
}

func TestAddComment_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _, _ string) (*models.Post, error) {
		return nil, repository.ErrNotFound
	}
	svc := NewFeedService(repo, noopCommentRepo(), nil, nil)

	_, err := svc.AddComment(context.Background(), testPrincipal(), AddCommentInput{
		PostID:  "missing",
		Content: "hello",
	})
	assertNotFoundError(t, err)
}

func TestYoutubeVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=30", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/playlist?list=PL123", ""},
		{"not a url at all ://", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, youtubeVideoID(tt.url), tt.url)
	}
}
