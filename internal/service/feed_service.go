package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"alumnet/internal/cache"
	"alumnet/internal/identity"
	"alumnet/internal/models"
	"alumnet/internal/notifications"
	"alumnet/internal/observability"
	"alumnet/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50

	maxContentLen = 50000 // 50K characters
	maxCommentLen = 10000
)

// FeedService owns the feed use-cases: paged listing, creation, like toggle
// and comments. It is constructed once at startup and injected into the
// HTTP layer; it never reaches for ambient global state.
type FeedService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	identity identity.Provider
	events   notifications.Publisher
}

type ListPostsInput struct {
	Page     int
	Limit    int
	Search   string
	Sort     string
	ViewerID string
}

type CreatePostInput struct {
	Content    string
	MediaType  string
	ImageURL   string
	YoutubeURL string
	VideoTitle string
}

type AddCommentInput struct {
	PostID  string
	Content string
}

func NewFeedService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	provider identity.Provider,
	events notifications.Publisher,
) *FeedService {
	if events == nil {
		events = notifications.NewNotifier(nil)
	}
	return &FeedService{
		posts:    posts,
		comments: comments,
		identity: provider,
		events:   events,
	}
}

// ListPosts returns one page of the feed. Filtering and sorting apply to
// the entire collection before the page is sliced; Total is the filtered
// count and HasMore is true iff the slice end index is below it.
func (s *FeedService) ListPosts(ctx context.Context, in ListPostsInput) (*models.FeedPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	sort := in.Sort
	switch sort {
	case "", models.SortNewest, models.SortOldest, models.SortPopular:
	default:
		return nil, models.NewValidationError("sort must be newest, oldest or popular")
	}
	if sort == "" {
		sort = models.SortNewest
	}
	observability.FeedPageLoads.WithLabelValues(sort).Inc()

	offset := (page - 1) * limit
	filters := models.PostFilters{Search: in.Search, Sort: sort}

	// The default first page is the hot path; serve it cache-aside. The
	// cached copy is viewer-neutral, so liked flags are recomputed below.
	cacheable := page == 1 && strings.TrimSpace(in.Search) == "" && sort == models.SortNewest
	if cacheable {
		key := cache.FeedListKey(limit)
		var cached models.FeedPage
		if err := cache.GetJSON(ctx, key, &cached); err == nil {
			observability.CacheHits.WithLabelValues("feed_list").Inc()
			if err := s.applyViewerLikes(ctx, cached.Posts, in.ViewerID); err != nil {
				return nil, err
			}
			return &cached, nil
		}

		fresh, err := s.listPage(ctx, filters, page, limit, offset, "")
		if err != nil {
			return nil, err
		}
		_ = cache.SetJSON(ctx, key, fresh, cache.FeedListTTL)
		if err := s.applyViewerLikes(ctx, fresh.Posts, in.ViewerID); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	return s.listPage(ctx, filters, page, limit, offset, in.ViewerID)
}

func (s *FeedService) listPage(ctx context.Context, filters models.PostFilters, page, limit, offset int, viewerID string) (*models.FeedPage, error) {
	posts, total, err := s.posts.List(ctx, filters, limit, offset, viewerID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &models.FeedPage{
		Posts:   posts,
		Page:    page,
		Limit:   limit,
		Total:   int(total),
		HasMore: offset+len(posts) < int(total),
	}, nil
}

// applyViewerLikes recomputes the per-viewer liked flags on a viewer-neutral
// page.
func (s *FeedService) applyViewerLikes(ctx context.Context, posts []*models.Post, viewerID string) error {
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	likedIDs, err := s.posts.GetLikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	liked := make(map[string]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}
	for _, p := range posts {
		p.Liked = liked[p.ID]
	}
	return nil
}

// GetPost returns one post with derived counts and the viewer's liked flag.
func (s *FeedService) GetPost(ctx context.Context, id string, viewerID string) (*models.Post, error) {
	if viewerID == "" {
		post, err := cache.Aside(ctx, cache.PostKey(id), cache.PostTTL, func() (*models.Post, error) {
			return s.posts.GetByID(ctx, id, "")
		})
		return post, s.mapNotFound(err, id)
	}
	post, err := s.posts.GetByID(ctx, id, viewerID)
	return post, s.mapNotFound(err, id)
}

func (s *FeedService) mapNotFound(err error, postID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("Post", postID)
	}
	return err
}

func (s *FeedService) CreatePost(ctx context.Context, principal identity.Principal, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	mediaType := in.MediaType
	if mediaType == "" {
		mediaType = models.MediaTypeNone
	}

	post := &models.Post{
		AuthorID:  principal.UserID,
		Content:   in.Content,
		MediaType: mediaType,
	}

	// Exactly one media representation is valid per type.
	switch mediaType {
	case models.MediaTypeNone:
		if in.ImageURL != "" || in.YoutubeURL != "" {
			return nil, models.NewValidationError("Media URLs are not allowed without a media type")
		}
	case models.MediaTypeImage:
		if strings.TrimSpace(in.ImageURL) == "" {
			return nil, models.NewValidationError("image_url is required for image posts")
		}
		if in.YoutubeURL != "" {
			return nil, models.NewValidationError("An image post cannot carry a youtube_url")
		}
		post.ImageURL = in.ImageURL
	case models.MediaTypeYoutube:
		if in.YoutubeURL == "" {
			return nil, models.NewValidationError("youtube_url is required for youtube posts")
		}
		if in.ImageURL != "" {
			return nil, models.NewValidationError("A youtube post cannot carry an image_url")
		}
		if !isYouTubeURL(in.YoutubeURL) {
			return nil, models.NewValidationError("youtube_url must be a valid YouTube URL")
		}
		videoID := youtubeVideoID(in.YoutubeURL)
		if videoID == "" {
			return nil, models.NewValidationError("Could not derive a video id from youtube_url")
		}
		post.YoutubeURL = in.YoutubeURL
		post.YoutubeID = videoID
		post.VideoTitle = in.VideoTitle
	default:
		return nil, models.NewValidationError("Invalid media_type")
	}

	author, err := s.resolveAuthor(ctx, principal)
	if err != nil {
		return nil, err
	}
	post.Author = author

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.FeedMutations.WithLabelValues("post_create").Inc()
	_ = s.events.PublishFeedEvent(ctx, notifications.FeedEvent{
		Kind:    notifications.EventPostCreated,
		PostID:  post.ID,
		ActorID: principal.UserID,
	})
	return post, nil
}

// resolveAuthor prefers the snapshot the token carried and falls back to a
// directory lookup when the claims were bare.
func (s *FeedService) resolveAuthor(ctx context.Context, principal identity.Principal) (models.AuthorSnapshot, error) {
	if principal.Author.Name != "" {
		return principal.Author, nil
	}
	if s.identity == nil {
		return models.AuthorSnapshot{}, models.NewUnauthorizedError("No author snapshot available")
	}
	author, err := s.identity.Snapshot(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownUser) {
			return models.AuthorSnapshot{}, models.NewUnauthorizedError("Unknown member")
		}
		return models.AuthorSnapshot{}, err
	}
	return author, nil
}

// ToggleLike flips the viewer's like on a post and returns the resulting
// state with the derived count.
func (s *FeedService) ToggleLike(ctx context.Context, userID, postID string) (*models.LikeResult, error) {
	liked, err := s.posts.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID, ""); err != nil {
		return nil, s.mapNotFound(err, postID)
	}

	if liked {
		err = s.posts.Unlike(ctx, userID, postID)
	} else {
		err = s.posts.Like(ctx, userID, postID)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, s.mapNotFound(err, postID)
	}

	observability.FeedMutations.WithLabelValues("like_toggle").Inc()
	_ = s.events.PublishFeedEvent(ctx, notifications.FeedEvent{
		Kind:    notifications.EventReactionUpdated,
		PostID:  postID,
		ActorID: userID,
	})
	return &models.LikeResult{
		Liked:     updated.Liked,
		LikeCount: updated.LikeCount,
	}, nil
}

// ListComments returns all comments for a post, newest first.
func (s *FeedService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, ""); err != nil {
		return nil, s.mapNotFound(err, postID)
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *FeedService) AddComment(ctx context.Context, principal identity.Principal, in AddCommentInput) (*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, in.PostID, ""); err != nil {
		return nil, s.mapNotFound(err, in.PostID)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	author, err := s.resolveAuthor(ctx, principal)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: principal.UserID,
		Author:   author,
		Content:  in.Content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.FeedMutations.WithLabelValues("comment_add").Inc()
	_ = s.events.PublishFeedEvent(ctx, notifications.FeedEvent{
		Kind:    notifications.EventCommentCreated,
		PostID:  in.PostID,
		ActorID: principal.UserID,
	})
	return comment, nil
}

// isYouTubeURL returns true if u is a YouTube watch, share or embed URL.
func isYouTubeURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be")
}

// youtubeVideoID extracts the video id from the URL shapes YouTube uses:
// watch?v=, youtu.be/, embed/ and shorts/.
func youtubeVideoID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	path := strings.Trim(parsed.Path, "/")

	if strings.Contains(host, "youtu.be") {
		return firstSegment(path)
	}
	if v := parsed.Query().Get("v"); v != "" {
		return v
	}
	for _, prefix := range []string{"embed/", "shorts/"} {
		if strings.HasPrefix(path, prefix) {
			return firstSegment(strings.TrimPrefix(path, prefix))
		}
	}
	return ""
}

func firstSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
