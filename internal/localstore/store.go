package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"alumnet/internal/cache"
	"alumnet/internal/models"
	"alumnet/internal/observability"
	"alumnet/internal/repository"

	"github.com/google/uuid"
)

const (
	postsKey    = "alumnet:posts"
	commentsKey = "alumnet:comments"
	likesKey    = "alumnet:likes"
)

// Store keeps the feed collections in a KV. Its Posts and Comments views
// implement the same repository interfaces as the SQL backend. All
// operations go through a single mutex, so read-modify-write cycles on the
// JSON blobs are atomic within one process.
type Store struct {
	kv KV
	mu sync.Mutex
}

// New creates a Store on top of the given KV.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Posts returns the store's PostRepository view.
func (s *Store) Posts() repository.PostRepository {
	return postStore{s}
}

// Comments returns the store's CommentRepository view.
func (s *Store) Comments() repository.CommentRepository {
	return commentStore{s}
}

type postStore struct{ *Store }

type commentStore struct{ *Store }

var (
	_ repository.PostRepository    = postStore{}
	_ repository.CommentRepository = commentStore{}
)

func loadCollection[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

func saveCollection[T any](ctx context.Context, kv KV, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s postStore) Create(ctx context.Context, post *models.Post) error {
	done := observability.TrackQuery("create", "posts")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	posts, err := loadCollection[models.Post](ctx, s.kv, postsKey)
	if err != nil {
		return err
	}
	// Derived fields are recomputed at read time, never stored.
	stored := *post
	stored.LikeCount, stored.CommentCount, stored.Liked = 0, 0, false
	posts = append(posts, stored)
	if err := saveCollection(ctx, s.kv, postsKey, posts); err != nil {
		return err
	}
	cache.InvalidateFeedList(ctx)
	return nil
}

func (s postStore) GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error) {
	done := observability.TrackQuery("get", "posts")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := loadCollection[models.Post](ctx, s.kv, postsKey)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			post := posts[i]
			if err := s.decorate(ctx, &post, viewerID); err != nil {
				return nil, err
			}
			return &post, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s postStore) List(ctx context.Context, filters models.PostFilters, limit, offset int, viewerID string) ([]*models.Post, int64, error) {
	done := observability.TrackQuery("list", "posts")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := loadCollection[models.Post](ctx, s.kv, postsKey)
	if err != nil {
		return nil, 0, err
	}
	comments, err := loadCollection[models.Comment](ctx, s.kv, commentsKey)
	if err != nil {
		return nil, 0, err
	}
	likes, err := loadCollection[models.Like](ctx, s.kv, likesKey)
	if err != nil {
		return nil, 0, err
	}

	likeCounts := make(map[string]int)
	likedByViewer := make(map[string]bool)
	for _, l := range likes {
		likeCounts[l.PostID]++
		if viewerID != "" && l.UserID == viewerID {
			likedByViewer[l.PostID] = true
		}
	}
	commentCounts := make(map[string]int)
	for _, c := range comments {
		commentCounts[c.PostID]++
	}

	matched := make([]*models.Post, 0, len(posts))
	search := strings.ToLower(strings.TrimSpace(filters.Search))
	for i := range posts {
		post := posts[i]
		post.LikeCount = likeCounts[post.ID]
		post.CommentCount = commentCounts[post.ID]
		post.Liked = likedByViewer[post.ID]
		if search != "" && !matchesSearch(&post, search) {
			continue
		}
		matched = append(matched, &post)
	}

	// Sort the whole filtered collection, then slice: pagination is never
	// computed on an already-paginated subset.
	sortPosts(matched, filters.Sort)
	total := int64(len(matched))

	if offset >= len(matched) {
		return []*models.Post{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func matchesSearch(post *models.Post, search string) bool {
	return strings.Contains(strings.ToLower(post.Content), search) ||
		strings.Contains(strings.ToLower(post.Author.Name), search) ||
		strings.Contains(strings.ToLower(post.VideoTitle), search)
}

func sortPosts(posts []*models.Post, sortBy string) {
	switch sortBy {
	case models.SortOldest:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		})
	case models.SortPopular:
		sort.SliceStable(posts, func(i, j int) bool {
			si := posts[i].LikeCount + posts[i].CommentCount
			sj := posts[j].LikeCount + posts[j].CommentCount
			if si != sj {
				return si > sj
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	default:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

func (s *Store) decorate(ctx context.Context, post *models.Post, viewerID string) error {
	comments, err := loadCollection[models.Comment](ctx, s.kv, commentsKey)
	if err != nil {
		return err
	}
	likes, err := loadCollection[models.Like](ctx, s.kv, likesKey)
	if err != nil {
		return err
	}

	post.LikeCount, post.CommentCount, post.Liked = 0, 0, false
	for _, l := range likes {
		if l.PostID != post.ID {
			continue
		}
		post.LikeCount++
		if viewerID != "" && l.UserID == viewerID {
			post.Liked = true
		}
	}
	for _, c := range comments {
		if c.PostID == post.ID {
			post.CommentCount++
		}
	}
	return nil
}

func (s postStore) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := loadCollection[models.Like](ctx, s.kv, likesKey)
	if err != nil {
		return false, err
	}
	for _, l := range likes {
		if l.UserID == userID && l.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (s postStore) GetLikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := loadCollection[models.Like](ctx, s.kv, likesKey)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	var liked []string
	for _, l := range likes {
		if l.UserID == userID && wanted[l.PostID] {
			liked = append(liked, l.PostID)
		}
	}
	return liked, nil
}

func (s postStore) Like(ctx context.Context, userID, postID string) error {
	done := observability.TrackQuery("like", "likes")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := loadCollection[models.Like](ctx, s.kv, likesKey)
	if err != nil {
		return err
	}
	// Idempotent: a like that already exists is left alone.
	for _, l := range likes {
		if l.UserID == userID && l.PostID == postID {
			return nil
		}
	}
	likes = append(likes, models.Like{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	if err := saveCollection(ctx, s.kv, likesKey, likes); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateFeedList(ctx)
	return nil
}

func (s postStore) Unlike(ctx context.Context, userID, postID string) error {
	done := observability.TrackQuery("unlike", "likes")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := loadCollection[models.Like](ctx, s.kv, likesKey)
	if err != nil {
		return err
	}
	kept := likes[:0]
	for _, l := range likes {
		if l.UserID == userID && l.PostID == postID {
			continue
		}
		kept = append(kept, l)
	}
	if err := saveCollection(ctx, s.kv, likesKey, kept); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateFeedList(ctx)
	return nil
}

func (s commentStore) Create(ctx context.Context, comment *models.Comment) error {
	done := observability.TrackQuery("create", "comments")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	comments, err := loadCollection[models.Comment](ctx, s.kv, commentsKey)
	if err != nil {
		return err
	}
	comments = append(comments, *comment)
	if err := saveCollection(ctx, s.kv, commentsKey, comments); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	cache.InvalidateFeedList(ctx)
	return nil
}

func (s commentStore) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	done := observability.TrackQuery("list", "comments")
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := loadCollection[models.Comment](ctx, s.kv, commentsKey)
	if err != nil {
		return nil, err
	}
	var matched []*models.Comment
	for i := range comments {
		if comments[i].PostID == postID {
			c := comments[i]
			matched = append(matched, &c)
		}
	}
	// Newest first.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s commentStore) CountByPost(ctx context.Context, postID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := loadCollection[models.Comment](ctx, s.kv, commentsKey)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, c := range comments {
		if c.PostID == postID {
			count++
		}
	}
	return count, nil
}
