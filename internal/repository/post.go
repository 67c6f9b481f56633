// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"

	"alumnet/internal/cache"
	"alumnet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error)
	List(ctx context.Context, filters models.PostFilters, limit, offset int, viewerID string) ([]*models.Post, int64, error)
	IsLiked(ctx context.Context, userID, postID string) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error)
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.InvalidateFeedList(ctx)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filters models.PostFilters, limit, offset int, viewerID string) ([]*models.Post, int64, error) {
	var total int64
	countQuery := r.db.WithContext(ctx).Model(&models.Post{})
	if err := applySearch(countQuery, filters.Search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	base := applySearch(r.applyPostDetails(r.db.WithContext(ctx), viewerID), filters.Search)
	err := r.applySort(base, filters.Sort).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// applySearch appends a case-insensitive match across content, author name
// and video title. LOWER/LIKE instead of ILIKE keeps the query portable
// between PostgreSQL and the SQLite test database.
func applySearch(db *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return db
	}
	like := "%" + strings.ToLower(search) + "%"
	return db.Where(
		"LOWER(content) LIKE ? OR LOWER(author_name) LIKE ? OR LOWER(video_title) LIKE ?",
		like, like, like,
	)
}

// applySort appends the ORDER BY clause for the requested sort type.
// The popular sort repeats the count subqueries rather than referencing
// the SELECT aliases; PostgreSQL does not resolve aliases inside ORDER BY
// expressions.
func (r *postRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case models.SortOldest:
		return db.Order("created_at ASC")
	case models.SortPopular:
		return db.Order(
			"((SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) + " +
				"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)) DESC, created_at DESC",
		)
	default: // newest and anything unrecognized
		return db.Order("created_at DESC")
	}
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID string) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) as comment_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as like_count"

	if viewerID != "" {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked", viewerID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var likedPostIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &likedPostIDs).Error
	return likedPostIDs, err
}

func (r *postRepository) Like(ctx context.Context, userID, postID string) error {
	// ON CONFLICT DO NOTHING makes concurrent double-taps a no-op instead
	// of a duplicate key error.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{PostID: postID, UserID: userID}).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
		cache.InvalidateFeedList(ctx)
	}
	return err
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
		cache.InvalidateFeedList(ctx)
	}
	return err
}
