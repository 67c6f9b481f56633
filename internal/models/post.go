// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Media types a post may carry. Exactly one media representation is valid
// per type: image posts carry ImageURL, youtube posts carry YoutubeURL,
// none carries neither.
const (
	MediaTypeNone    = "none"
	MediaTypeImage   = "image"
	MediaTypeYoutube = "youtube"
)

// AuthorSnapshot is the author's display data captured at creation time.
// It is intentionally never re-synced with later profile edits.
type AuthorSnapshot struct {
	Name        string `gorm:"size:120;not null" json:"name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Batch       string `gorm:"size:16" json:"batch,omitempty"`
	Designation string `gorm:"size:120" json:"designation,omitempty"`
	Company     string `gorm:"size:120" json:"company,omitempty"`
}

// Post represents an alumni feed entry.
type Post struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	AuthorID   string         `gorm:"size:36;not null;index" json:"author_id"`
	Author     AuthorSnapshot `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	MediaType  string         `gorm:"size:16;not null;default:'none'" json:"media_type"`
	ImageURL   string         `json:"image_url,omitempty"`
	YoutubeURL string         `json:"youtube_url,omitempty"`
	// YoutubeID is derived from YoutubeURL at creation time.
	YoutubeID  string `gorm:"size:16" json:"youtube_id,omitempty"`
	VideoTitle string `gorm:"size:200" json:"video_title,omitempty"`
	// LikeCount is not persisted; derived from the likes relation at query time
	LikeCount int `gorm:"->;-:migration" json:"like_count"`
	// CommentCount is not persisted; derived from the comments relation at query time
	CommentCount int `gorm:"->;-:migration" json:"comment_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns an opaque UUID identity when none was supplied.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
