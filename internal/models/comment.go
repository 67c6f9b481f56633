package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a reply attached to exactly one Post.
type Comment struct {
	ID       string         `gorm:"primaryKey;size:36" json:"id"`
	PostID   string         `gorm:"size:36;not null;index" json:"post_id"`
	AuthorID string         `gorm:"size:36;not null" json:"author_id"`
	Author   AuthorSnapshot `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	Content  string         `gorm:"type:text;not null" json:"content"`
	// CreatedAt is immutable; comments are never edited in this application.
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns an opaque UUID identity when none was supplied.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
