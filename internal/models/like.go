package models

import "time"

// Like records that a user has an active like on a post. The pair is the
// identity; a post's like count is the number of Like rows referencing it
// and a viewer's liked flag is a membership lookup, never a stored field.
type Like struct {
	PostID    string    `gorm:"primaryKey;size:36" json:"post_id"`
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
