package models

import "time"

// Comment is a viewer comment attached to a video.
type Comment struct {
	ID        int64     `json:"id"`
	VideoID   int64     `json:"video" validate:"required"`
	Author    string    `json:"author" validate:"required,max=100"`
	Content   string    `json:"content" validate:"required"`
	LikeCount int       `json:"like_count" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentPatch holds the mutable fields of a comment; nil fields are left unchanged.
type CommentPatch struct {
	Author  *string `json:"author"`
	Content *string `json:"content"`
}

// Apply copies the non-nil fields of p onto c.
func (p CommentPatch) Apply(c *Comment) {
	if p.Author != nil {
		c.Author = *p.Author
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
}

// CommentStats aggregates counters over all comments.
type CommentStats struct {
	TotalComments int      `json:"total_comments"`
	AvgLikes      *float64 `json:"avg_likes"`
}
