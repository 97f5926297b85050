package models

import "time"

// Video represents a simulated video entry.
type Video struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title" validate:"required,max=200"`
	Description   string    `json:"description"`
	URL           string    `json:"url" validate:"required,url"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	Duration      int       `json:"duration" validate:"gte=0"` // seconds
	ViewCount     int       `json:"view_count" validate:"gte=0"`
	LikeCount     int       `json:"like_count" validate:"gte=0"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VideoPatch holds the mutable fields of a video; nil fields are left unchanged.
type VideoPatch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	URL          *string `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Duration     *int    `json:"duration"`
}

// Apply copies the non-nil fields of p onto v.
func (p VideoPatch) Apply(v *Video) {
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.URL != nil {
		v.URL = *p.URL
	}
	if p.ThumbnailURL != nil {
		v.ThumbnailURL = *p.ThumbnailURL
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
}

// VideoDetail is a video with its comments embedded.
type VideoDetail struct {
	Video
	Comments []Comment `json:"comments"`
}

// VideoStats aggregates counters over all videos. Averages and maxima are nil when there are no videos.
type VideoStats struct {
	TotalVideos int      `json:"total_videos"`
	AvgViews    *float64 `json:"avg_views"`
	AvgLikes    *float64 `json:"avg_likes"`
	MaxViews    *int     `json:"max_views"`
	MaxLikes    *int     `json:"max_likes"`
}

// CommentedVideo is one entry of the most-commented ranking.
type CommentedVideo struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ViewCount    int       `json:"view_count"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}
