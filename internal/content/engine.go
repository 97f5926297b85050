package content

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/utils"
)

// Generation ranges.
const (
	minDuration     = 300
	maxDuration     = 3600
	minViews        = 100
	maxViews        = 10000
	minLikes        = 10
	maxCommentLikes = 50
	previewLength   = 50
)

// Author styles reported per generated comment.
const (
	StyleAI       = "ai"
	StyleFallback = "fallback"
)

// VideoStore persists and resolves videos.
type VideoStore interface {
	Create(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id int64) (*models.Video, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
}

// TextGenerator writes one comment in a tone.
type TextGenerator interface {
	GenerateComment(ctx context.Context, title, description, tone string) (string, error)
}

// VideoResult describes a generated video.
type VideoResult struct {
	VideoID     int64  `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Duration    int    `json:"duration"`
	ViewCount   int    `json:"view_count"`
	LikeCount   int    `json:"like_count"`
	Message     string `json:"message,omitempty"`
}

// GeneratedComment summarizes one persisted comment; Content is a short preview.
type GeneratedComment struct {
	CommentID   int64  `json:"comment_id"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	Tone        string `json:"tone"`
	AuthorStyle string `json:"author_style"`
}

// CommentsResult describes a comment generation run. Error is set, and
// nothing was written, when the video does not exist.
type CommentsResult struct {
	VideoID           int64              `json:"video_id"`
	VideoTitle        string             `json:"video_title,omitempty"`
	CommentsGenerated int                `json:"comments_generated"`
	Comments          []GeneratedComment `json:"comments"`
	Error             string             `json:"error,omitempty"`
	Message           string             `json:"message,omitempty"`
}

// Engine creates videos and comments from a Catalog.
type Engine struct {
	catalog  Catalog
	videos   VideoStore
	comments CommentStore
	text     TextGenerator
	settings
}

// NewEngine creates a content generation engine.
func NewEngine(catalog Catalog, videos VideoStore, comments CommentStore, text TextGenerator, opts ...Option) *Engine {
	return &Engine{catalog: catalog, videos: videos, comments: comments, text: text, settings: newSettings(opts)}
}

// GenerateVideo builds one video from a random template and topic and persists it.
func (e *Engine) GenerateVideo(ctx context.Context) (*VideoResult, error) {
	title, description := e.catalog.video(e.rng)
	views := between(e.rng, minViews, maxViews)
	slug := strings.ReplaceAll(uuid.NewString(), "-", "")[:11]

	v := &models.Video{
		Title:        title,
		Description:  description,
		URL:          "https://youtube.com/watch?v=" + slug,
		ThumbnailURL: "https://img.youtube.com/vi/" + slug + "/maxresdefault.jpg",
		Duration:     between(e.rng, minDuration, maxDuration),
		ViewCount:    views,
		LikeCount:    between(e.rng, minLikes, views/10),
	}
	if err := e.videos.Create(ctx, v); err != nil {
		return nil, err
	}
	e.logger.Info("video generated", zap.Int64("video_id", v.ID), zap.String("title", v.Title))
	return &VideoResult{
		VideoID:     v.ID,
		Title:       v.Title,
		Description: v.Description,
		URL:         v.URL,
		Duration:    v.Duration,
		ViewCount:   v.ViewCount,
		LikeCount:   v.LikeCount,
	}, nil
}

// GenerateCommentsForVideo writes count comments for a video. Slots that fail
// are skipped, so the result may hold fewer than count comments. A missing
// video is reported in the result, not as an error.
func (e *Engine) GenerateCommentsForVideo(ctx context.Context, videoID int64, count int) (*CommentsResult, error) {
	v, err := e.videos.GetByID(ctx, videoID)
	if errors.Is(err, apperror.ErrNotFound) {
		return &CommentsResult{VideoID: videoID, Comments: []GeneratedComment{}, Error: "Video not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	res := &CommentsResult{VideoID: v.ID, VideoTitle: v.Title, Comments: []GeneratedComment{}}
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		gc, err := e.commentSlot(ctx, v)
		if err != nil {
			e.skip(err, zap.Int64("video_id", v.ID), zap.Int("slot", i))
			continue
		}
		res.Comments = append(res.Comments, *gc)
	}
	res.CommentsGenerated = len(res.Comments)
	return res, nil
}

func (e *Engine) commentSlot(ctx context.Context, v *models.Video) (*GeneratedComment, error) {
	author := e.catalog.author(e.rng)
	tone := e.catalog.tone(e.rng)
	style := StyleAI

	text, err := e.text.GenerateComment(ctx, v.Title, v.Description, tone)
	if err != nil {
		if !e.fallback || !errors.Is(err, apperror.ErrExternalService) {
			return nil, err
		}
		e.logger.Warn("text generation failed, using template", zap.Int64("video_id", v.ID), zap.Error(err))
		text, style = e.catalog.fallbackComment(tone, v.Title), StyleFallback
	}

	c := &models.Comment{
		VideoID:   v.ID,
		Author:    author,
		Content:   text,
		LikeCount: between(e.rng, 0, maxCommentLikes),
	}
	if err := e.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return &GeneratedComment{
		CommentID:   c.ID,
		Author:      author,
		Content:     utils.Ellipsize(text, previewLength),
		Tone:        tone,
		AuthorStyle: style,
	}, nil
}

// skip logs a failed batch item. Expected failures are warnings; anything
// else is an internal error that still must not abort the batch.
func (s settings) skip(err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if apperror.Recoverable(err) {
		s.logger.Warn("skipping item", fields...)
		return
	}
	s.logger.Error("skipping item after unexpected error", append(fields, zap.String("kind", "internal"))...)
}
