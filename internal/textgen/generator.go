package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/utils"
)

const (
	systemPrompt = "You are a YouTube viewer generating realistic comments. " +
		"Create natural, authentic comments that people would actually write. " +
		"Keep comments concise (1-3 sentences) and avoid overly promotional language."

	descriptionLimit = 200
	maxTokens        = 100
	temperature      = 0.8
	// MaxBulk is the most comments one bulk request may ask for.
	MaxBulk = 10
	// DefaultAuthor is used when a saved comment has no author.
	DefaultAuthor = "AI User"
	// DefaultTone is used when no tone is given.
	DefaultTone = "friendly"
)

// DefaultTones is the tone cycle used by bulk generation when none is given.
func DefaultTones() []string {
	return []string{"friendly", "excited", "thoughtful", "appreciative", "curious"}
}

// Completer runs a single-turn chat completion. *Client implements it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, options ...Option) (string, error)
}

// VideoGetter resolves a video by id.
type VideoGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Video, error)
}

// CommentCreator persists a comment.
type CommentCreator interface {
	Create(ctx context.Context, c *models.Comment) error
}

// BulkRequest asks for Count comments cycling through Tones.
type BulkRequest struct {
	Title       string
	Description string
	Count       int `validate:"gte=1,lte=10"`
	Tones       []string
}

// Generator writes comments for videos.
type Generator struct {
	completer Completer
	videos    VideoGetter
	comments  CommentCreator
	validate  *validator.Validate
}

// NewGenerator creates a comment generator. videos and comments are only needed by GenerateAndSave.
func NewGenerator(completer Completer, videos VideoGetter, comments CommentCreator) *Generator {
	return &Generator{completer: completer, videos: videos, comments: comments, validate: validator.New()}
}

// GenerateComment writes one comment in the given tone. Any API failure, a
// response without choices or a blank completion is an ErrExternalService.
func (g *Generator) GenerateComment(ctx context.Context, title, description, tone string) (string, error) {
	if tone == "" {
		tone = DefaultTone
	}
	prompt := fmt.Sprintf("Write a %s comment for a video titled '%s'", tone, title)
	if description != "" {
		prompt += " with description: " + utils.Truncate(description, descriptionLimit)
	}

	text, err := g.completer.Complete(ctx, systemPrompt, prompt, WithMaxTokens(maxTokens), WithTemperature(temperature))
	if err != nil {
		return "", apperror.ExternalService("Failed to generate comment: %v", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ExternalService("text generation returned an empty response")
	}
	return text, nil
}

// GenerateBulk writes Count comments, cycling through the tones. The count
// is validated before any external call is made.
func (g *Generator) GenerateBulk(ctx context.Context, req BulkRequest) ([]string, error) {
	if req.Count > MaxBulk {
		return nil, apperror.Validation(fmt.Sprintf("Cannot generate more than %d comments at once", MaxBulk), nil)
	}
	if err := g.validate.Struct(req); err != nil {
		return nil, apperror.FromValidator(err)
	}
	tones := req.Tones
	if len(tones) == 0 {
		tones = DefaultTones()
	}
	out := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		text, err := g.GenerateComment(ctx, req.Title, req.Description, tones[i%len(tones)])
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// GenerateAndSave writes count comments for a stored video, cycling through
// tones, and persists them. Nothing is saved unless every comment was written.
func (g *Generator) GenerateAndSave(ctx context.Context, videoID int64, author string, count int, tones []string) ([]models.Comment, error) {
	v, err := g.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	texts, err := g.GenerateBulk(ctx, BulkRequest{Title: v.Title, Description: v.Description, Count: count, Tones: tones})
	if err != nil {
		return nil, err
	}
	if author == "" {
		author = DefaultAuthor
	}
	saved := make([]models.Comment, 0, len(texts))
	for _, text := range texts {
		c := &models.Comment{VideoID: videoID, Author: author, Content: text}
		if err := g.comments.Create(ctx, c); err != nil {
			return nil, err
		}
		saved = append(saved, *c)
	}
	return saved, nil
}
