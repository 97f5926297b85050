package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/internal/testutil/memstore"
)

// fixedRand always rolls f and picks min(pick, n-1).
type fixedRand struct {
	f    float64
	pick int
}

func (r fixedRand) IntN(n int) int {
	if r.pick >= n {
		return n - 1
	}
	return r.pick
}

func (r fixedRand) Float64() float64 { return r.f }

// scriptedText returns replies in order; an error entry fails that call.
type scriptedText struct {
	replies []interface{}
	calls   int
}

func (s *scriptedText) GenerateComment(_ context.Context, title, _, tone string) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		return "Nice video about " + title + " (" + tone + ")", nil
	}
	switch r := s.replies[i].(type) {
	case error:
		return "", r
	case string:
		return r, nil
	}
	return "", nil
}

func newEngine(t *testing.T, text TextGenerator, opts ...Option) (*Engine, *memstore.DB) {
	t.Helper()
	db := memstore.New()
	return NewEngine(DefaultCatalog(), db.Videos(), db.Comments(), text, opts...), db
}

func TestGenerateVideoRanges(t *testing.T) {
	e, db := newEngine(t, &scriptedText{})
	ctx := context.Background()
	urls := map[string]bool{}

	for i := 0; i < 200; i++ {
		res, err := e.GenerateVideo(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Duration, 300)
		assert.LessOrEqual(t, res.Duration, 3600)
		assert.GreaterOrEqual(t, res.ViewCount, 100)
		assert.LessOrEqual(t, res.ViewCount, 10000)
		assert.GreaterOrEqual(t, res.LikeCount, 10)
		assert.LessOrEqual(t, res.LikeCount, res.ViewCount/10)
		assert.True(t, strings.HasPrefix(res.URL, "https://youtube.com/watch?v="))
		assert.NotContains(t, res.Title, "{topic}")
		assert.False(t, urls[res.URL], "urls are unique")
		urls[res.URL] = true
	}
	n, err := db.Videos().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
}

func TestGenerateVideoThumbnailMatchesURL(t *testing.T) {
	e, db := newEngine(t, &scriptedText{})
	res, err := e.GenerateVideo(context.Background())
	require.NoError(t, err)

	v, err := db.Videos().GetByID(context.Background(), res.VideoID)
	require.NoError(t, err)
	slug := strings.TrimPrefix(v.URL, "https://youtube.com/watch?v=")
	assert.Len(t, slug, 11)
	assert.Equal(t, "https://img.youtube.com/vi/"+slug+"/maxresdefault.jpg", v.ThumbnailURL)
}

func TestGenerateCommentsUnknownVideo(t *testing.T) {
	text := &scriptedText{}
	e, db := newEngine(t, text)

	res, err := e.GenerateCommentsForVideo(context.Background(), 404, 5)
	require.NoError(t, err)
	assert.Equal(t, "Video not found", res.Error)
	assert.Zero(t, res.CommentsGenerated)
	assert.Zero(t, text.calls)
	n, _ := db.Comments().Count(context.Background(), nil)
	assert.Zero(t, n)
}

func TestGenerateCommentsSkipsFailedSlots(t *testing.T) {
	text := &scriptedText{replies: []interface{}{
		"First!",
		apperror.ExternalService("quota exceeded"),
		errors.New("nil pointer somewhere"),
		strings.Repeat("long comment ", 10),
		apperror.Validation("bad", nil),
	}}
	e, db := newEngine(t, text)
	ctx := context.Background()
	v := &models.Video{Title: "Go", URL: "https://youtube.com/watch?v=go"}
	require.NoError(t, db.Videos().Create(ctx, v))

	res, err := e.GenerateCommentsForVideo(ctx, v.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, text.calls)
	assert.Equal(t, 2, res.CommentsGenerated)
	require.Len(t, res.Comments, 2)
	assert.Equal(t, "First!", res.Comments[0].Content)
	assert.Len(t, []rune(res.Comments[1].Content), 53, "preview is 50 runes plus ellipsis")
	assert.True(t, strings.HasSuffix(res.Comments[1].Content, "..."))

	stored, err := db.Comments().ListByVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	for _, c := range stored {
		assert.GreaterOrEqual(t, c.LikeCount, 0)
		assert.LessOrEqual(t, c.LikeCount, 50)
		assert.Contains(t, DefaultCatalog().Authors(), c.Author)
	}
}

func TestGenerateCommentsTemplateFallback(t *testing.T) {
	text := &scriptedText{replies: []interface{}{
		apperror.ExternalService("down"),
		errors.New("unexpected"),
	}}
	e, db := newEngine(t, text, WithTemplateFallback(true), WithRand(fixedRand{pick: 0}))
	ctx := context.Background()
	v := &models.Video{Title: "Docker", URL: "https://youtube.com/watch?v=dk"}
	require.NoError(t, db.Videos().Create(ctx, v))

	res, err := e.GenerateCommentsForVideo(ctx, v.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 2, res.CommentsGenerated, "only external failures fall back")
	assert.Equal(t, StyleFallback, res.Comments[0].AuthorStyle)
	assert.True(t, strings.HasPrefix(res.Comments[0].Content, "Great friendly video about Docker!"))
	assert.Equal(t, StyleAI, res.Comments[1].AuthorStyle)

	stored, err := db.Comments().GetByID(ctx, res.Comments[0].CommentID)
	require.NoError(t, err)
	assert.Equal(t, "Great friendly video about Docker! Thanks for sharing.", stored.Content)
}

func TestCatalogIsCopied(t *testing.T) {
	authors := []string{"a"}
	c, err := NewCatalog([]VideoTemplate{{Title: "{topic}", Topics: []string{"x"}}}, authors, []string{"calm"}, "")
	require.NoError(t, err)
	authors[0] = "mutated"
	assert.Equal(t, []string{"a"}, c.Authors())

	got := c.Tones()
	got[0] = "loud"
	assert.Equal(t, []string{"calm"}, c.Tones())

	_, err = NewCatalog(nil, authors, nil, "")
	assert.Error(t, err)
}
