package textgen

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/internal/testutil/memstore"
)

func TestHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := memstore.New()
	ctx := context.Background()
	v := &models.Video{Title: "Travel", URL: "https://youtube.com/watch?v=t"}
	require.NoError(t, db.Videos().Create(ctx, v))

	fc := &fakeCompleter{reply: "Wanderlust!"}
	r := gin.New()
	NewHandler(NewGenerator(fc, db.Videos(), db.Comments())).Register(r)

	post := func(target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(fmt.Sprintf("/videos/%d/generate-comments", v.ID), `{"count":3,"author":"Bot"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	n, err := db.Comments().Count(ctx, &v.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	stored, err := db.Comments().ListByVideo(ctx, v.ID)
	require.NoError(t, err)
	for _, cm := range stored {
		assert.Equal(t, "Bot", cm.Author)
		assert.Equal(t, "Wanderlust!", cm.Content)
	}

	w = post(fmt.Sprintf("/videos/%d/generate-comments", v.ID), "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"author":"`+DefaultAuthor+`"`)
	n, _ = db.Comments().Count(ctx, &v.ID)
	assert.Equal(t, 4, n)

	w = post(fmt.Sprintf("/videos/%d/generate-comments", v.ID), `{"count":11}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 4, fc.calls, "rejected before any generation")
	n, _ = db.Comments().Count(ctx, &v.ID)
	assert.Equal(t, 4, n)

	w = post("/videos/77/generate-comments", `{"count":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Video not found.")

	fc.err = fmt.Errorf("upstream down")
	w = post(fmt.Sprintf("/videos/%d/generate-comments", v.ID), `{"count":1}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
