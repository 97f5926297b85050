// Package memstore is an in-memory implementation of the video, comment and
// task log stores for tests. It mirrors the Postgres repositories: unique
// URLs, cascading deletes, newest-first ordering and NotFound errors.
package memstore

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
)

// DB holds all tables behind one lock.
type DB struct {
	mu        sync.Mutex
	videos    map[int64]*models.Video
	comments  map[int64]*models.Comment
	taskLogs  map[string]*models.TaskLog
	nextVideo int64
	nextComm  int64
	nextLog   int64
	now       func() time.Time

	// IncrementErr, when set, is consulted before every video counter increment.
	IncrementErr func(id int64) error
	// TaskLogErr, when set, is returned by every task log write.
	TaskLogErr error
}

// New returns an empty database.
func New() *DB {
	return &DB{
		videos:   map[int64]*models.Video{},
		comments: map[int64]*models.Comment{},
		taskLogs: map[string]*models.TaskLog{},
		now:      time.Now,
	}
}

// Videos returns the video table.
func (db *DB) Videos() *Videos { return &Videos{db: db} }

// Comments returns the comment table.
func (db *DB) Comments() *Comments { return &Comments{db: db} }

// TaskLogs returns the task log table.
func (db *DB) TaskLogs() *TaskLogs { return &TaskLogs{db: db} }

func (db *DB) commentCount(videoID int64) int {
	n := 0
	for _, c := range db.comments {
		if c.VideoID == videoID {
			n++
		}
	}
	return n
}

func (db *DB) videoCopy(v *models.Video) models.Video {
	out := *v
	out.CommentsCount = db.commentCount(v.ID)
	return out
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return append([]T{}, list[offset:end]...)
}

// Videos implements videos.Store.
type Videos struct{ db *DB }

func (t *Videos) sorted() []models.Video {
	list := make([]models.Video, 0, len(t.db.videos))
	for _, v := range t.db.videos {
		list = append(list, t.db.videoCopy(v))
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func (t *Videos) urlTaken(url string, except int64) bool {
	for _, v := range t.db.videos {
		if v.URL == url && v.ID != except {
			return true
		}
	}
	return false
}

func (t *Videos) Create(_ context.Context, v *models.Video) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.urlTaken(v.URL, 0) {
		return apperror.Validation("video with this url already exists.", map[string]string{"url": "video with this url already exists."})
	}
	t.db.nextVideo++
	v.ID = t.db.nextVideo
	now := t.db.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = v.CreatedAt
	stored := *v
	t.db.videos[v.ID] = &stored
	return nil
}

func (t *Videos) GetByID(_ context.Context, id int64) (*models.Video, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	v, ok := t.db.videos[id]
	if !ok {
		return nil, apperror.NotFound("Video not found.")
	}
	out := t.db.videoCopy(v)
	return &out, nil
}

func (t *Videos) List(_ context.Context, limit, offset int) ([]models.Video, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return page(t.sorted(), limit, offset), nil
}

func (t *Videos) Count(_ context.Context) (int, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return len(t.db.videos), nil
}

func (t *Videos) Update(_ context.Context, v *models.Video) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	stored, ok := t.db.videos[v.ID]
	if !ok {
		return apperror.NotFound("Video not found.")
	}
	if t.urlTaken(v.URL, v.ID) {
		return apperror.Validation("video with this url already exists.", map[string]string{"url": "video with this url already exists."})
	}
	stored.Title, stored.Description, stored.URL = v.Title, v.Description, v.URL
	stored.ThumbnailURL, stored.Duration = v.ThumbnailURL, v.Duration
	stored.UpdatedAt = t.db.now()
	v.UpdatedAt = stored.UpdatedAt
	return nil
}

func (t *Videos) Delete(_ context.Context, id int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if _, ok := t.db.videos[id]; !ok {
		return apperror.NotFound("Video not found.")
	}
	delete(t.db.videos, id)
	for cid, c := range t.db.comments {
		if c.VideoID == id {
			delete(t.db.comments, cid)
		}
	}
	return nil
}

func (t *Videos) increment(id int64, field func(*models.Video) *int) (int, error) {
	if t.db.IncrementErr != nil {
		if err := t.db.IncrementErr(id); err != nil {
			return 0, err
		}
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	v, ok := t.db.videos[id]
	if !ok {
		return 0, apperror.NotFound("Video not found.")
	}
	p := field(v)
	*p++
	return *p, nil
}

func (t *Videos) IncrementViews(_ context.Context, id int64) (int, error) {
	return t.increment(id, func(v *models.Video) *int { return &v.ViewCount })
}

func (t *Videos) IncrementLikes(_ context.Context, id int64) (int, error) {
	return t.increment(id, func(v *models.Video) *int { return &v.LikeCount })
}

func (t *Videos) Sample(_ context.Context, n int) ([]models.Video, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	list := t.sorted()
	rand.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	if n < len(list) {
		list = list[:n]
	}
	return list, nil
}

func (t *Videos) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var n int64
	for id, v := range t.db.videos {
		if v.CreatedAt.Before(cutoff) {
			delete(t.db.videos, id)
			for cid, c := range t.db.comments {
				if c.VideoID == id {
					delete(t.db.comments, cid)
				}
			}
			n++
		}
	}
	return n, nil
}

func (t *Videos) Stats(_ context.Context) (models.VideoStats, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	s := models.VideoStats{TotalVideos: len(t.db.videos)}
	if s.TotalVideos == 0 {
		return s, nil
	}
	var sumViews, sumLikes, maxViews, maxLikes int
	for _, v := range t.db.videos {
		sumViews += v.ViewCount
		sumLikes += v.LikeCount
		if v.ViewCount > maxViews {
			maxViews = v.ViewCount
		}
		if v.LikeCount > maxLikes {
			maxLikes = v.LikeCount
		}
	}
	avgViews := float64(sumViews) / float64(s.TotalVideos)
	avgLikes := float64(sumLikes) / float64(s.TotalVideos)
	s.AvgViews, s.AvgLikes, s.MaxViews, s.MaxLikes = &avgViews, &avgLikes, &maxViews, &maxLikes
	return s, nil
}

func (t *Videos) MostCommented(_ context.Context, limit int) ([]models.CommentedVideo, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	list := make([]models.CommentedVideo, 0, len(t.db.videos))
	for _, v := range t.db.videos {
		list = append(list, models.CommentedVideo{
			ID: v.ID, Title: v.Title, ViewCount: v.ViewCount, LikeCount: v.LikeCount,
			CommentCount: t.db.commentCount(v.ID), CreatedAt: v.CreatedAt,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.CommentCount != b.CommentCount {
			return a.CommentCount > b.CommentCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return page(list, limit, 0), nil
}

// Comments implements comments.Store.
type Comments struct{ db *DB }

func (t *Comments) filtered(videoID *int64) []models.Comment {
	list := []models.Comment{}
	for _, c := range t.db.comments {
		if videoID == nil || c.VideoID == *videoID {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func (t *Comments) Create(_ context.Context, c *models.Comment) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if _, ok := t.db.videos[c.VideoID]; !ok {
		return apperror.NotFound("Video not found.")
	}
	if c.LikeCount < 0 {
		return apperror.Validation("counters must not be negative.", nil)
	}
	t.db.nextComm++
	c.ID = t.db.nextComm
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t.db.now()
	}
	c.UpdatedAt = c.CreatedAt
	stored := *c
	t.db.comments[c.ID] = &stored
	return nil
}

func (t *Comments) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	c, ok := t.db.comments[id]
	if !ok {
		return nil, apperror.NotFound("Comment not found.")
	}
	out := *c
	return &out, nil
}

func (t *Comments) List(_ context.Context, videoID *int64, limit, offset int) ([]models.Comment, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return page(t.filtered(videoID), limit, offset), nil
}

func (t *Comments) Count(_ context.Context, videoID *int64) (int, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return len(t.filtered(videoID)), nil
}

func (t *Comments) ListByVideo(_ context.Context, videoID int64) ([]models.Comment, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return t.filtered(&videoID), nil
}

func (t *Comments) Update(_ context.Context, c *models.Comment) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	stored, ok := t.db.comments[c.ID]
	if !ok {
		return apperror.NotFound("Comment not found.")
	}
	stored.Author, stored.Content = c.Author, c.Content
	stored.UpdatedAt = t.db.now()
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (t *Comments) Delete(_ context.Context, id int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if _, ok := t.db.comments[id]; !ok {
		return apperror.NotFound("Comment not found.")
	}
	delete(t.db.comments, id)
	return nil
}

func (t *Comments) IncrementLikes(_ context.Context, id int64) (int, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	c, ok := t.db.comments[id]
	if !ok {
		return 0, apperror.NotFound("Comment not found.")
	}
	c.LikeCount++
	return c.LikeCount, nil
}

func (t *Comments) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var n int64
	for id, c := range t.db.comments {
		if c.CreatedAt.Before(cutoff) {
			delete(t.db.comments, id)
			n++
		}
	}
	return n, nil
}

func (t *Comments) Stats(_ context.Context) (models.CommentStats, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	s := models.CommentStats{TotalComments: len(t.db.comments)}
	if s.TotalComments == 0 {
		return s, nil
	}
	sum := 0
	for _, c := range t.db.comments {
		sum += c.LikeCount
	}
	avg := float64(sum) / float64(s.TotalComments)
	s.AvgLikes = &avg
	return s, nil
}

// TaskLogs implements tasklog.Store.
type TaskLogs struct{ db *DB }

func (t *TaskLogs) Create(_ context.Context, l *models.TaskLog) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.TaskLogErr != nil {
		return t.db.TaskLogErr
	}
	if _, ok := t.db.taskLogs[l.TaskID]; ok {
		return apperror.Validation(fmt.Sprintf("task log %s already exists", l.TaskID), nil)
	}
	t.db.nextLog++
	l.ID = t.db.nextLog
	stored := *l
	t.db.taskLogs[l.TaskID] = &stored
	return nil
}

func (t *TaskLogs) GetByTaskID(_ context.Context, taskID string) (*models.TaskLog, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	l, ok := t.db.taskLogs[taskID]
	if !ok {
		return nil, apperror.NotFound("Task log not found.")
	}
	out := *l
	return &out, nil
}

func (t *TaskLogs) Update(_ context.Context, l *models.TaskLog) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.TaskLogErr != nil {
		return t.db.TaskLogErr
	}
	if _, ok := t.db.taskLogs[l.TaskID]; !ok {
		return apperror.NotFound("Task log not found.")
	}
	stored := *l
	t.db.taskLogs[l.TaskID] = &stored
	return nil
}

func (t *TaskLogs) filtered(f models.TaskLogFilter) []models.TaskLog {
	list := []models.TaskLog{}
	for _, l := range t.db.taskLogs {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.TaskName != "" && l.TaskName != f.TaskName {
			continue
		}
		list = append(list, *l)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].StartedAt.After(list[j].StartedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func (t *TaskLogs) List(_ context.Context, f models.TaskLogFilter, limit, offset int) ([]models.TaskLog, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return page(t.filtered(f), limit, offset), nil
}

func (t *TaskLogs) Count(_ context.Context, f models.TaskLogFilter) (int, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return len(t.filtered(f)), nil
}

// Len returns the number of stored task logs.
func (t *TaskLogs) Len() int {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return len(t.db.taskLogs)
}
