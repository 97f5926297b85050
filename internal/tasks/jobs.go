package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidpulse/backend/internal/content"
)

// ContentGenerator creates videos and comments.
type ContentGenerator interface {
	GenerateVideo(ctx context.Context) (*content.VideoResult, error)
	GenerateCommentsForVideo(ctx context.Context, videoID int64, count int) (*content.CommentsResult, error)
}

// EngagementRunner simulates activity and reports on it.
type EngagementRunner interface {
	Simulate(ctx context.Context, count int) (*content.EngagementResult, error)
	Statistics(ctx context.Context) (*content.Statistics, error)
	Cleanup(ctx context.Context, daysOld int) (*content.CleanupResult, error)
}

// Publisher broadcasts activity feed events.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// SnapshotStore keeps a copy of each statistics report and returns its URL.
type SnapshotStore interface {
	PutStatsSnapshot(ctx context.Context, at time.Time, stats interface{}) (string, error)
}

// Deps are the collaborators of the job bodies. Publisher and Snapshots are optional.
type Deps struct {
	Content        ContentGenerator
	Engagement     EngagementRunner
	Client         *Client
	Publisher      Publisher
	Snapshots      SnapshotStore
	Rand           content.Rand
	Logger         *zap.Logger
	CleanupDaysOld int
	Now            func() time.Time
}

// VideoJobResult is the result of generate_video_content.
type VideoJobResult struct {
	VideoID        int64  `json:"video_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	CommentsTaskID string `json:"comments_task_id,omitempty"`
}

// PopulateResult is the result of populate_initial_content.
type PopulateResult struct {
	VideosCreated int     `json:"videos_created"`
	VideoIDs      []int64 `json:"video_ids"`
	Message       string  `json:"message"`
}

type jobs struct {
	Deps
}

// Definitions returns every job the dispatcher can run.
func Definitions(d Deps) []Definition {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Rand == nil {
		d.Rand = content.DefaultRand()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.CleanupDaysOld <= 0 {
		d.CleanupDaysOld = defaultCleanupDays
	}
	j := &jobs{Deps: d}
	return []Definition{
		{Name: GenerateVideoContent, Run: j.generateVideo},
		{Name: GenerateCommentsForVideo, Run: j.generateComments, Describe: describeComments},
		{Name: SimulateUserEngagement, Run: j.simulateEngagement},
		{Name: GenerateEngagementStats, Run: j.engagementStats},
		{Name: CleanupOldData, Run: j.cleanup, Describe: j.describeCleanup},
		{Name: PopulateInitialContent, Run: j.populate},
	}
}

func (j *jobs) generateVideo(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	v, err := j.Content.GenerateVideo(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate video: %w", err)
	}
	res := &VideoJobResult{VideoID: v.VideoID, Title: v.Title, Message: "Video generated successfully"}

	count := content.Between(j.Rand, minChainedComments, maxChainedComments)
	id, err := j.Client.GenerateComments(ctx, v.VideoID, count)
	if err != nil {
		// The video exists; retrying would create another one.
		j.Logger.Warn("schedule comments failed", zap.Int64("video_id", v.VideoID), zap.Error(err))
	}
	res.CommentsTaskID = id
	j.Logger.Info("generated video", zap.Int64("video_id", v.VideoID), zap.String("title", v.Title), zap.Int("comments_scheduled", count))
	j.publish(ctx, EventVideoGenerated, res)
	return res, nil
}

func (j *jobs) generateComments(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	p, err := decodeComments(payload)
	if err != nil {
		return nil, &TerminalError{Message: err.Error()}
	}
	res, err := j.Content.GenerateCommentsForVideo(ctx, p.VideoID, p.CommentCount)
	if err != nil {
		return nil, fmt.Errorf("generate comments for video %d: %w", p.VideoID, err)
	}
	if res.Error != "" {
		return nil, &TerminalError{Message: fmt.Sprintf("Video with ID %d not found", p.VideoID), Result: res}
	}
	res.Message = fmt.Sprintf("Generated %d comments successfully", res.CommentsGenerated)
	j.Logger.Info("generated comments", zap.Int64("video_id", p.VideoID), zap.Int("count", res.CommentsGenerated))
	j.publish(ctx, EventCommentsGenerated, res)
	return res, nil
}

func (j *jobs) simulateEngagement(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	res, err := j.Engagement.Simulate(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("simulate engagement: %w", err)
	}
	if res.VideosEngaged == 0 {
		j.Logger.Info("no videos to engage with")
		return res, nil
	}
	for i := range res.EngagementDetails {
		if j.Rand.Float64() >= engagementCommentPct {
			continue
		}
		detail := &res.EngagementDetails[i]
		if _, err := j.Client.GenerateComments(ctx, detail.VideoID, 1); err != nil {
			j.Logger.Warn("schedule comment failed", zap.Int64("video_id", detail.VideoID), zap.Error(err))
			continue
		}
		detail.Activities = append(detail.Activities, "scheduled +1 comment")
	}
	res.Message = fmt.Sprintf("Simulated engagement for %d videos", res.VideosEngaged)
	j.Logger.Info("simulated engagement", zap.Int("videos", res.VideosEngaged))
	j.publish(ctx, EventEngagementSimulated, res)
	return res, nil
}

func (j *jobs) engagementStats(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	stats, err := j.Engagement.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	at := j.Now().UTC()
	stats.Timestamp = at.Format(time.RFC3339Nano)

	var avgViews float64
	if stats.VideoStats.AvgViews != nil {
		avgViews = *stats.VideoStats.AvgViews
	}
	j.Logger.Info("engagement stats",
		zap.Int("videos", stats.VideoStats.TotalVideos),
		zap.Int("comments", stats.CommentStats.TotalComments),
		zap.Float64("avg_views", avgViews))

	if j.Snapshots != nil {
		url, err := j.Snapshots.PutStatsSnapshot(ctx, at, stats)
		if err != nil {
			j.Logger.Warn("stats snapshot upload failed", zap.Error(err))
		} else {
			stats.SnapshotURL = url
		}
	}
	return stats, nil
}

func (j *jobs) cleanup(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	days := j.cleanupDays(payload)
	res, err := j.Engagement.Cleanup(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	res.Message = "Cleanup completed successfully"
	j.Logger.Info("cleanup completed", zap.Int64("videos_deleted", res.VideosDeleted), zap.Int64("comments_deleted", res.CommentsDeleted))
	j.publish(ctx, EventContentCleaned, res)
	return res, nil
}

func (j *jobs) populate(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	n := content.Between(j.Rand, minPopulateVideos, maxPopulateVideos)
	res := &PopulateResult{VideoIDs: make([]int64, 0, n)}
	for i := 0; i < n; i++ {
		v, err := j.Content.GenerateVideo(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate video %d of %d: %w", i+1, n, err)
		}
		res.VideoIDs = append(res.VideoIDs, v.VideoID)
		count := content.Between(j.Rand, minPopulateComments, maxPopulateComments)
		if _, err := j.Content.GenerateCommentsForVideo(ctx, v.VideoID, count); err != nil {
			return nil, fmt.Errorf("generate comments for video %d: %w", v.VideoID, err)
		}
	}
	res.VideosCreated = len(res.VideoIDs)
	res.Message = fmt.Sprintf("Successfully populated %d videos with comments", res.VideosCreated)
	j.Logger.Info("initial population complete", zap.Int("videos", res.VideosCreated))
	return res, nil
}

func (j *jobs) publish(ctx context.Context, event string, payload interface{}) {
	if j.Publisher == nil {
		return
	}
	if err := j.Publisher.Publish(ctx, event, payload); err != nil {
		j.Logger.Debug("publish activity failed", zap.String("event", event), zap.Error(err))
	}
}

func (j *jobs) cleanupDays(payload json.RawMessage) int {
	var p CleanupPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			j.Logger.Warn("decode cleanup payload", zap.Error(err), zap.Int("days_old", j.CleanupDaysOld))
		}
	}
	if p.DaysOld <= 0 {
		return j.CleanupDaysOld
	}
	return p.DaysOld
}

func (j *jobs) describeCleanup(payload json.RawMessage) ([]interface{}, map[string]interface{}) {
	return nil, map[string]interface{}{"days_old": j.cleanupDays(payload)}
}

func decodeComments(payload json.RawMessage) (CommentsPayload, error) {
	var p CommentsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	if p.VideoID <= 0 {
		return p, errors.New("payload has no video_id")
	}
	if p.CommentCount <= 0 {
		p.CommentCount = defaultCommentCount
	}
	return p, nil
}

func describeComments(payload json.RawMessage) ([]interface{}, map[string]interface{}) {
	p, err := decodeComments(payload)
	if err != nil {
		return nil, nil
	}
	return []interface{}{p.VideoID, p.CommentCount}, nil
}
