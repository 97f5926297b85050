package content

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/utils"
)

const (
	minEngaged        = 3
	maxEngaged        = 8
	viewChance        = 0.7
	likeChance        = 0.3
	maxViewBurst      = 50
	maxLikeBurst      = 5
	titlePreview      = 30
	mostCommentedSize = 5

	// NoVideosMessage is reported when there is nothing to engage with.
	NoVideosMessage = "No videos available for engagement"
)

// EngagementVideos is the video access the simulator needs.
type EngagementVideos interface {
	Sample(ctx context.Context, n int) ([]models.Video, error)
	IncrementViews(ctx context.Context, id int64) (int, error)
	IncrementLikes(ctx context.Context, id int64) (int, error)
	Stats(ctx context.Context) (models.VideoStats, error)
	MostCommented(ctx context.Context, limit int) ([]models.CommentedVideo, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EngagementComments is the comment access the simulator needs.
type EngagementComments interface {
	Stats(ctx context.Context) (models.CommentStats, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EngagementDetail lists what happened to one video.
type EngagementDetail struct {
	VideoID    int64    `json:"video_id"`
	VideoTitle string   `json:"video_title"`
	Activities []string `json:"activities"`
}

// EngagementResult describes one simulation run.
type EngagementResult struct {
	VideosEngaged     int                `json:"videos_engaged"`
	EngagementDetails []EngagementDetail `json:"engagement_details,omitempty"`
	Message           string             `json:"message,omitempty"`
}

// Statistics is a snapshot of platform-wide counters.
type Statistics struct {
	VideoStats          models.VideoStats       `json:"video_stats"`
	CommentStats        models.CommentStats     `json:"comment_stats"`
	MostCommentedVideos []models.CommentedVideo `json:"most_commented_videos"`
	Timestamp           string                  `json:"timestamp,omitempty"`
	SnapshotURL         string                  `json:"snapshot_url,omitempty"`
}

// CleanupResult reports what a cleanup run removed.
type CleanupResult struct {
	VideosDeleted   int64  `json:"videos_deleted"`
	CommentsDeleted int64  `json:"comments_deleted"`
	CutoffDate      string `json:"cutoff_date"`
	Message         string `json:"message,omitempty"`
}

// Simulator drives synthetic viewer activity and platform reporting.
type Simulator struct {
	videos   EngagementVideos
	comments EngagementComments
	settings
}

// NewSimulator creates an engagement simulator.
func NewSimulator(videos EngagementVideos, comments EngagementComments, opts ...Option) *Simulator {
	return &Simulator{videos: videos, comments: comments, settings: newSettings(opts)}
}

// Simulate adds random views and likes to a random sample of videos.
// A count of zero or less picks a sample size in [3, 8].
func (s *Simulator) Simulate(ctx context.Context, count int) (*EngagementResult, error) {
	if count <= 0 {
		count = between(s.rng, minEngaged, maxEngaged)
	}
	sample, err := s.videos.Sample(ctx, count)
	if err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return &EngagementResult{VideosEngaged: 0, Message: NoVideosMessage}, nil
	}

	res := &EngagementResult{EngagementDetails: []EngagementDetail{}}
	for _, v := range sample {
		activities, err := s.engage(ctx, v.ID)
		if err != nil {
			s.skip(err, zap.Int64("video_id", v.ID))
			continue
		}
		res.EngagementDetails = append(res.EngagementDetails, EngagementDetail{
			VideoID:    v.ID,
			VideoTitle: utils.Ellipsize(v.Title, titlePreview),
			Activities: activities,
		})
	}
	res.VideosEngaged = len(res.EngagementDetails)
	return res, nil
}

// engage applies the view and like rolls to one video. Each increment is a
// separate atomic update.
func (s *Simulator) engage(ctx context.Context, id int64) ([]string, error) {
	activities := []string{}
	if s.rng.Float64() < viewChance {
		n := between(s.rng, 1, maxViewBurst)
		for i := 0; i < n; i++ {
			if _, err := s.videos.IncrementViews(ctx, id); err != nil {
				return nil, err
			}
		}
		activities = append(activities, fmt.Sprintf("+%d views", n))
	}
	if s.rng.Float64() < likeChance {
		n := between(s.rng, 1, maxLikeBurst)
		for i := 0; i < n; i++ {
			if _, err := s.videos.IncrementLikes(ctx, id); err != nil {
				return nil, err
			}
		}
		activities = append(activities, fmt.Sprintf("+%d likes", n))
	}
	return activities, nil
}

// Statistics aggregates video and comment counters and the most commented videos.
func (s *Simulator) Statistics(ctx context.Context) (*Statistics, error) {
	vs, err := s.videos.Stats(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := s.comments.Stats(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.videos.MostCommented(ctx, mostCommentedSize)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []models.CommentedVideo{}
	}
	return &Statistics{VideoStats: vs, CommentStats: cs, MostCommentedVideos: top}, nil
}

// Cleanup deletes comments and then videos created more than daysOld days ago.
// The two deletes are independent; a failure after the first leaves it applied.
func (s *Simulator) Cleanup(ctx context.Context, daysOld int) (*CleanupResult, error) {
	cutoff := s.now().UTC().Add(-time.Duration(daysOld) * 24 * time.Hour)
	comments, err := s.comments.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}
	videos, err := s.videos.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete videos: %w", err)
	}
	s.logger.Info("old content removed",
		zap.Int64("videos_deleted", videos), zap.Int64("comments_deleted", comments), zap.Time("cutoff", cutoff))
	return &CleanupResult{VideosDeleted: videos, CommentsDeleted: comments, CutoffDate: cutoff.Format(time.RFC3339)}, nil
}
