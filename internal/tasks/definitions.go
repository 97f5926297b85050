// Package tasks defines the background jobs, runs them with retry and task
// logging, and schedules the recurring ones.
package tasks

import "time"

// Job names. They are also the task names recorded in task logs.
const (
	GenerateVideoContent     = "generate_video_content"
	GenerateCommentsForVideo = "generate_comments_for_video"
	SimulateUserEngagement   = "simulate_user_engagement"
	GenerateEngagementStats  = "generate_engagement_stats"
	CleanupOldData           = "cleanup_old_data"
	PopulateInitialContent   = "populate_initial_content"
)

// Policy is the retry behaviour of a job. A zero MaxRetries makes the job
// best-effort: a failure is logged and never retried.
type Policy struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Retries reports whether failures are retried.
func (p Policy) Retries() bool { return p.MaxRetries > 0 }

// PolicyFor returns the retry policy of a job.
func PolicyFor(name string) Policy {
	switch name {
	case GenerateVideoContent:
		return Policy{MaxRetries: 3, RetryDelay: 60 * time.Second}
	case GenerateCommentsForVideo:
		return Policy{MaxRetries: 3, RetryDelay: 30 * time.Second}
	case SimulateUserEngagement:
		return Policy{MaxRetries: 2, RetryDelay: 120 * time.Second}
	}
	return Policy{}
}

// CommentsPayload is the payload of generate_comments_for_video.
type CommentsPayload struct {
	VideoID      int64 `json:"video_id"`
	CommentCount int   `json:"comment_count"`
}

// CleanupPayload is the payload of cleanup_old_data.
type CleanupPayload struct {
	DaysOld int `json:"days_old"`
}

// Activity feed events published by jobs.
const (
	EventVideoGenerated      = "video_generated"
	EventCommentsGenerated   = "comments_generated"
	EventEngagementSimulated = "engagement_simulated"
	EventContentCleaned      = "content_cleaned"
)

const (
	defaultCommentCount  = 5
	defaultCleanupDays   = 30
	minChainedComments   = 3
	maxChainedComments   = 8
	engagementCommentPct = 0.2
	minPopulateVideos    = 5
	maxPopulateVideos    = 10
	minPopulateComments  = 2
	maxPopulateComments  = 5
)
