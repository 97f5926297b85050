package models

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of a background job execution.
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
	TaskRetry   TaskStatus = "RETRY"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskSuccess, TaskFailure, TaskRetry:
		return true
	}
	return false
}

// TaskLog records one execution of a background job, keyed by its task id.
type TaskLog struct {
	ID              int64           `json:"id"`
	TaskName        string          `json:"task_name"`
	TaskID          string          `json:"task_id"`
	Status          TaskStatus      `json:"status"`
	Result          json.RawMessage `json:"result"`
	ErrorMessage    string          `json:"error_message"`
	Args            json.RawMessage `json:"args"`
	Kwargs          json.RawMessage `json:"kwargs"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
	DurationSeconds *float64        `json:"duration_seconds"`
}

// TaskLogFilter narrows task log listings. Empty fields match everything.
type TaskLogFilter struct {
	Status   TaskStatus
	TaskName string
}
