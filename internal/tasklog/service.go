package tasklog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
)

// Service records the lifecycle of background job executions.
// Transitions on an unknown task id are silent no-ops, and store failures are
// logged rather than returned so job bodies never fail because of bookkeeping.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a task logging service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// LogStart creates a PENDING record for a new execution. Empty args and kwargs are stored as null.
func (s *Service) LogStart(ctx context.Context, taskName, taskID string, args []interface{}, kwargs map[string]interface{}) (*models.TaskLog, error) {
	l := &models.TaskLog{
		TaskName:  taskName,
		TaskID:    taskID,
		Status:    models.TaskPending,
		StartedAt: s.now().UTC(),
	}
	if len(args) > 0 {
		l.Args = s.marshal(taskID, "args", args)
	}
	if len(kwargs) > 0 {
		l.Kwargs = s.marshal(taskID, "kwargs", kwargs)
	}
	if err := s.store.Create(ctx, l); err != nil {
		s.logger.Warn("task log start failed", zap.String("task_id", taskID), zap.String("task_name", taskName), zap.Error(err))
		return nil, err
	}
	return l, nil
}

// LogSuccess marks the execution SUCCESS with its result.
func (s *Service) LogSuccess(ctx context.Context, taskID string, result interface{}) {
	s.transition(ctx, taskID, func(l *models.TaskLog) {
		l.Status = models.TaskSuccess
		l.Result = s.marshal(taskID, "result", result)
		s.complete(l)
	})
}

// LogFailure marks the execution FAILURE with an error message.
func (s *Service) LogFailure(ctx context.Context, taskID, message string) {
	s.transition(ctx, taskID, func(l *models.TaskLog) {
		l.Status = models.TaskFailure
		l.ErrorMessage = message
		s.complete(l)
	})
}

// LogRetry marks the execution RETRY. Completion time and duration are left untouched.
func (s *Service) LogRetry(ctx context.Context, taskID, message string) {
	s.transition(ctx, taskID, func(l *models.TaskLog) {
		l.Status = models.TaskRetry
		l.ErrorMessage = message
	})
}

// Get returns the log for a task id.
func (s *Service) Get(ctx context.Context, taskID string) (*models.TaskLog, error) {
	return s.store.GetByTaskID(ctx, taskID)
}

// List returns one page of logs and the total matching f.
func (s *Service) List(ctx context.Context, f models.TaskLogFilter, limit, offset int) ([]models.TaskLog, int, error) {
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.store.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *Service) transition(ctx context.Context, taskID string, apply func(*models.TaskLog)) {
	l, err := s.store.GetByTaskID(ctx, taskID)
	if errors.Is(err, apperror.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("task log lookup failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	apply(l)
	if err := s.store.Update(ctx, l); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("task log update failed", zap.String("task_id", taskID), zap.String("status", string(l.Status)), zap.Error(err))
	}
}

func (s *Service) complete(l *models.TaskLog) {
	done := s.now().UTC()
	duration := done.Sub(l.StartedAt).Seconds()
	l.CompletedAt = &done
	l.DurationSeconds = &duration
}

func (s *Service) marshal(taskID, field string, v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("task log value not serializable", zap.String("task_id", taskID), zap.String("field", field), zap.Error(err))
		return nil
	}
	return raw
}
