package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/queue"
)

// TaskLogger records task lifecycle transitions. *tasklog.Service implements it.
type TaskLogger interface {
	LogStart(ctx context.Context, taskName, taskID string, args []interface{}, kwargs map[string]interface{}) (*models.TaskLog, error)
	LogSuccess(ctx context.Context, taskID string, result interface{})
	LogFailure(ctx context.Context, taskID, message string)
	LogRetry(ctx context.Context, taskID, message string)
}

// Retrier schedules a failed job again. *queue.Queue implements it.
type Retrier interface {
	Retry(ctx context.Context, job *queue.Job, delay time.Duration) error
}

// RunFunc runs a job body and returns its result.
type RunFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Definition binds a job name to its body.
type Definition struct {
	Name string
	Run  RunFunc
	// Describe renders the payload as the args and kwargs of the task log.
	Describe func(payload json.RawMessage) ([]interface{}, map[string]interface{})
}

// TerminalError fails a job without retrying it. Result, when set, is
// returned as the job's result.
type TerminalError struct {
	Message string
	Result  interface{}
}

func (e *TerminalError) Error() string { return e.Message }

// Outcome is what one execution produced.
type Outcome struct {
	TaskID string
	Status models.TaskStatus
	Result interface{}
	Err    error
}

// Dispatcher executes jobs by name with task logging and retries.
type Dispatcher struct {
	defs            map[string]Definition
	logs            TaskLogger
	retrier         Retrier
	failOnExhausted bool
	logger          *zap.Logger
}

// NewDispatcher creates a dispatcher for the given definitions.
func NewDispatcher(defs []Definition, logs TaskLogger, retrier Retrier, failOnExhausted bool, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return &Dispatcher{defs: m, logs: logs, retrier: retrier, failOnExhausted: failOnExhausted, logger: logger}
}

// Known reports whether a job name has a definition.
func (d *Dispatcher) Known(name string) bool {
	_, ok := d.defs[name]
	return ok
}

// Execute runs one job. It never panics and never returns an error; the
// outcome says what was recorded.
func (d *Dispatcher) Execute(ctx context.Context, job *queue.Job) Outcome {
	out := Outcome{TaskID: job.ID}
	def, ok := d.defs[job.Name]
	if !ok {
		d.logger.Warn("dropping job with unknown name", zap.String("job_id", job.ID), zap.String("name", job.Name))
		out.Status = models.TaskFailure
		out.Err = fmt.Errorf("unknown job %q", job.Name)
		return out
	}

	log := d.logger.With(zap.String("task_id", job.ID), zap.String("task", job.Name), zap.Int("attempt", job.Attempt))
	if job.Attempt == 0 {
		var args []interface{}
		var kwargs map[string]interface{}
		if def.Describe != nil {
			args, kwargs = def.Describe(job.Payload)
		}
		if _, err := d.logs.LogStart(ctx, job.Name, job.ID, args, kwargs); err != nil {
			log.Warn("task log start failed", zap.Error(err))
		}
	}

	result, err := d.run(ctx, def, job.Payload)
	if err == nil {
		d.logs.LogSuccess(ctx, job.ID, result)
		log.Info("task succeeded")
		out.Status, out.Result = models.TaskSuccess, result
		return out
	}
	out.Err = err

	var terminal *TerminalError
	if errors.As(err, &terminal) {
		d.logs.LogFailure(ctx, job.ID, terminal.Message)
		log.Warn("task failed", zap.String("error", terminal.Message))
		out.Status, out.Result = models.TaskFailure, terminal.Result
		if out.Result == nil {
			out.Result = errorPayload(terminal.Message)
		}
		return out
	}

	policy := PolicyFor(job.Name)
	if !policy.Retries() {
		d.logs.LogFailure(ctx, job.ID, err.Error())
		log.Error("task failed", zap.Error(err))
		out.Status, out.Result = models.TaskFailure, errorPayload(err.Error())
		return out
	}

	d.logs.LogRetry(ctx, job.ID, err.Error())
	out.Status = models.TaskRetry
	rerr := d.retrier.Retry(ctx, job, policy.RetryDelay)
	switch {
	case rerr == nil:
		log.Warn("task failed, retry scheduled", zap.Duration("delay", policy.RetryDelay), zap.Error(err))
	case errors.Is(rerr, queue.ErrRetriesExhausted):
		log.Error("task failed, retries exhausted", zap.Error(err))
		if d.failOnExhausted {
			d.logs.LogFailure(ctx, job.ID, err.Error())
			out.Status = models.TaskFailure
		}
	default:
		log.Error("retry enqueue failed", zap.Error(rerr), zap.NamedError("task_error", err))
		d.logs.LogFailure(ctx, job.ID, err.Error())
		out.Status = models.TaskFailure
	}
	return out
}

func (d *Dispatcher) run(ctx context.Context, def Definition, payload json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return def.Run(ctx, payload)
}

func errorPayload(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}
