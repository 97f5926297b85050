package tasks

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vidpulse/backend/config"
)

// Submitter enqueues a named job. *Client implements it.
type Submitter interface {
	Enqueue(ctx context.Context, name string, payload interface{}) (string, error)
}

// Registration is one recurring job.
type Registration struct {
	Name    string
	Spec    string
	Enabled bool
	Payload interface{}
}

// Registrations builds the recurring jobs from configuration.
func Registrations(cfg config.TasksConfig, cleanupDaysOld int) []Registration {
	return []Registration{
		{Name: GenerateVideoContent, Spec: cfg.VideoGenerationSpec, Enabled: cfg.VideoGenerationEnabled},
		{Name: SimulateUserEngagement, Spec: cfg.EngagementSpec, Enabled: cfg.EngagementEnabled},
		{Name: GenerateEngagementStats, Spec: cfg.StatsSpec, Enabled: cfg.StatsEnabled},
		{Name: CleanupOldData, Spec: cfg.CleanupSpec, Enabled: cfg.CleanupEnabled, Payload: CleanupPayload{DaysOld: cleanupDaysOld}},
	}
}

// Scheduler enqueues recurring jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	submit Submitter
	logger *zap.Logger
}

// NewScheduler creates a scheduler with seconds precision.
func NewScheduler(submit Submitter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(cron.WithSeconds()), submit: submit, logger: logger}
}

// Register adds the enabled registrations. A bad spec fails the whole call.
func (s *Scheduler) Register(regs []Registration) error {
	for _, reg := range regs {
		if !reg.Enabled {
			s.logger.Info("recurring job disabled", zap.String("task", reg.Name))
			continue
		}
		reg := reg
		if _, err := s.cron.AddFunc(reg.Spec, func() { s.Tick(context.Background(), reg) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", reg.Name, reg.Spec, err)
		}
		s.logger.Info("recurring job registered", zap.String("task", reg.Name), zap.String("spec", reg.Spec))
	}
	return nil
}

// Tick enqueues one run of a registration.
func (s *Scheduler) Tick(ctx context.Context, reg Registration) {
	payload := reg.Payload
	if payload == nil {
		payload = struct{}{}
	}
	id, err := s.submit.Enqueue(ctx, reg.Name, payload)
	if err != nil {
		s.logger.Error("enqueue recurring job failed", zap.String("task", reg.Name), zap.Error(err))
		return
	}
	s.logger.Info("recurring job enqueued", zap.String("task", reg.Name), zap.String("task_id", id))
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start runs the cron loop in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the cron loop and waits for running ticks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
