package service

import (
	"context"
	"fmt"
	"time"

	"stock-backtest/config"
	"stock-backtest/internal/model"
	"stock-backtest/internal/repository"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/utils"

	"github.com/robfig/cron/v3"
)

type SchedulerService interface {
	Execute(ctx context.Context) error
	GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error)
	RunJobTask(ctx context.Context, jobID uint) error
}

type schedulerService struct {
	cfg          *config.Config
	log          *logger.Logger
	cronParser   cron.Parser
	jobRepo      repository.JobRepository
	taskExecutor TaskExecutor
	semaphore    chan struct{}
	now          func() time.Time
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.JobRepository,
	taskExecutor TaskExecutor,
) SchedulerService {
	maxConcurrency := cfg.Scheduler.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &schedulerService{
		cfg:          cfg,
		log:          log,
		jobRepo:      jobRepo,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		taskExecutor: taskExecutor,
		semaphore:    make(chan struct{}, maxConcurrency),
		now:          utils.TimeNowUTC,
	}
}

// Execute starts every due schedule in the background and advances each one
// to its next cron time. It returns once all due jobs have been dispatched.
func (s *schedulerService) Execute(ctx context.Context) error {
	schedules, err := s.jobRepo.FindJobsToSchedule(ctx, s.now(), utils.WithPreload("Job"))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find jobs to schedule", logger.ErrorField(err))
		return fmt.Errorf("failed to find jobs to schedule: %w", err)
	}

	if len(schedules) == 0 {
		s.log.InfoContext(ctx, "No jobs to schedule")
		return nil
	}
	s.log.InfoContext(ctx, "Start running jobs",
		logger.IntField("job_count", len(schedules)),
		logger.IntField("max_concurrency", cap(s.semaphore)),
	)

	for _, schedule := range schedules {
		if !utils.ShouldContinue(ctx, s.log) {
			return nil
		}

		if err := s.executeJob(ctx, schedule); err != nil {
			s.log.ErrorContextWithAlert(ctx, "Failed to execute job",
				logger.ErrorField(err),
				logger.IntField("job_id", int(schedule.JobID)),
				logger.IntField("schedule_id", int(schedule.ID)),
				logger.StringField("job_name", schedule.Job.Name),
				logger.StringField("job_type", schedule.Job.Type),
			)
		}
	}

	return nil
}

func (s *schedulerService) executeJob(ctx context.Context, task model.TaskSchedule) error {
	cronSchedule, err := s.cronParser.Parse(task.CronExpression)
	if err != nil {
		return fmt.Errorf("failed to parse cron expression %q: %w", task.CronExpression, err)
	}

	s.log.DebugContext(ctx, "Executing job",
		logger.IntField("job_id", int(task.JobID)),
		logger.IntField("schedule_id", int(task.ID)),
		logger.StringField("job_name", task.Job.Name),
		logger.StringField("job_type", task.Job.Type),
		logger.IntField("active_concurrency", len(s.semaphore)),
		logger.IntField("max_concurrency", cap(s.semaphore)),
	)

	now := s.now()
	history := &model.TaskExecutionHistory{
		JobID:      task.JobID,
		ScheduleID: task.ID,
		Status:     model.StatusRunning,
		StartedAt:  now,
	}
	if err := s.jobRepo.CreateTaskExecutionHistory(ctx, history); err != nil {
		return fmt.Errorf("failed to create task history: %w", err)
	}

	select {
	case s.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	timeout := task.Job.TimeoutDuration(s.cfg.Scheduler.TimeoutDuration)
	utils.GoSafe(s.log, func() {
		defer func() { <-s.semaphore }()

		// Jobs outlive the request that triggered them.
		jobCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.taskExecutor.Execute(jobCtx, history); err != nil {
			s.log.ErrorContextWithAlert(jobCtx, "Failed to execute task",
				logger.ErrorField(err),
				logger.IntField("schedule_id", int(task.ID)))
		}
	})

	task.MarkExecuted(now, cronSchedule.Next(now))
	if err := s.jobRepo.UpdateTaskSchedule(ctx, &task); err != nil {
		return fmt.Errorf("failed to update task schedule: %w", err)
	}
	return nil
}

func (s *schedulerService) GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error) {
	return s.jobRepo.Get(ctx, &param)
}

// RunJobTask runs the first schedule of a job immediately, regardless of its
// next execution time.
func (s *schedulerService) RunJobTask(ctx context.Context, jobID uint) error {
	s.log.InfoContext(ctx, "Running job task", logger.IntField("job_id", int(jobID)))
	jobs, err := s.jobRepo.Get(ctx, &model.GetJobParam{IDs: []uint{jobID}})
	if err != nil {
		return fmt.Errorf("failed to find job: %w", err)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: job %d not found", ErrInvalidRequest, jobID)
	}
	if len(jobs[0].Schedules) == 0 {
		return fmt.Errorf("%w: job %d has no schedule", ErrInvalidRequest, jobID)
	}

	return s.executeJob(ctx, jobs[0].Schedules[0])
}
