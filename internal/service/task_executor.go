package service

import (
	"context"
	"fmt"
	"time"

	"stock-backtest/internal/model"
	"stock-backtest/internal/repository"
	"stock-backtest/internal/strategy"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"
)

type TaskExecutor interface {
	Execute(ctx context.Context, taskHistory *model.TaskExecutionHistory) error
}

type taskExecutor struct {
	log                *logger.Logger
	jobRepo            repository.JobRepository
	executorStrategies map[strategy.JobType]strategy.JobExecutionStrategy
	metrics            *metrics.Metrics
	now                func() time.Time
}

func NewTaskExecutor(log *logger.Logger, jobRepo repository.JobRepository, m *metrics.Metrics, strategies ...strategy.JobExecutionStrategy) TaskExecutor {
	executorStrategies := make(map[strategy.JobType]strategy.JobExecutionStrategy, len(strategies))
	for _, st := range strategies {
		executorStrategies[st.GetType()] = st
	}
	return &taskExecutor{
		log:                log,
		jobRepo:            jobRepo,
		executorStrategies: executorStrategies,
		metrics:            m,
		now:                time.Now,
	}
}

// Execute runs the job behind taskHistory and records its outcome. A failing
// job is recorded, not returned; only bookkeeping failures are errors.
func (t *taskExecutor) Execute(ctx context.Context, taskHistory *model.TaskExecutionHistory) error {
	t.log.InfoContext(ctx, "Processing job", logger.IntField("job_id", int(taskHistory.JobID)), logger.IntField("history_id", int(taskHistory.ID)))

	job, err := t.jobRepo.FindByID(ctx, taskHistory.JobID)
	if err != nil {
		return fmt.Errorf("failed to find job %d: %w", taskHistory.JobID, err)
	}

	st, ok := t.executorStrategies[strategy.JobType(job.Type)]
	if !ok {
		t.log.ErrorContext(ctx, "Job type not registered", logger.IntField("job_id", int(job.ID)), logger.StringField("job_type", job.Type))
		taskHistory.Finish(t.now(), model.StatusFailed, strategy.JOB_EXIT_CODE_FAILED, "", fmt.Errorf("job type %q not registered", job.Type))
	} else {
		result, err := st.Execute(ctx, job)
		status := model.StatusCompleted
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			status = model.StatusTimeout
		case err != nil:
			status = model.StatusFailed
			t.log.ErrorContext(ctx, "Job failed", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		}
		taskHistory.Finish(t.now(), status, result.ExitCode, result.Output, err)
	}
	t.metrics.ObserveJob(job.Type, string(taskHistory.Status))

	// The job may have used up its deadline; the bookkeeping write must still land.
	if err := t.jobRepo.UpdateTaskExecutionHistory(context.WithoutCancel(ctx), taskHistory); err != nil {
		return fmt.Errorf("failed to update task execution history: %w", err)
	}
	return nil
}
