package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-backtest/internal/model"
	"stock-backtest/internal/repository"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/utils"
)

const defaultRetentionDays = 90

type DataCleanUpPayload struct {
	RetentionDays int `json:"retention_days"`
}

type DataCleanUpResult struct {
	Table string `json:"table"`
	Total int64  `json:"total"`
}

type DataCleanUpStrategy struct {
	log             *logger.Logger
	backtestRunRepo repository.BacktestRunRepository
	jobRepo         repository.JobRepository
	uow             repository.UnitOfWork
	now             func() time.Time
}

func NewDataCleanUpStrategy(log *logger.Logger, backtestRunRepo repository.BacktestRunRepository, jobRepo repository.JobRepository, uow repository.UnitOfWork) JobExecutionStrategy {
	return &DataCleanUpStrategy{
		log:             log,
		backtestRunRepo: backtestRunRepo,
		jobRepo:         jobRepo,
		uow:             uow,
		now:             utils.TimeNowUTC,
	}
}

// Execute deletes backtest runs and task history older than the retention
// window. Both deletes share one transaction.
func (s *DataCleanUpStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	var payload DataCleanUpPayload
	if err := job.DecodePayload(&payload); err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, err
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultRetentionDays
	}

	date := s.now().AddDate(0, 0, -payload.RetentionDays)
	s.log.InfoContext(ctx, "Starting data clean up", logger.StringField("older_than", date.Format(time.RFC3339)))

	var results []DataCleanUpResult
	err := s.uow.Run(func(opts ...utils.DBOption) error {
		runs, err := s.backtestRunRepo.DeleteOlderThan(ctx, date, opts...)
		if err != nil {
			return fmt.Errorf("delete backtest runs: %w", err)
		}
		history, err := s.jobRepo.DeleteTaskHistoryOlderThan(ctx, date, opts...)
		if err != nil {
			return fmt.Errorf("delete task history: %w", err)
		}
		results = []DataCleanUpResult{
			{Table: "backtest_runs", Total: runs},
			{Table: "task_execution_history", Total: history},
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Data clean up failed", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, err
	}

	res, err := json.Marshal(results)
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output: %v", err)}, fmt.Errorf("failed to marshal output: %w", err)
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
}

func (s *DataCleanUpStrategy) GetType() JobType {
	return JobTypeDataCleanUp
}
