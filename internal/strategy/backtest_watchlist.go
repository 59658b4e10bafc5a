package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/model"
	"stock-backtest/pkg/logger"
)

// BatchBacktester is satisfied by the backtest service.
type BatchBacktester interface {
	RunBatch(ctx context.Context, req dto.BatchBacktestRequest) (*dto.BatchBacktestResponse, error)
}

type BacktestWatchlistPayload struct {
	Symbols  []string           `json:"symbols"`
	Exchange string             `json:"exchange"`
	Range    string             `json:"range"`
	Preset   string             `json:"preset"`
	Params   dto.BacktestParams `json:"params"`
}

// BacktestWatchlistStrategy re-runs a fixed watchlist on a schedule so the run
// history tracks how each symbol's crossover performance evolves.
type BacktestWatchlistStrategy struct {
	log        *logger.Logger
	backtester BatchBacktester
}

func NewBacktestWatchlistStrategy(log *logger.Logger, backtester BatchBacktester) JobExecutionStrategy {
	return &BacktestWatchlistStrategy{
		log:        log,
		backtester: backtester,
	}
}

func (s *BacktestWatchlistStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	var payload BacktestWatchlistPayload
	if err := job.DecodePayload(&payload); err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, err
	}
	if len(payload.Symbols) == 0 {
		s.log.InfoContext(ctx, "Watchlist is empty", logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "watchlist is empty"}, nil
	}

	resp, err := s.backtester.RunBatch(ctx, dto.BatchBacktestRequest{
		Symbols:  payload.Symbols,
		Exchange: payload.Exchange,
		Range:    payload.Range,
		Preset:   payload.Preset,
		Params:   payload.Params,
	})
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("batch backtest failed: %v", err)}, fmt.Errorf("batch backtest failed: %w", err)
	}

	output, err := json.Marshal(resp.Results)
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal results: %v", err)}, fmt.Errorf("failed to marshal results: %w", err)
	}

	s.log.InfoContext(ctx, "Watchlist backtest completed",
		logger.IntField("job_id", int(job.ID)),
		logger.IntField("succeeded", resp.Succeeded),
		logger.IntField("failed", resp.Failed))

	switch {
	case resp.Failed == 0:
		return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(output)}, nil
	case resp.Succeeded == 0:
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: string(output)}, fmt.Errorf("all %d symbols failed", resp.Failed)
	default:
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(output)}, nil
	}
}

func (s *BacktestWatchlistStrategy) GetType() JobType {
	return JobTypeBacktestWatchlist
}
