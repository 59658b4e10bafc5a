package mocks

import (
	"context"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/model"

	"github.com/stretchr/testify/mock"
)

type BacktestService struct {
	mock.Mock
}

func (m *BacktestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.BacktestResponse)
	return resp, args.Error(1)
}

func (m *BacktestService) RunBatch(ctx context.Context, req dto.BatchBacktestRequest) (*dto.BatchBacktestResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.BatchBacktestResponse)
	return resp, args.Error(1)
}

func (m *BacktestService) ListRuns(ctx context.Context, param dto.ListBacktestRunsParam) ([]dto.BacktestRunResponse, error) {
	args := m.Called(ctx, param)
	runs, _ := args.Get(0).([]dto.BacktestRunResponse)
	return runs, args.Error(1)
}

type SchedulerService struct {
	mock.Mock
}

func (m *SchedulerService) Execute(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *SchedulerService) RunJobTask(ctx context.Context, jobID uint) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *SchedulerService) GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error) {
	args := m.Called(ctx, param)
	jobs, _ := args.Get(0).([]model.Job)
	return jobs, args.Error(1)
}
