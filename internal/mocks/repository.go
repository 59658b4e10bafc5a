// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/model"
	"stock-backtest/pkg/utils"

	"github.com/stretchr/testify/mock"
)

type PriceHistoryRepository struct {
	mock.Mock
}

func (m *PriceHistoryRepository) GetPrices(ctx context.Context, param dto.GetStockDataParam) ([]engine.PricePoint, error) {
	args := m.Called(ctx, param)
	prices, _ := args.Get(0).([]engine.PricePoint)
	return prices, args.Error(1)
}

func (m *PriceHistoryRepository) Source() string {
	return "mock"
}

type BacktestRunRepository struct {
	mock.Mock
}

func (m *BacktestRunRepository) Create(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error {
	return m.Called(ctx, run).Error(0)
}

func (m *BacktestRunRepository) List(ctx context.Context, param model.GetBacktestRunParam, opts ...utils.DBOption) ([]model.BacktestRun, error) {
	args := m.Called(ctx, param)
	runs, _ := args.Get(0).([]model.BacktestRun)
	return runs, args.Error(1)
}

func (m *BacktestRunRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

type JobRepository struct {
	mock.Mock
}

func (m *JobRepository) FindJobsToSchedule(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.TaskSchedule, error) {
	args := m.Called(ctx, now)
	schedules, _ := args.Get(0).([]model.TaskSchedule)
	return schedules, args.Error(1)
}

func (m *JobRepository) CreateTaskExecutionHistory(ctx context.Context, history *model.TaskExecutionHistory, opts ...utils.DBOption) error {
	return m.Called(ctx, history).Error(0)
}

func (m *JobRepository) UpdateTaskSchedule(ctx context.Context, schedule *model.TaskSchedule, opts ...utils.DBOption) error {
	return m.Called(ctx, schedule).Error(0)
}

func (m *JobRepository) FindByID(ctx context.Context, id uint) (*model.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*model.Job)
	return job, args.Error(1)
}

func (m *JobRepository) UpdateTaskExecutionHistory(ctx context.Context, history *model.TaskExecutionHistory, opts ...utils.DBOption) error {
	return m.Called(ctx, history).Error(0)
}

func (m *JobRepository) Get(ctx context.Context, param *model.GetJobParam, opts ...utils.DBOption) ([]model.Job, error) {
	args := m.Called(ctx, param)
	jobs, _ := args.Get(0).([]model.Job)
	return jobs, args.Error(1)
}

func (m *JobRepository) DeleteTaskHistoryOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

// UnitOfWork runs fn directly without a transaction.
type UnitOfWork struct {
	mock.Mock
}

func (m *UnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	m.Called()
	return fn()
}
