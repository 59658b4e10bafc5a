package service

import (
	"stock-backtest/config"
	"stock-backtest/internal/repository"
	"stock-backtest/internal/strategy"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"

	goValidator "github.com/go-playground/validator/v10"
)

type Service struct {
	BacktestService  BacktestService
	SchedulerService SchedulerService
	TaskExecutor     TaskExecutor
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	validator *goValidator.Validate,
	repo *repository.Repository,
	prices repository.PriceHistoryRepository,
	m *metrics.Metrics,
) *Service {
	backtestService := NewBacktestService(cfg, log, validator, prices, repo.BacktestRunRepo, m)

	taskExecutor := NewTaskExecutor(log, repo.JobRepo, m,
		strategy.NewBacktestWatchlistStrategy(log, backtestService),
		strategy.NewDataCleanUpStrategy(log, repo.BacktestRunRepo, repo.JobRepo, repo.UnitOfWork),
	)
	schedulerService := NewSchedulerService(cfg, log, repo.JobRepo, taskExecutor)

	return &Service{
		BacktestService:  backtestService,
		SchedulerService: schedulerService,
		TaskExecutor:     taskExecutor,
	}
}
