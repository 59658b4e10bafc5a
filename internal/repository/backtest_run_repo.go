package repository

import (
	"context"
	"fmt"
	"time"

	"stock-backtest/internal/model"
	"stock-backtest/pkg/utils"

	"gorm.io/gorm"
)

const defaultRunListLimit = 50

type BacktestRunRepository interface {
	Create(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error
	List(ctx context.Context, param model.GetBacktestRunParam, opts ...utils.DBOption) ([]model.BacktestRun, error)
	DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type backtestRunRepository struct {
	db *gorm.DB
}

func NewBacktestRunRepository(db *gorm.DB) BacktestRunRepository {
	return &backtestRunRepository{db: db}
}

func (r *backtestRunRepository) Create(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error {
	if err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create backtest run: %w", err)
	}
	return nil
}

// List returns the newest runs first.
func (r *backtestRunRepository) List(ctx context.Context, param model.GetBacktestRunParam, opts ...utils.DBOption) ([]model.BacktestRun, error) {
	var runs []model.BacktestRun
	if param.Symbol != "" {
		opts = append(opts, utils.WithWhere("symbol = ?", param.Symbol))
	}
	opts = append(opts, utils.WithOrder("created_at DESC"))

	limit := param.Limit
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list backtest runs: %w", err)
	}
	return runs, nil
}

func (r *backtestRunRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("created_at < ?", date).Delete(&model.BacktestRun{})
	return result.RowsAffected, result.Error
}
