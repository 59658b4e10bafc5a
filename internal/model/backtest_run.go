package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BacktestRun is one persisted backtest outcome. Params holds the resolved
// engine parameters as JSON so past runs can be replayed exactly.
type BacktestRun struct {
	ID               uint            `gorm:"primaryKey"`
	RunID            uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Symbol           string          `gorm:"type:varchar(32);not null;index"`
	Exchange         string          `gorm:"type:varchar(16)"`
	PriceRange       string          `gorm:"type:varchar(8)"`
	Source           string          `gorm:"type:varchar(16);not null"`
	Params           datatypes.JSON  `gorm:"type:jsonb;not null"`
	Bars             int             `gorm:"not null"`
	StartDate        time.Time
	EndDate          time.Time
	FinalValue       float64
	MarketFinalValue float64
	ROI              float64 `gorm:"column:roi"`
	MarketROI        float64 `gorm:"column:market_roi"`
	ExcessROI        float64 `gorm:"column:excess_roi"`
	MaxDrawdown      float64
	TradeCount       int
	InPosition       bool
	LastRSI          sql.NullFloat64 `gorm:"column:last_rsi"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}

type GetBacktestRunParam struct {
	Symbol string
	Limit  int
}
