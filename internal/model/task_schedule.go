package model

import (
	"database/sql"
	"time"
)

type TaskSchedule struct {
	ID             uint   `gorm:"primaryKey"`
	JobID          uint   `gorm:"not null"`
	CronExpression string `gorm:"type:varchar(100)"`
	NextExecution  sql.NullTime
	LastExecution  sql.NullTime
	IsActive       bool      `gorm:"default:true"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`

	Job Job `gorm:"foreignKey:JobID;references:ID"`
}

func (TaskSchedule) TableName() string {
	return "task_schedules"
}

// MarkExecuted records a run at now and the next due time.
func (t *TaskSchedule) MarkExecuted(now, next time.Time) {
	t.LastExecution = sql.NullTime{Time: now, Valid: true}
	t.NextExecution = sql.NullTime{Time: next, Valid: true}
}
