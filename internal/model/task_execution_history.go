package model

import (
	"database/sql"
	"time"
)

type TaskExecutionStatus string

const (
	StatusRunning   TaskExecutionStatus = "running"
	StatusCompleted TaskExecutionStatus = "completed"
	StatusFailed    TaskExecutionStatus = "failed"
	StatusTimeout   TaskExecutionStatus = "timeout"
)

type TaskExecutionHistory struct {
	ID           uint      `gorm:"primaryKey"`
	JobID        uint      `gorm:"not null"`
	ScheduleID   uint      `gorm:"not null"`
	StartedAt    time.Time `gorm:"not null"`
	CompletedAt  sql.NullTime
	Status       TaskExecutionStatus `gorm:"type:varchar(50);not null"`
	ExitCode     sql.NullInt32
	Output       sql.NullString `gorm:"type:text"`
	ErrorMessage sql.NullString `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (TaskExecutionHistory) TableName() string {
	return "task_execution_history"
}

// Finish closes the history entry with the outcome of a job run.
func (h *TaskExecutionHistory) Finish(at time.Time, status TaskExecutionStatus, exitCode int32, output string, err error) {
	h.Status = status
	h.CompletedAt = sql.NullTime{Time: at, Valid: true}
	h.ExitCode = sql.NullInt32{Int32: exitCode, Valid: true}
	h.Output = sql.NullString{String: output, Valid: output != ""}
	if err != nil {
		h.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	}
}
