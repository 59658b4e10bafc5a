package dto

import (
	"time"

	"stock-backtest/internal/model"
)

type JobResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Timeout     int                `json:"timeout"`
	Schedules   []TaskScheduleItem `json:"schedules"`
	Histories   []TaskHistoryItem  `json:"histories,omitempty"`
}

type TaskScheduleItem struct {
	ID             uint       `json:"id"`
	CronExpression string     `json:"cron_expression"`
	NextExecution  *time.Time `json:"next_execution"`
	LastExecution  *time.Time `json:"last_execution"`
	IsActive       bool       `json:"is_active"`
}

type TaskHistoryItem struct {
	ID          uint       `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      string     `json:"status"`
	ExitCode    *int32     `json:"exit_code"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func NewJobResponse(job model.Job) JobResponse {
	resp := JobResponse{
		ID:          job.ID,
		Name:        job.Name,
		Description: job.Description,
		Type:        job.Type,
		Timeout:     job.Timeout,
		Schedules:   make([]TaskScheduleItem, 0, len(job.Schedules)),
	}
	for _, s := range job.Schedules {
		s := s
		item := TaskScheduleItem{ID: s.ID, CronExpression: s.CronExpression, IsActive: s.IsActive}
		if s.NextExecution.Valid {
			item.NextExecution = &s.NextExecution.Time
		}
		if s.LastExecution.Valid {
			item.LastExecution = &s.LastExecution.Time
		}
		resp.Schedules = append(resp.Schedules, item)
	}
	for _, h := range job.Histories {
		h := h
		item := TaskHistoryItem{
			ID:        h.ID,
			StartedAt: h.StartedAt,
			Status:    string(h.Status),
			Output:    h.Output.String,
			Error:     h.ErrorMessage.String,
		}
		if h.CompletedAt.Valid {
			item.CompletedAt = &h.CompletedAt.Time
		}
		if h.ExitCode.Valid {
			item.ExitCode = &h.ExitCode.Int32
		}
		resp.Histories = append(resp.Histories, item)
	}
	return resp
}
