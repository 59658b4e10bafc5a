package http

import (
	"net/http"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/model"
	"stock-backtest/pkg/utils"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.GET("", h.ListJobs)
		v1.POST("/run", h.RunJobs)
	}
}

// RunJobs triggers every due schedule, or a single job immediately when
// job_id is given.
func (h *HttpAPIHandler) RunJobs(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RunJobRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
		}
	}

	if req.JobID != nil {
		if err := h.service.SchedulerService.RunJobTask(ctx, *req.JobID); err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewSuccessResponse("Job started", req))
	}

	if err := h.service.SchedulerService.Execute(ctx); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Start running jobs", nil))
}

func (h *HttpAPIHandler) ListJobs(c echo.Context) error {
	jobs, err := h.service.SchedulerService.GetJobSchedule(c.Request().Context(), model.GetJobParam{
		IsActive: utils.ToPointer(true),
		WithTaskHistory: &model.GetTaskExecutionHistoryParam{
			Limit: utils.ToPointer(5),
		},
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	out := make([]dto.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, dto.NewJobResponse(job))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Jobs", out))
}
