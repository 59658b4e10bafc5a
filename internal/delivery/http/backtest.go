package http

import (
	"net/http"

	"stock-backtest/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	v1 := base.Group("/v1/backtest")
	{
		v1.POST("", h.RunBacktest)
		v1.POST("/batch", h.RunBatchBacktest)
		v1.GET("/runs", h.ListBacktestRuns)
	}
}

func (h *HttpAPIHandler) RunBacktest(c echo.Context) error {
	var req dto.BacktestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	result, err := h.service.BacktestService.RunBacktest(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Backtest completed", result))
}

func (h *HttpAPIHandler) RunBatchBacktest(c echo.Context) error {
	var req dto.BatchBacktestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	result, err := h.service.BacktestService.RunBatch(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Batch backtest completed", result))
}

func (h *HttpAPIHandler) ListBacktestRuns(c echo.Context) error {
	var param dto.ListBacktestRunsParam
	if err := c.Bind(&param); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}

	runs, err := h.service.BacktestService.ListRuns(c.Request().Context(), param)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Backtest runs", runs))
}
