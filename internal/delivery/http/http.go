package http

import (
	"errors"
	"net/http"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/repository"
	"stock-backtest/internal/service"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"

	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo        *echo.Echo
	log         *logger.Logger
	service     *service.Service
	metrics     *metrics.Metrics
	metricsPath string
}

// NewHttpAPIHandler builds the handler. metricsPath is left unregistered when empty.
func NewHttpAPIHandler(echo *echo.Echo, log *logger.Logger, service *service.Service, m *metrics.Metrics, metricsPath string) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:        echo,
		log:         log,
		service:     service,
		metrics:     m,
		metricsPath: metricsPath,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.GET("/health", h.health)
	if h.metricsPath != "" {
		h.echo.GET(h.metricsPath, echo.WrapHandler(h.metrics.Handler()))
	}

	base := h.echo.Group("/api")
	h.SetupJobs(base)
	h.SetupBacktest(base)
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}

// errorResponse maps service errors to a status code. Unknown errors are
// logged and reported without detail.
func (h *HttpAPIHandler) errorResponse(c echo.Context, err error) error {
	var code int
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, engine.ErrInvalidParameter):
		code = http.StatusBadRequest
	case errors.Is(err, repository.ErrSymbolNotFound):
		code = http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientData):
		code = http.StatusUnprocessableEntity
	default:
		h.log.ErrorContext(c.Request().Context(), "Request failed",
			logger.ErrorField(err),
			logger.StringField("path", c.Path()))
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "internal server error", nil))
	}
	return c.JSON(code, dto.NewBaseResponse(code, err.Error(), nil))
}
