package cmd

import (
	"context"
	"errors"
	"fmt"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"stock-backtest/internal/delivery/http"
	"stock-backtest/internal/delivery/telegram"
	"stock-backtest/internal/repository"
	"stock-backtest/internal/service"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the HTTP API, the job scheduler and the Telegram bot",
	RunE:  Start,
}

func Start(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		return fmt.Errorf("failed to create app dependency: %w", err)
	}
	defer func() {
		if err := appDep.Close(); err != nil {
			appDep.log.Error("Failed to close app dependency", logger.ErrorField(err))
		}
	}()

	repo := repository.NewRepository(appDep.db.DB)
	prices, err := NewPriceHistory(appDep.cfg, appDep.log, appDep.cache, appDep.metrics, common.SOURCE_YAHOO, "")
	if err != nil {
		return err
	}

	services := service.NewService(appDep.cfg, appDep.log, appDep.validator, repo, prices, appDep.metrics)

	metricsPath := ""
	if appDep.cfg.Metrics.Enabled {
		metricsPath = appDep.cfg.Metrics.Path
	}
	httpHandler := http.NewHttpAPIHandler(appDep.echo, appDep.log, services, appDep.metrics, metricsPath)

	var telegramHandler *telegram.TelegramBotHandler
	if appDep.telegramBot != nil {
		telegramHandler = telegram.NewTelegramBotHandler(ctx, appDep.cfg, appDep.log, appDep.telegramBot, appDep.telegram, appDep.echo, services)
		if err := telegramHandler.Start(); err != nil {
			return fmt.Errorf("failed to start telegram bot: %w", err)
		}
		appDep.telegram.StartCleanupExpired(ctx)
	}

	scheduler, err := startScheduler(ctx, appDep, services.SchedulerService)
	if err != nil {
		return err
	}

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		appDep.log.Info("Shutting down gracefully...")
	case err = <-serverErr:
		appDep.log.Error("HTTP server failed", logger.ErrorField(err))
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if telegramHandler != nil {
		telegramHandler.Stop()
		appDep.telegram.StopCleanupExpired()
	}
	if stopErr := apiServer.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

// startScheduler looks for due jobs on the configured cron tick. It returns a
// nil cron when the tick is disabled.
func startScheduler(ctx context.Context, appDep *AppDependency, scheduler service.SchedulerService) (*cron.Cron, error) {
	spec := appDep.cfg.Scheduler.TickSpec
	if spec == "" {
		appDep.log.Info("Scheduler tick disabled, jobs run only on demand")
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if err := scheduler.Execute(ctx); err != nil {
			appDep.log.ErrorContext(ctx, "Scheduler tick failed", logger.ErrorField(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid scheduler tick spec %q: %w", spec, err)
	}
	c.Start()
	appDep.log.Info("Scheduler started", logger.StringField("tick_spec", spec))
	return c, nil
}
