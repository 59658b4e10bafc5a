package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"stock-backtest/internal/model"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleJobs(ctx context.Context, c telebot.Context) error {
	jobs, err := t.service.SchedulerService.GetJobSchedule(ctx, model.GetJobParam{
		IsActive: utils.ToPointer(true),
	})
	if err != nil {
		t.log.ErrorContext(ctx, "failed to get jobs", logger.ErrorField(err))
		_, err = t.send(ctx, c, commonErrorInternal)
		return err
	}

	if len(jobs) == 0 {
		_, err = t.send(ctx, c, "No active jobs.")
		return err
	}

	msg := strings.Builder{}
	msg.WriteString("📋 Active jobs:\n\n")
	msg.WriteString("<i>👉 Pick a job to see its schedule or run it now</i>\n")

	menu := &telebot.ReplyMarkup{}
	rows := []telebot.Row{}
	for _, job := range jobs {
		btn := menu.Data(job.Name, btnDetailJob.Unique, strconv.FormatUint(uint64(job.ID), 10))
		rows = append(rows, menu.Row(btn))
	}
	rows = append(rows, menu.Row(menu.Data(btnDeleteMessage.Text, btnDeleteMessage.Unique)))
	menu.Inline(rows...)

	if c.Callback() != nil && c.Message() != nil {
		_, err = t.telegram.Edit(ctx, c.Chat().ID, c.Message(), msg.String(), menu, telebot.ModeHTML)
		return err
	}
	_, err = t.send(ctx, c, msg.String(), menu, telebot.ModeHTML)
	return err
}

func parseJobID(data string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q: %w", data, err)
	}
	return uint(id), nil
}

func (t *TelegramBotHandler) handleBtnDetailJob(ctx context.Context, c telebot.Context) error {
	jobID, err := parseJobID(c.Data())
	if err != nil {
		t.log.ErrorContext(ctx, "failed to parse job id", logger.ErrorField(err))
		return c.Respond(&telebot.CallbackResponse{Text: commonErrorInternal})
	}

	jobs, err := t.service.SchedulerService.GetJobSchedule(ctx, model.GetJobParam{
		IDs: []uint{jobID},
		WithTaskHistory: &model.GetTaskExecutionHistoryParam{
			Limit: utils.ToPointer(5),
		},
	})
	if err != nil {
		t.log.ErrorContext(ctx, "failed to get job by id", logger.ErrorField(err))
		return c.Respond(&telebot.CallbackResponse{Text: commonErrorInternal})
	}
	if len(jobs) == 0 {
		return c.Respond(&telebot.CallbackResponse{Text: "Job not found."})
	}

	menu := &telebot.ReplyMarkup{}
	btnBack := menu.Data(btnActionBackToJobList.Text, btnActionBackToJobList.Unique)
	btnRun := menu.Data(btnActionRunJob.Text, btnActionRunJob.Unique, strconv.FormatUint(uint64(jobs[0].ID), 10))
	menu.Inline(menu.Row(btnRun, btnBack))

	_, err = t.telegram.Edit(ctx, c.Chat().ID, c.Message(), FormatJobDetail(jobs[0]), menu, telebot.ModeHTML)
	return err
}

// FormatJobDetail renders a job, its first schedule and recent runs as HTML.
func FormatJobDetail(job model.Job) string {
	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(job.Name)))
	if job.Description != "" {
		msg.WriteString(fmt.Sprintf("🔍 %s\n", html.EscapeString(job.Description)))
	}
	msg.WriteString("\n📅 Schedule:\n")

	if len(job.Schedules) == 0 {
		msg.WriteString(" • none\n")
	} else {
		schedule := job.Schedules[0]
		msg.WriteString(fmt.Sprintf(" • Cron : <code>%s</code>\n", html.EscapeString(schedule.CronExpression)))
		if schedule.LastExecution.Valid {
			msg.WriteString(fmt.Sprintf(" • Last run : %s\n", schedule.LastExecution.Time.Format("02 Jan 2006 15:04")))
		} else {
			msg.WriteString(" • Last run : never\n")
		}
		if schedule.NextExecution.Valid {
			msg.WriteString(fmt.Sprintf(" • Next run : %s\n", schedule.NextExecution.Time.Format("02 Jan 2006 15:04")))
		} else {
			msg.WriteString(" • Next run : not scheduled\n")
		}
	}

	msg.WriteString("\n📜 Recent runs:\n")
	if len(job.Histories) == 0 {
		msg.WriteString(" • none\n")
	}
	for idx, history := range job.Histories {
		icon := "🟢"
		switch history.Status {
		case model.StatusRunning:
			icon = "🟡"
		case model.StatusFailed:
			icon = "🔴"
		case model.StatusTimeout:
			icon = "🟠"
		}

		started := history.StartedAt.Format("01/02 15:04")
		status := strings.ToUpper(string(history.Status))
		if !history.CompletedAt.Valid {
			msg.WriteString(fmt.Sprintf("%d. %s %s - %s\n", idx+1, icon, started, status))
			continue
		}
		duration := history.CompletedAt.Time.Sub(history.StartedAt)
		msg.WriteString(fmt.Sprintf("%d. %s %s - %d | %s (%.1fs)\n", idx+1, icon, started, history.ExitCode.Int32, status, duration.Seconds()))
	}
	return msg.String()
}

func (t *TelegramBotHandler) handleBtnActionRunJob(ctx context.Context, c telebot.Context) error {
	jobID, err := parseJobID(c.Data())
	if err != nil {
		t.log.ErrorContext(ctx, "failed to parse job id", logger.ErrorField(err))
		return c.Respond(&telebot.CallbackResponse{Text: commonErrorInternal})
	}

	if err := t.service.SchedulerService.RunJobTask(ctx, jobID); err != nil {
		t.log.ErrorContext(ctx, "failed to run job task", logger.ErrorField(err), logger.IntField("job_id", int(jobID)))
		return c.Respond(&telebot.CallbackResponse{Text: userErrorMessage(err)})
	}
	if err := c.Respond(&telebot.CallbackResponse{Text: "▶️ Job started"}); err != nil {
		t.log.WarnContext(ctx, "Failed to answer callback", logger.ErrorField(err))
	}
	return t.handleJobs(ctx, c)
}

func (t *TelegramBotHandler) handleBtnActionBackToJobList(ctx context.Context, c telebot.Context) error {
	return t.handleJobs(ctx, c)
}
