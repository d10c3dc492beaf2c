package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"yourday/internal/export"
	"yourday/internal/model"
	"yourday/internal/repository"
	"yourday/internal/service"
)

// TaskHandler serves the task API for the owner resolved from the bearer token.
type TaskHandler struct {
	tasks          *service.TaskService
	categories     *service.CategoryService
	reminders      *service.ReminderService
	timeout        time.Duration
	reminderWindow time.Duration
	now            func() time.Time
	log            zerolog.Logger
}

func NewTaskHandler(tasks *service.TaskService, categories *service.CategoryService, reminders *service.ReminderService, timeout, reminderWindow time.Duration, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:          tasks,
		categories:     categories,
		reminders:      reminders,
		timeout:        timeout,
		reminderWindow: reminderWindow,
		now:            time.Now,
		log:            log,
	}
}

func (h *TaskHandler) ListHandler(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	tasks, err := h.tasks.ListTasks(ctx, OwnerID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string][]model.Task{"tasks": tasks})
}

func (h *TaskHandler) GetHandler(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	task, err := h.tasks.GetTask(ctx, OwnerID(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]*model.Task{"task": task})
}

func (h *TaskHandler) CreateHandler(c echo.Context) error {
	var draft model.TaskDraft
	if err := c.Bind(&draft); err != nil {
		return respondBindError(c, err)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	task, err := h.tasks.CreateTask(ctx, OwnerID(c), draft)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "Task created successfully", Task: task})
}

func (h *TaskHandler) UpdateHandler(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return respondBindError(c, err)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	task, err := h.tasks.UpdateTask(ctx, OwnerID(c), c.Param("id"), patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Task updated successfully", Task: task})
}

func (h *TaskHandler) DeleteHandler(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.tasks.DeleteTask(ctx, OwnerID(c), c.Param("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

// ExportHandler streams the filtered schedule as an xlsx workbook.
func (h *TaskHandler) ExportHandler(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	tasks, err := h.tasks.ListTasks(ctx, OwnerID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}

	workbook, err := export.NewScheduleWorkbook(tasks, time.UTC)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer workbook.Close()

	c.Response().Header().Set(echo.HeaderContentType, export.ContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="schedule.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	_, err = workbook.WriteTo(c.Response())
	return err
}

func (h *TaskHandler) CategoriesHandler(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	summary, err := h.categories.Summary(ctx, OwnerID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string][]service.CategorySummary{"categories": summary})
}

// RemindersHandler lists tasks whose reminder is due within ?within (a Go duration).
func (h *TaskHandler) RemindersHandler(c echo.Context) error {
	window := h.reminderWindow
	if raw := strings.TrimSpace(c.QueryParam("within")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return respondError(c, h.log, &model.FieldError{Field: "within", Reason: "must be a duration such as 90m or 24h"})
		}
		window = parsed
	}
	ctx, cancel := h.context(c)
	defer cancel()

	tasks, err := h.reminders.Upcoming(ctx, OwnerID(c), h.now(), window)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string][]model.Task{"tasks": tasks})
}

func (h *TaskHandler) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}

func (h *TaskHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

func parseFilter(c echo.Context) (repository.TaskFilter, error) {
	var filter repository.TaskFilter
	if raw := c.QueryParam("startDate"); raw != "" {
		from, err := model.ParseTimestamp("startDate", raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		to, err := model.ParseTimestamp("endDate", raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	if raw := strings.TrimSpace(c.QueryParam("category")); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			return filter, err
		}
		filter.Category = category
	}
	return filter, nil
}
