package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"yourday/internal/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message         string           `json:"message"`
	Field           string           `json:"field,omitempty"`
	ConflictingTask *ConflictingTask `json:"conflictingTask,omitempty"`
}

// ConflictingTask describes the task that blocked a create or update.
type ConflictingTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type messageResponse struct {
	Message string      `json:"message"`
	Task    *model.Task `json:"task,omitempty"`
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	var (
		conflict *model.ConflictError
		fieldErr *model.FieldError
	)
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Task overlaps with existing task",
			ConflictingTask: &ConflictingTask{
				ID:        conflict.BlockingTaskID,
				Title:     conflict.BlockingTitle,
				StartTime: conflict.BlockingStart,
				EndTime:   conflict.BlockingEnd,
			},
		})
	case errors.As(err, &fieldErr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: capitalize(fieldErr.Error()),
			Field:   fieldErr.Field,
		})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "Task not found"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, ErrorResponse{Message: "Request timed out"})
	case errors.Is(err, context.Canceled):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "Request cancelled"})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Server error"})
	}
}

// respondBindError answers a body echo could not bind. Unsupported content
// types keep echo's 415; anything else is a malformed body.
func respondBindError(c echo.Context, err error) error {
	if errors.Is(err, echo.ErrUnsupportedMediaType) {
		return c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Message: "Content-Type must be application/json"})
	}
	return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
