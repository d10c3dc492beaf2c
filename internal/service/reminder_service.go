package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"yourday/internal/model"
	"yourday/internal/repository"
)

// ReminderService answers "what is coming up" queries. It never delivers anything.
type ReminderService struct {
	taskRepo *repository.TaskRepository
}

func NewReminderService(taskRepo *repository.TaskRepository) *ReminderService {
	return &ReminderService{taskRepo: taskRepo}
}

// Upcoming returns the owner's tasks whose reminder falls in [now, now+window],
// earliest reminder first.
func (s *ReminderService) Upcoming(ctx context.Context, ownerID string, now time.Time, window time.Duration) ([]model.Task, error) {
	if window < 0 {
		return nil, &model.FieldError{Field: "within", Reason: "must not be negative"}
	}
	return s.taskRepo.ListReminders(ctx, ownerID, now, now.Add(window))
}

// Agenda renders the owner's day in loc plus upcoming reminders as HTML-safe text.
func (s *ReminderService) Agenda(ctx context.Context, ownerID string, now time.Time, window time.Duration, loc *time.Location) (string, error) {
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	today, err := s.taskRepo.List(ctx, ownerID, repository.TaskFilter{From: &dayStart, To: &dayEnd})
	if err != nil {
		return "", err
	}
	reminders, err := s.Upcoming(ctx, ownerID, now, window)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Agenda for %s</b>\n\n", local.Format("2006-01-02")))

	builder.WriteString("🗓 <b>Today</b>\n")
	if len(today) == 0 {
		builder.WriteString("— nothing scheduled\n")
	} else {
		for _, task := range today {
			builder.WriteString(FormatTaskLine(task, loc))
		}
	}

	builder.WriteString("\n⏰ <b>Reminders</b>\n")
	if len(reminders) == 0 {
		builder.WriteString("— no reminders due\n")
	} else {
		for _, task := range reminders {
			builder.WriteString(fmt.Sprintf("• %s %s\n",
				task.Reminder.In(loc).Format("01-02 15:04"),
				html.EscapeString(task.Title)))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatTaskLine renders one task as "• 09:00–09:30 Title (Label)".
func FormatTaskLine(task model.Task, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• %s–%s %s",
		task.StartTime.In(loc).Format("15:04"),
		task.EndTime.In(loc).Format("15:04"),
		html.EscapeString(task.Title)))
	sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(task.Category.Label())))
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(task.Description)))
	}
	sb.WriteByte('\n')
	return sb.String()
}
