package bot

import (
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yourday/internal/model"
)

const helpText = `👋 <b>YourDay</b> keeps your day free of double bookings.

/newtask – plan a task step by step
/today – agenda for today and upcoming reminders
/tasks [YYYY-MM-DD] – tasks for a day, with delete buttons
/delete &lt;id&gt; – delete a task
/categories – how many tasks each category holds
/cancel – stop the current dialog`

var errBadTime = errors.New("unrecognised time")

// parseLocalTime reads "2006-01-02 15:04" or a bare "15:04", which takes its
// date from base. Results are in loc.
func parseLocalTime(raw string, base time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, loc); err == nil {
		return t, nil
	}
	clock, err := time.ParseInLocation("15:04", raw, loc)
	if err != nil {
		return time.Time{}, errBadTime
	}
	base = base.In(loc)
	return time.Date(base.Year(), base.Month(), base.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// parseDay returns midnight of the requested day in loc, or of today when raw is empty.
func parseDay(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		now = now.In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, errBadTime
	}
	return day, nil
}

func categoryFromLabel(text string) (model.Category, bool) {
	text = strings.TrimSpace(text)
	for _, c := range model.Categories() {
		if strings.EqualFold(text, c.Label()) || strings.EqualFold(text, string(c)) {
			return c, true
		}
	}
	return "", false
}

func shortTitle(title string, limit int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range model.Categories() {
		row = append(row, tgbotapi.NewKeyboardButton(c.Label()))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	row = append(row, tgbotapi.NewKeyboardButton(btnSkip))
	rows = append(rows, row)
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
