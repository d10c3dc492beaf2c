package model

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is counted in runes.
const MaxTitleLength = 255

// Task is a time-bounded entry in a user's schedule.
// Seq only exists to keep insertion order for tasks sharing a start time.
type Task struct {
	Seq         uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          string     `gorm:"size:36;uniqueIndex;not null" json:"id"`
	OwnerID     string     `gorm:"size:64;not null;index:idx_tasks_owner_start,priority:1" json:"userId"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `gorm:"not null;index:idx_tasks_owner_start,priority:2" json:"startTime"`
	EndTime     time.Time  `gorm:"not null" json:"endTime"`
	Category    Category   `gorm:"size:16;not null;default:other;index" json:"category"`
	Notes       string     `json:"notes"`
	Reminder    *time.Time `gorm:"index" json:"reminder"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Overlaps reports whether the half-open intervals of t and [start, end) intersect.
func (t Task) Overlaps(start, end time.Time) bool {
	return t.StartTime.Before(end) && start.Before(t.EndTime)
}

// TaskDraft is a task as submitted by a caller, before any parsing or trimming.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Category    string `json:"category"`
	Notes       string `json:"notes"`
	Reminder    string `json:"reminder"`
}

// Validate trims and parses the draft. The returned task has no ID or owner yet.
func (d TaskDraft) Validate() (Task, error) {
	title, err := ValidateTitle(d.Title)
	if err != nil {
		return Task{}, err
	}
	start, err := ParseTimestamp("startTime", d.StartTime)
	if err != nil {
		return Task{}, err
	}
	end, err := ParseTimestamp("endTime", d.EndTime)
	if err != nil {
		return Task{}, err
	}
	if err := ValidateInterval(start, end); err != nil {
		return Task{}, err
	}
	category, err := ParseCategory(d.Category)
	if err != nil {
		return Task{}, err
	}
	reminder, err := parseOptionalTimestamp("reminder", d.Reminder)
	if err != nil {
		return Task{}, err
	}

	return Task{
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		StartTime:   start,
		EndTime:     end,
		Category:    category,
		Notes:       strings.TrimSpace(d.Notes),
		Reminder:    reminder,
	}, nil
}

// OptionalString tells an absent JSON field apart from one that was sent.
// An explicit null is treated as the empty string.
type OptionalString struct {
	Set   bool
	Value string
}

// Some returns a present OptionalString.
func Some(value string) OptionalString {
	return OptionalString{Set: true, Value: value}
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// TaskPatch carries the fields of a partial update. Absent fields are left untouched.
type TaskPatch struct {
	Title       OptionalString `json:"title"`
	Description OptionalString `json:"description"`
	StartTime   OptionalString `json:"startTime"`
	EndTime     OptionalString `json:"endTime"`
	Category    OptionalString `json:"category"`
	Notes       OptionalString `json:"notes"`
	Reminder    OptionalString `json:"reminder"`
}

// TouchesTime reports whether the patch changes the task interval.
func (p TaskPatch) TouchesTime() bool {
	return p.StartTime.Set || p.EndTime.Set
}

// Apply merges the present fields into t. The interval is re-validated only when
// the patch touches a time field.
func (p TaskPatch) Apply(t *Task) error {
	if p.Title.Set {
		title, err := ValidateTitle(p.Title.Value)
		if err != nil {
			return err
		}
		t.Title = title
	}
	if p.Description.Set {
		t.Description = strings.TrimSpace(p.Description.Value)
	}
	if p.Notes.Set {
		t.Notes = strings.TrimSpace(p.Notes.Value)
	}
	if p.Category.Set {
		category, err := ParseCategory(p.Category.Value)
		if err != nil {
			return err
		}
		t.Category = category
	}
	if p.StartTime.Set {
		start, err := ParseTimestamp("startTime", p.StartTime.Value)
		if err != nil {
			return err
		}
		t.StartTime = start
	}
	if p.EndTime.Set {
		end, err := ParseTimestamp("endTime", p.EndTime.Value)
		if err != nil {
			return err
		}
		t.EndTime = end
	}
	if p.Reminder.Set {
		reminder, err := parseOptionalTimestamp("reminder", p.Reminder.Value)
		if err != nil {
			return err
		}
		t.Reminder = reminder
	}

	if p.TouchesTime() {
		return ValidateInterval(t.StartTime, t.EndTime)
	}
	return nil
}

// ValidateTitle trims the title and checks its length.
func ValidateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", &FieldError{Field: "title", Reason: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", &FieldError{Field: "title", Reason: "must be at most 255 characters"}
	}
	return title, nil
}

// ValidateInterval enforces end > start.
func ValidateInterval(start, end time.Time) error {
	if !end.After(start) {
		return &FieldError{Field: "endTime", Reason: "must be after start time"}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 timestamps and bare dates. Values without an
// offset are read as UTC. The result is always in UTC.
func ParseTimestamp(field, raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &FieldError{Field: field, Reason: "is required"}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, &FieldError{Field: field, Reason: "must be an ISO-8601 timestamp"}
}

func parseOptionalTimestamp(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ts, err := ParseTimestamp(field, raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
