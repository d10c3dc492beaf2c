package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yourday/internal/model"
)

func TestParseLocalTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	base := time.Date(2025, 11, 30, 22, 30, 0, 0, time.UTC) // already Dec 1 in loc

	full, err := parseLocalTime("2025-11-29 09:15", base, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 29, 9, 15, 0, 0, loc), full)

	clock, err := parseLocalTime(" 10:00 ", base, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 10, 0, 0, 0, loc), clock)

	_, err = parseLocalTime("tomorrow", base, loc)
	assert.ErrorIs(t, err, errBadTime)
}

func TestParseDay(t *testing.T) {
	now := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

	today, err := parseDay("", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), today)

	day, err := parseDay("2025-03-10", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), day)

	_, err = parseDay("10.03.2025", now, time.UTC)
	assert.Error(t, err)
}

func TestCategoryFromLabel(t *testing.T) {
	c, ok := categoryFromLabel("Outing")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryPersonal, c)

	c, ok = categoryFromLabel("cooking")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryCooking, c)

	_, ok = categoryFromLabel("Gym")
	assert.False(t, ok)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Lunch", shortTitle(" Lunch ", 10))
	assert.Equal(t, "Прогулк…", shortTitle("Прогулка в парке", 8))
}

func TestDescribeError(t *testing.T) {
	conflict := model.NewConflictError(model.Task{
		ID:        "t1",
		Title:     "Gym & sauna",
		StartTime: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "⛔ Overlaps with «Gym &amp; sauna» 01-10 09:00–10:00.", describeError(conflict, time.UTC))
	assert.Equal(t, "Task not found.", describeError(model.ErrNotFound, time.UTC))
	assert.Contains(t, describeError(&model.FieldError{Field: "title", Reason: "is required"}, time.UTC), "title is required")
	assert.Equal(t, "Something went wrong, try again later.", describeError(assert.AnError, time.UTC))
}

func TestCategoryKeyboardHasEveryCategory(t *testing.T) {
	kb := categoryKeyboard()
	var labels []string
	for _, row := range kb.Keyboard {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}
	for _, c := range model.Categories() {
		assert.Contains(t, labels, c.Label())
	}
	assert.Contains(t, labels, btnSkip)
	assert.Contains(t, labels, btnCancelDialog)
}

func TestCallContext(t *testing.T) {
	t.Run("bounded", func(t *testing.T) {
		b := &Bot{timeout: time.Minute}
		ctx, cancel := b.callContext(context.Background())
		defer cancel()
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("unbounded", func(t *testing.T) {
		b := &Bot{}
		ctx, cancel := b.callContext(context.Background())
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("follows parent", func(t *testing.T) {
		parent, stop := context.WithCancel(context.Background())
		ctx, cancel := (&Bot{timeout: time.Minute}).callContext(parent)
		defer cancel()
		stop()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}
