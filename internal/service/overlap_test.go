package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yourday/internal/model"
	"yourday/internal/service"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 1, day, hour, minute, 0, 0, time.UTC)
}

type finderFunc func(ctx context.Context, ownerID string, start, end time.Time, excludeID string) (*model.Task, error)

func (f finderFunc) FindOverlapping(ctx context.Context, ownerID string, start, end time.Time, excludeID string) (*model.Task, error) {
	return f(ctx, ownerID, start, end, excludeID)
}

func TestDetectConflict(t *testing.T) {
	blocking := &model.Task{ID: "t1", Title: "Meeting", StartTime: at(10, 9, 0), EndTime: at(10, 10, 0)}

	t.Run("Passes arguments through", func(t *testing.T) {
		var gotOwner, gotExclude string
		finder := finderFunc(func(_ context.Context, ownerID string, _, _ time.Time, excludeID string) (*model.Task, error) {
			gotOwner, gotExclude = ownerID, excludeID
			return nil, nil
		})
		require.NoError(t, service.DetectConflict(context.Background(), finder, "alice", at(10, 9, 0), at(10, 10, 0), "self"))
		assert.Equal(t, "alice", gotOwner)
		assert.Equal(t, "self", gotExclude)
	})

	t.Run("Names the blocking task", func(t *testing.T) {
		finder := finderFunc(func(context.Context, string, time.Time, time.Time, string) (*model.Task, error) {
			return blocking, nil
		})
		err := service.DetectConflict(context.Background(), finder, "alice", at(10, 9, 30), at(10, 10, 30), "")
		var conflict *model.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "t1", conflict.BlockingTaskID)
		assert.Equal(t, "Meeting", conflict.BlockingTitle)
		assert.True(t, conflict.BlockingStart.Equal(at(10, 9, 0)))
		assert.True(t, conflict.BlockingEnd.Equal(at(10, 10, 0)))
	})

	t.Run("Store errors are returned as is", func(t *testing.T) {
		storeErr := &model.PersistenceError{Op: "find overlapping task", Err: errors.New("disk full")}
		finder := finderFunc(func(context.Context, string, time.Time, time.Time, string) (*model.Task, error) {
			return nil, storeErr
		})
		err := service.DetectConflict(context.Background(), finder, "alice", at(10, 9, 0), at(10, 10, 0), "")
		assert.ErrorIs(t, err, model.ErrPersistence)
		assert.NotErrorIs(t, err, model.ErrConflict)
	})
}

func TestOverlappingPairs(t *testing.T) {
	a := model.Task{ID: "a", StartTime: at(10, 9, 0), EndTime: at(10, 11, 0)}
	b := model.Task{ID: "b", StartTime: at(10, 10, 0), EndTime: at(10, 10, 30)}
	c := model.Task{ID: "c", StartTime: at(10, 10, 30), EndTime: at(10, 12, 0)}
	d := model.Task{ID: "d", StartTime: at(10, 12, 0), EndTime: at(10, 13, 0)}

	pairs := service.OverlappingPairs([]model.Task{d, c, b, a})
	var ids [][2]string
	for _, p := range pairs {
		ids = append(ids, [2]string{p.First.ID, p.Second.ID})
	}
	assert.Equal(t, [][2]string{{"a", "b"}, {"a", "c"}}, ids)

	assert.Empty(t, service.OverlappingPairs([]model.Task{a, d}))
	assert.Empty(t, service.OverlappingPairs(nil))
}
