package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yourday/internal/model"
	"yourday/internal/repository"
	"yourday/internal/service"
	"yourday/internal/testutil"
)

func newTaskService(t *testing.T) (*service.TaskService, *repository.TaskRepository) {
	t.Helper()
	repo := repository.NewTaskRepository(testutil.NewDB(t))
	return service.NewTaskService(repo, zerolog.Nop()), repo
}

func draft(title, start, end string) model.TaskDraft {
	return model.TaskDraft{Title: title, StartTime: start, EndTime: end}
}

func TestCreateTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService(t)

	d := draft("Standup", "2024-01-01T09:00:00Z", "2024-01-01T09:30:00Z")
	d.Category = "meeting"
	created, err := svc.CreateTask(ctx, "alice", d)
	require.NoError(t, err)
	assert.Equal(t, "alice", created.OwnerID)

	got, err := svc.GetTask(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standup", got.Title)
	assert.True(t, got.StartTime.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, got.EndTime.Equal(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, model.CategoryMeeting, got.Category)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
}

func TestCreateTaskValidationSkipsStore(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTaskService(t)

	_, err := svc.CreateTask(ctx, "alice", draft("", "2024-01-01T09:00:00Z", "2024-01-01T09:30:00Z"))
	assert.ErrorIs(t, err, model.ErrInvalidField)

	_, err = svc.CreateTask(ctx, "alice", draft("Backwards", "2024-01-01T10:00:00Z", "2024-01-01T09:00:00Z"))
	assert.ErrorIs(t, err, model.ErrInvalidField)

	tasks, err := repo.List(ctx, "alice", repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTaskOverlap(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService(t)

	existing, err := svc.CreateTask(ctx, "alice", draft("Meeting", "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"))
	require.NoError(t, err)

	t.Run("Partial overlap is rejected", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, "alice", draft("Clash", "2024-01-01T09:30:00Z", "2024-01-01T10:30:00Z"))
		var conflict *model.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, existing.ID, conflict.BlockingTaskID)
		assert.Equal(t, "Meeting", conflict.BlockingTitle)
	})

	t.Run("Containment is rejected", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, "alice", draft("Inside", "2024-01-01T09:10:00Z", "2024-01-01T09:20:00Z"))
		assert.ErrorIs(t, err, model.ErrConflict)
		_, err = svc.CreateTask(ctx, "alice", draft("Around", "2024-01-01T08:00:00Z", "2024-01-01T11:00:00Z"))
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("Touching edges are allowed", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, "alice", draft("After", "2024-01-01T10:00:00Z", "2024-01-01T11:00:00Z"))
		assert.NoError(t, err)
		_, err = svc.CreateTask(ctx, "alice", draft("Before", "2024-01-01T08:00:00Z", "2024-01-01T09:00:00Z"))
		assert.NoError(t, err)
	})

	t.Run("Other owners are not considered", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, "bob", draft("Same slot", "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"))
		assert.NoError(t, err)
	})
}

func TestCreateTaskConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTaskService(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateTask(ctx, "alice", draft("Race", "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, model.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)

	tasks, err := repo.List(ctx, "alice", repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService(t)

	standup, err := svc.CreateTask(ctx, "alice", draft("Standup", "2024-01-01T09:00:00Z", "2024-01-01T09:30:00Z"))
	require.NoError(t, err)
	lunch, err := svc.CreateTask(ctx, "alice", draft("Lunch", "2024-01-01T12:00:00Z", "2024-01-01T13:00:00Z"))
	require.NoError(t, err)

	t.Run("Notes only does not conflict with itself", func(t *testing.T) {
		updated, err := svc.UpdateTask(ctx, "alice", standup.ID, model.TaskPatch{Notes: model.Some("agenda")})
		require.NoError(t, err)
		assert.Equal(t, "agenda", updated.Notes)
		assert.True(t, updated.StartTime.Equal(standup.StartTime))
	})

	t.Run("Shifting within its own slot is allowed", func(t *testing.T) {
		updated, err := svc.UpdateTask(ctx, "alice", standup.ID, model.TaskPatch{EndTime: model.Some("2024-01-01T09:45:00Z")})
		require.NoError(t, err)
		assert.True(t, updated.EndTime.Equal(time.Date(2024, 1, 1, 9, 45, 0, 0, time.UTC)))
	})

	t.Run("Moving onto another task is rejected", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, "alice", standup.ID, model.TaskPatch{
			StartTime: model.Some("2024-01-01T12:30:00Z"),
			EndTime:   model.Some("2024-01-01T13:30:00Z"),
		})
		var conflict *model.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, lunch.ID, conflict.BlockingTaskID)

		stored, err := svc.GetTask(ctx, "alice", standup.ID)
		require.NoError(t, err)
		assert.True(t, stored.StartTime.Equal(standup.StartTime), "rejected update must not persist")
	})

	t.Run("Invalid merged interval", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, "alice", standup.ID, model.TaskPatch{StartTime: model.Some("2024-01-01T10:00:00Z")})
		assert.ErrorIs(t, err, model.ErrInvalidField)
	})

	t.Run("Other owner gets not found", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, "bob", standup.ID, model.TaskPatch{Title: model.Some("Mine")})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestDeleteTaskTwice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService(t)

	task, err := svc.CreateTask(ctx, "alice", draft("Gym", "2024-01-01T18:00:00Z", "2024-01-01T19:00:00Z"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, "alice", task.ID))
	assert.ErrorIs(t, svc.DeleteTask(ctx, "alice", task.ID), model.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTask(ctx, "alice", task.ID), model.ErrNotFound)

	_, err = svc.CreateTask(ctx, "alice", draft("Gym again", "2024-01-01T18:00:00Z", "2024-01-01T19:00:00Z"))
	assert.NoError(t, err, "a deleted task no longer blocks its slot")
}

func TestCreateTaskHonoursCancelledContext(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CreateTask(ctx, "alice", draft("Late", "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"))
	assert.Error(t, err)
}
