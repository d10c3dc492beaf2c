package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"yourday/internal/model"
	"yourday/internal/repository"
)

// TaskService combines validation, overlap detection and persistence.
//
// Writes of the same owner are serialized by an in-process lock and the
// overlap check runs in the same transaction as the write, so two concurrent
// requests cannot both claim the same slot through this service.
type TaskService struct {
	taskRepo *repository.TaskRepository
	locks    *ownerLocks
	log      zerolog.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, log zerolog.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		locks:    newOwnerLocks(),
		log:      log.With().Str("component", "tasks").Logger(),
	}
}

// CreateTask validates the draft, rejects it if it overlaps another task of the
// owner and stores it otherwise.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, draft model.TaskDraft) (*model.Task, error) {
	task, err := draft.Validate()
	if err != nil {
		return nil, err
	}
	task.OwnerID = ownerID

	release, err := s.locks.acquire(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.taskRepo.Transaction(ctx, func(tx *repository.TaskRepository) error {
		if err := DetectConflict(ctx, tx, ownerID, task.StartTime, task.EndTime, ""); err != nil {
			return err
		}
		return tx.Create(ctx, &task)
	})
	if err != nil {
		s.logRejected("create", ownerID, "", err)
		return nil, err
	}

	s.log.Info().Str("task_id", task.ID).Str("owner_id", ownerID).Str("category", string(task.Category)).Msg("task created")
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, ownerID, taskID)
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string, filter repository.TaskFilter) ([]model.Task, error) {
	return s.taskRepo.List(ctx, ownerID, filter)
}

// UpdateTask applies a partial update. When the patch moves the task in time the
// merged interval is checked against the owner's other tasks.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	release, err := s.locks.acquire(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *model.Task
	err = s.taskRepo.Transaction(ctx, func(tx *repository.TaskRepository) error {
		var err error
		updated, err = tx.Update(ctx, ownerID, taskID, patch, func(merged *model.Task) error {
			if !patch.TouchesTime() {
				return nil
			}
			return DetectConflict(ctx, tx, ownerID, merged.StartTime, merged.EndTime, merged.ID)
		})
		return err
	})
	if err != nil {
		s.logRejected("update", ownerID, taskID, err)
		return nil, err
	}

	s.log.Info().Str("task_id", updated.ID).Str("owner_id", ownerID).Bool("rescheduled", patch.TouchesTime()).Msg("task updated")
	return updated, nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		s.logRejected("delete", ownerID, taskID, err)
		return err
	}
	s.log.Info().Str("task_id", taskID).Str("owner_id", ownerID).Msg("task deleted")
	return nil
}

func (s *TaskService) logRejected(op, ownerID, taskID string, err error) {
	var ev *zerolog.Event
	if errors.Is(err, model.ErrPersistence) {
		ev = s.log.Error()
	} else {
		ev = s.log.Debug()
	}
	ev.Err(err).Str("op", op).Str("owner_id", ownerID).Str("task_id", taskID).Msg("task write rejected")
}
