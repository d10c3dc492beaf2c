package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"yourday/internal/model"
)

const maxTxAttempts = 3

// TaskFilter narrows List. Nil bounds and an empty category are not applied.
// Both bounds are inclusive and compare against the task start time.
type TaskFilter struct {
	From     *time.Time
	To       *time.Time
	Category model.Category
}

// TaskRepository handles owner-scoped CRUD for tasks.
type TaskRepository struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
	now    func() time.Time
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	r := &TaskRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	if db.Dialector.Name() == "postgres" {
		r.txOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return r
}

// Create assigns a fresh id and timestamps, then stores the task.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	now := r.now()
	task.Seq = 0
	task.ID = uuid.NewString()
	task.StartTime = task.StartTime.UTC()
	task.EndTime = task.EndTime.UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Category == "" {
		task.Category = model.DefaultCategory
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return &model.PersistenceError{Op: "create task", Err: err}
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, taskID).First(&task).Error
	switch {
	case err == nil:
		normalize(&task)
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrNotFound
	default:
		return nil, &model.PersistenceError{Op: "find task", Err: err}
	}
}

// List returns the owner's tasks ordered by start time, ties in insertion order.
func (r *TaskRepository) List(ctx context.Context, ownerID string, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if filter.From != nil {
		q = q.Where("start_time >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("start_time <= ?", filter.To.UTC())
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	tasks := make([]model.Task, 0)
	if err := q.Order("start_time ASC").Order("seq ASC").Find(&tasks).Error; err != nil {
		return nil, &model.PersistenceError{Op: "list tasks", Err: err}
	}
	normalizeAll(tasks)
	return tasks, nil
}

// FindOverlapping returns the earliest task of the owner intersecting [start, end),
// skipping excludeID. It returns nil when there is none.
func (r *TaskRepository) FindOverlapping(ctx context.Context, ownerID string, start, end time.Time, excludeID string) (*model.Task, error) {
	q := r.db.WithContext(ctx).
		Where("owner_id = ? AND start_time < ? AND end_time > ?", ownerID, end.UTC(), start.UTC())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var tasks []model.Task
	if err := q.Order("start_time ASC").Order("seq ASC").Limit(1).Find(&tasks).Error; err != nil {
		return nil, &model.PersistenceError{Op: "find overlapping task", Err: err}
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	normalize(&tasks[0])
	return &tasks[0], nil
}

// Update merges patch into the owned task, runs check on the merged record and saves it.
// check may be nil.
func (r *TaskRepository) Update(ctx context.Context, ownerID, taskID string, patch model.TaskPatch, check func(*model.Task) error) (*model.Task, error) {
	task, err := r.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(task); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(task); err != nil {
			return nil, err
		}
	}

	task.UpdatedAt = r.now()
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, &model.PersistenceError{Op: "update task", Err: err}
	}
	normalize(task)
	return task, nil
}

// Delete removes a task of the given owner permanently.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return &model.PersistenceError{Op: "delete task", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListOwners returns every owner id that has at least one task.
func (r *TaskRepository) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Distinct("owner_id").Order("owner_id").Pluck("owner_id", &owners).Error; err != nil {
		return nil, &model.PersistenceError{Op: "list owners", Err: err}
	}
	return owners, nil
}

// ListReminders returns the owner's tasks whose reminder lies in [from, to].
func (r *TaskRepository) ListReminders(ctx context.Context, ownerID string, from, to time.Time) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND reminder IS NOT NULL AND reminder >= ? AND reminder <= ?", ownerID, from.UTC(), to.UTC()).
		Order("reminder ASC").Order("seq ASC").
		Find(&tasks).Error; err != nil {
		return nil, &model.PersistenceError{Op: "list reminders", Err: err}
	}
	normalizeAll(tasks)
	return tasks, nil
}

// Transaction runs fn with a repository bound to a single transaction. On
// PostgreSQL the transaction is serializable and retried on serialization failures.
func (r *TaskRepository) Transaction(ctx context.Context, fn func(tx *TaskRepository) error) error {
	var opts []*sql.TxOptions
	attempts := 1
	if r.txOpts != nil {
		opts = append(opts, r.txOpts)
		attempts = maxTxAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&TaskRepository{db: tx, now: r.now})
		}, opts...)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return &model.PersistenceError{Op: "task transaction", Err: err}
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func isDomainError(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidField) ||
		errors.Is(err, model.ErrConflict) ||
		errors.Is(err, model.ErrPersistence)
}

func normalize(task *model.Task) {
	task.StartTime = task.StartTime.UTC()
	task.EndTime = task.EndTime.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if task.Reminder != nil {
		reminder := task.Reminder.UTC()
		task.Reminder = &reminder
	}
}

func normalizeAll(tasks []model.Task) {
	for i := range tasks {
		normalize(&tasks[i])
	}
}
