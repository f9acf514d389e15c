package repository

import (
	"context"

	"gorm.io/gorm"

	"trackr/internal/model"
)

// TaskRepository defines task persistence operations.
// Ownership is enforced by the caller; the repository only filters by owner on listings.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ListByOwner(ctx context.Context, userID uint) ([]model.Task, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	// UpdateIfStatus writes the mutable fields of task only while the stored
	// status still equals expected. It reports false when no row matched.
	UpdateIfStatus(ctx context.Context, task *model.Task, expected model.TaskStatus) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	CountByStatus(ctx context.Context, userID uint) (map[model.TaskStatus]int64, error)
	CompletionStats(ctx context.Context, userID uint) (count int64, totalSeconds int64, err error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// ListByOwner lists the user's tasks, newest first.
func (r *taskRepository) ListByOwner(ctx context.Context, userID uint) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindByID finds a task by ID.
func (r *taskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateIfStatus performs a conditional update predicated on the current status.
func (r *taskRepository) UpdateIfStatus(ctx context.Context, task *model.Task, expected model.TaskStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ?", task.ID, expected).
		Updates(map[string]interface{}{
			"title":                  task.Title,
			"description":            task.Description,
			"status":                 task.Status,
			"total_duration_seconds": task.TotalDurationSeconds,
			"completed_at":           task.CompletedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a task. It reports whether a row was deleted.
func (r *taskRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByStatus counts the user's tasks per status.
func (r *taskRepository) CountByStatus(ctx context.Context, userID uint) (map[model.TaskStatus]int64, error) {
	var rows []struct {
		Status model.TaskStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CompletionStats returns how many of the user's tasks have a recorded
// duration and the sum of those durations in seconds.
func (r *taskRepository) CompletionStats(ctx context.Context, userID uint) (int64, int64, error) {
	var row struct {
		Count int64
		Total int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_duration_seconds), 0) AS total").
		Where("user_id = ? AND status = ? AND total_duration_seconds IS NOT NULL", userID, model.TaskStatusDone).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Count, row.Total, nil
}
