package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"trackr/internal/cache"
	apperrors "trackr/internal/errors"
	"trackr/internal/model"
	"trackr/internal/repository"
)

const taskCacheTTL = 5 * time.Minute

// CreateTaskInput carries the fields a client may set on a new task.
type CreateTaskInput struct {
	Title       string
	Description *string
	// Status defaults to to-do when empty.
	Status string
}

// UpdateTaskInput carries a partial update; nil fields are left unchanged.
// An empty description clears it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
}

// TaskService handles task operations on behalf of an authenticated owner.
type TaskService interface {
	Create(ctx context.Context, ownerID uint, in CreateTaskInput) (*model.Task, error)
	List(ctx context.Context, ownerID uint) ([]model.Task, error)
	Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID uint, in UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID uint) error
	Stats(ctx context.Context, ownerID uint) (*model.TaskStats, error)
}

type taskService struct {
	repo  repository.TaskRepository
	cache *cache.Client
	now   func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository, cache *cache.Client) TaskService {
	return &taskService{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *taskService) cacheKey(id uint) string {
	return fmt.Sprintf("task:%d", id)
}

// Create validates the input and stores a new task. A task created as done
// completes immediately with a zero elapsed duration.
func (s *taskService) Create(ctx context.Context, ownerID uint, in CreateTaskInput) (*model.Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	status := model.TaskStatusToDo
	if strings.TrimSpace(in.Status) != "" {
		if status, err = ParseTaskStatus(in.Status); err != nil {
			return nil, err
		}
	}

	now := s.now()
	task := &model.Task{
		UserID:      ownerID,
		Title:       title,
		Description: normalizeDescription(in.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == model.TaskStatusDone {
		complete(task, now)
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// List returns the owner's tasks, newest first.
func (s *taskService) List(ctx context.Context, ownerID uint) ([]model.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get retrieves a task by ID with caching.
func (s *taskService) Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	var cached model.Task
	if s.cache.GetJSON(ctx, s.cacheKey(taskID), &cached) {
		if cached.UserID != ownerID {
			return nil, apperrors.ErrTaskForbidden
		}
		return &cached, nil
	}

	task, err := s.load(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(taskID), task, taskCacheTTL)
	return task, nil
}

// Update applies a partial update. Moving a task into done freezes its
// elapsed duration; the write only lands if nobody changed the status since
// the task was read.
func (s *taskService) Update(ctx context.Context, ownerID, taskID uint, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.load(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	expected := task.Status

	if in.Title != nil {
		if task.Title, err = normalizeTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		task.Description = normalizeDescription(in.Description)
	}
	if in.Status != nil {
		next, err := ParseTaskStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if err := CheckTransition(task.Status, next); err != nil {
			return nil, err
		}
		if next != task.Status {
			if next == model.TaskStatusDone {
				complete(task, s.now())
			} else {
				task.Status = next
			}
		}
	}

	ok, err := s.repo.UpdateIfStatus(ctx, task, expected)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", taskID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(taskID))
	if !ok {
		// either the status moved under us or the row is gone
		if _, err := s.repo.FindByID(ctx, taskID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrTaskNotFound
			}
			return nil, fmt.Errorf("reload task %d: %w", taskID, err)
		}
		return nil, apperrors.ErrTaskConflict
	}

	updated, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("reload task %d: %w", taskID, err)
	}
	return updated, nil
}

// Delete removes an owned task.
func (s *taskService) Delete(ctx context.Context, ownerID, taskID uint) error {
	if _, err := s.load(ctx, ownerID, taskID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", taskID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(taskID))
	if !deleted {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// Stats summarizes the owner's tasks per status together with the average
// time a completed task took.
func (s *taskService) Stats(ctx context.Context, ownerID uint) (*model.TaskStats, error) {
	counts, err := s.repo.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	completed, totalSeconds, err := s.repo.CompletionStats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("completion stats: %w", err)
	}

	stats := &model.TaskStats{
		ToDo:       counts[model.TaskStatusToDo],
		InProgress: counts[model.TaskStatusInProgress],
		Done:       counts[model.TaskStatusDone],
	}
	for _, n := range counts {
		stats.Total += n
	}
	if completed > 0 {
		avg := DecomposeDuration(totalSeconds / completed)
		stats.AverageCompletion = &avg
	}
	return stats, nil
}

// load fetches a task from the store and enforces ownership.
func (s *taskService) load(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task %d: %w", taskID, err)
	}
	if task.UserID != ownerID {
		return nil, apperrors.ErrTaskForbidden
	}
	return task, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperrors.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > model.TitleMaxLength {
		return "", apperrors.ErrTitleTooLong
	}
	return title, nil
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
