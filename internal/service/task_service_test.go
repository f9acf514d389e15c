package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "trackr/internal/errors"
	"trackr/internal/model"
)

var fixedNow = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func newTestTaskService(repo *MockTaskRepository) *taskService {
	svc := NewTaskService(repo, nil).(*taskService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func strPtr(s string) *string { return &s }

func TestTaskService_Create_DefaultsToToDo(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*model.Task")).Return(nil)

	task, err := svc.Create(ctx, 1, CreateTaskInput{Title: "  Write spec  ", Description: strPtr("draft")})

	require.NoError(t, err)
	assert.Equal(t, uint(1), task.UserID)
	assert.Equal(t, "Write spec", task.Title)
	assert.Equal(t, "draft", *task.Description)
	assert.Equal(t, model.TaskStatusToDo, task.Status)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Nil(t, task.TotalDurationSeconds)
	assert.Nil(t, task.CompletedAt)
	repo.AssertExpectations(t)
}

func TestTaskService_Create_AsDoneHasZeroElapsed(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*model.Task")).Return(nil)

	task, err := svc.Create(ctx, 1, CreateTaskInput{Title: "Done already", Status: "done"})

	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)
	require.NotNil(t, task.TotalDurationSeconds)
	assert.Equal(t, int64(0), *task.TotalDurationSeconds)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, task.CreatedAt, *task.CompletedAt)
}

func TestTaskService_Create_Validation(t *testing.T) {
	svc := newTestTaskService(new(MockTaskRepository))
	ctx := context.Background()

	tests := []struct {
		name    string
		in      CreateTaskInput
		wantErr error
	}{
		{"missing title", CreateTaskInput{}, apperrors.ErrTitleRequired},
		{"blank title", CreateTaskInput{Title: "   "}, apperrors.ErrTitleRequired},
		{"long title", CreateTaskInput{Title: strings.Repeat("x", 81)}, apperrors.ErrTitleTooLong},
		{"unknown status", CreateTaskInput{Title: "t", Status: "later"}, apperrors.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTaskService_Create_MultibyteTitleAtLimit(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*model.Task")).Return(nil)

	_, err := svc.Create(ctx, 1, CreateTaskInput{Title: strings.Repeat("é", model.TitleMaxLength)})
	assert.NoError(t, err)
}

func TestTaskService_Get_EnforcesOwnership(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{ID: 10, UserID: 1, Title: "alice's"}, nil)
	repo.On("FindByID", ctx, uint(11)).Return(nil, gorm.ErrRecordNotFound)

	task, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "alice's", task.Title)

	task, err = svc.Get(ctx, 2, 10)
	assert.ErrorIs(t, err, apperrors.ErrTaskForbidden)
	assert.Nil(t, task)

	_, err = svc.Get(ctx, 1, 11)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestTaskService_Get_CachedTaskStillOwnerOnly(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	c, mem := newMemCache()
	svc.cache = c
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{ID: 10, UserID: 1, Title: "alice's"}, nil).Once()

	task, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "alice's", task.Title)
	require.True(t, mem.has("task:10"))

	task, err = svc.Get(ctx, 2, 10)
	assert.ErrorIs(t, err, apperrors.ErrTaskForbidden)
	assert.Nil(t, task)

	task, err = svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(1), task.UserID)

	repo.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestTaskService_Update_InvalidatesCache(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	c, mem := newMemCache()
	svc.cache = c
	ctx := context.Background()

	stored := &model.Task{ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusToDo}
	require.NoError(t, c.SetJSON(ctx, "task:10", stored, time.Minute))

	repo.On("FindByID", ctx, uint(10)).Return(stored, nil)
	repo.On("UpdateIfStatus", ctx, mock.Anything, model.TaskStatusToDo).Return(true, nil)

	_, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.False(t, mem.has("task:10"))
}

func TestTaskService_Get_WrapsStoreErrors(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()
	dbErr := errors.New("db down")

	repo.On("FindByID", ctx, uint(10)).Return(nil, dbErr)

	_, err := svc.Get(ctx, 1, 10)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestTaskService_Update_MarkDoneComputesElapsed(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	created := fixedNow.Add(-(2*time.Hour + 5*time.Minute + 7*time.Second))
	stored := &model.Task{ID: 10, UserID: 1, Title: "Write spec", Status: model.TaskStatusInProgress, CreatedAt: created}
	reloaded := &model.Task{ID: 10, UserID: 1, Title: "Write spec", Status: model.TaskStatusDone, CreatedAt: created}

	repo.On("FindByID", ctx, uint(10)).Return(stored, nil).Once()
	repo.On("UpdateIfStatus", ctx, mock.MatchedBy(func(task *model.Task) bool {
		return task.Status == model.TaskStatusDone &&
			task.TotalDurationSeconds != nil && *task.TotalDurationSeconds == 7507 &&
			task.CompletedAt != nil && task.CompletedAt.Equal(fixedNow)
	}), model.TaskStatusInProgress).Return(true, nil)
	repo.On("FindByID", ctx, uint(10)).Return(reloaded, nil).Once()

	task, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Status: strPtr("done")})

	require.NoError(t, err)
	assert.Same(t, reloaded, task)
	repo.AssertExpectations(t)
}

func TestTaskService_Update_ClockSkewClampsToZero(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	stored := &model.Task{ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusToDo, CreatedAt: fixedNow.Add(time.Minute)}

	repo.On("FindByID", ctx, uint(10)).Return(stored, nil)
	repo.On("UpdateIfStatus", ctx, mock.MatchedBy(func(task *model.Task) bool {
		return task.TotalDurationSeconds != nil && *task.TotalDurationSeconds == 0
	}), model.TaskStatusToDo).Return(true, nil)

	_, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Status: strPtr("done")})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTaskService_Update_DoneIsFinal(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	elapsed := int64(42)
	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{
		ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusDone, TotalDurationSeconds: &elapsed,
	}, nil)

	_, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Status: strPtr("to-do")})
	assert.ErrorIs(t, err, apperrors.ErrTaskAlreadyDone)
	repo.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_Update_DoneAgainKeepsDuration(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	elapsed := int64(42)
	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{
		ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusDone, TotalDurationSeconds: &elapsed,
	}, nil)
	repo.On("UpdateIfStatus", ctx, mock.MatchedBy(func(task *model.Task) bool {
		return task.Title == "renamed" && *task.TotalDurationSeconds == 42
	}), model.TaskStatusDone).Return(true, nil)

	_, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Title: strPtr("renamed"), Status: strPtr("done")})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTaskService_Update_ConcurrentChangeConflicts(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusInProgress}, nil)
	repo.On("UpdateIfStatus", ctx, mock.Anything, model.TaskStatusInProgress).Return(false, nil)

	_, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Status: strPtr("done")})
	assert.ErrorIs(t, err, apperrors.ErrTaskConflict)
}

func TestTaskService_Update_DeletedMeanwhileIsNotFound(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusToDo}, nil).Once()
	repo.On("UpdateIfStatus", ctx, mock.Anything, model.TaskStatusToDo).Return(false, nil)
	repo.On("FindByID", ctx, uint(10)).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.Update(ctx, 1, 10, UpdateTaskInput{Status: strPtr("done")})
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrTaskConflict)
}

func TestTaskService_Update_RejectsOthersAndBadInput(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{ID: 10, UserID: 1, Title: "t", Status: model.TaskStatusToDo}, nil)

	_, err := svc.Update(ctx, 2, 10, UpdateTaskInput{Title: strPtr("mine now")})
	assert.ErrorIs(t, err, apperrors.ErrTaskForbidden)

	_, err = svc.Update(ctx, 1, 10, UpdateTaskInput{Title: strPtr(" ")})
	assert.ErrorIs(t, err, apperrors.ErrTitleRequired)

	_, err = svc.Update(ctx, 1, 10, UpdateTaskInput{Status: strPtr("paused")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	repo.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_Delete(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(10)).Return(&model.Task{ID: 10, UserID: 1}, nil)
	repo.On("Delete", ctx, uint(10)).Return(true, nil).Once()

	assert.ErrorIs(t, svc.Delete(ctx, 2, 10), apperrors.ErrTaskForbidden)
	assert.NoError(t, svc.Delete(ctx, 1, 10))
	repo.AssertNumberOfCalls(t, "Delete", 1)
}

func TestTaskService_Stats(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("CountByStatus", ctx, uint(1)).Return(map[model.TaskStatus]int64{
		model.TaskStatusToDo: 2,
		model.TaskStatusDone: 3,
	}, nil)
	repo.On("CompletionStats", ctx, uint(1)).Return(int64(3), int64(3*3723), nil)

	stats, err := svc.Stats(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(2), stats.ToDo)
	assert.Equal(t, int64(0), stats.InProgress)
	assert.Equal(t, int64(3), stats.Done)
	require.NotNil(t, stats.AverageCompletion)
	assert.Equal(t, model.ElapsedDuration{Hours: 1, Minutes: 2, Seconds: 3, TotalSeconds: 3723}, *stats.AverageCompletion)
}

func TestTaskService_Stats_NoCompletedTasks(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := newTestTaskService(repo)
	ctx := context.Background()

	repo.On("CountByStatus", ctx, uint(1)).Return(map[model.TaskStatus]int64{}, nil)
	repo.On("CompletionStats", ctx, uint(1)).Return(int64(0), int64(0), nil)

	stats, err := svc.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Nil(t, stats.AverageCompletion)
}
