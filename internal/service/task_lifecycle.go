package service

import (
	"strings"
	"time"

	apperrors "trackr/internal/errors"
	"trackr/internal/model"
)

// legacyInProgress is the spelling older clients send for the middle state.
const legacyInProgress = "in progress"

// ParseTaskStatus normalizes a client supplied status token.
func ParseTaskStatus(s string) (model.TaskStatus, error) {
	switch strings.TrimSpace(s) {
	case string(model.TaskStatusToDo):
		return model.TaskStatusToDo, nil
	case string(model.TaskStatusInProgress), legacyInProgress:
		return model.TaskStatusInProgress, nil
	case string(model.TaskStatusDone):
		return model.TaskStatusDone, nil
	default:
		return "", apperrors.ErrInvalidStatus
	}
}

// CheckTransition reports whether a task may move from one status to another.
// Staying in the same status is always allowed; leaving done never is.
func CheckTransition(from, to model.TaskStatus) error {
	if from == to {
		return nil
	}
	if from.IsTerminal() {
		return apperrors.ErrTaskAlreadyDone
	}
	return nil
}

// ElapsedSeconds returns whole seconds between createdAt and now, never negative.
func ElapsedSeconds(createdAt, now time.Time) int64 {
	elapsed := int64(now.UTC().Sub(createdAt.UTC()) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// DecomposeDuration splits a second count into hours, minutes and seconds.
func DecomposeDuration(seconds int64) model.ElapsedDuration {
	if seconds < 0 {
		seconds = 0
	}
	return model.ElapsedDuration{
		Hours:        seconds / 3600,
		Minutes:      (seconds % 3600) / 60,
		Seconds:      seconds % 60,
		TotalSeconds: seconds,
	}
}

// complete marks task done at now, freezing its elapsed duration.
func complete(task *model.Task, now time.Time) {
	elapsed := ElapsedSeconds(task.CreatedAt, now)
	task.Status = model.TaskStatusDone
	task.TotalDurationSeconds = &elapsed
	task.CompletedAt = &now
}
